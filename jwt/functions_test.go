package jwt

import (
	"testing"
	"time"
)

func TestCreateValidate(t *testing.T) {
	token, err := Create("user-1", "alice@example.com", "teacher", "tubesage", time.Minute, "secret")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	claims, err := Validate(token, "tubesage", "secret")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "alice@example.com" || claims.Role != "teacher" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	good, _ := Create("user-1", "", "", "tubesage", time.Minute, "secret")
	expired, _ := Create("user-1", "", "", "tubesage", -time.Minute, "secret")

	tests := []struct {
		name     string
		token    string
		audience string
		secret   string
	}{
		{name: "wrong secret", token: good, audience: "tubesage", secret: "other"},
		{name: "wrong audience", token: good, audience: "elsewhere", secret: "secret"},
		{name: "expired", token: expired, audience: "tubesage", secret: "secret"},
		{name: "garbage", token: "a.b.c", audience: "tubesage", secret: "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Validate(tt.token, tt.audience, tt.secret); err == nil {
				t.Fatalf("expected validation to fail")
			}
		})
	}
}
