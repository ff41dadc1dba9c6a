package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/client"
	"github.com/totegamma/tubesage/internal/infra/llm"
	"github.com/totegamma/tubesage/platform"
)

func TestParseQuiz(t *testing.T) {
	valid := `{"questions": [{"question": "What?", "options": ["A. one", "B. two", "C. three", "D. four"], "answer": "B"}]}`
	legacy := `{"quiz": [{"question": "What?", "options": ["A. one", "B. two", "C. three", "D. four"], "answer": "C"}]}`

	tests := []struct {
		name    string
		input   string
		wantErr bool
		answer  string
	}{
		{name: "plain", input: valid, answer: "B"},
		{name: "fenced", input: "Here you go:\n```json\n" + valid + "\n```\nEnjoy", answer: "B"},
		{name: "surrounding text", input: "Sure! " + valid + " Hope this helps.", answer: "B"},
		{name: "quiz field", input: legacy, answer: "C"},
		{name: "not json", input: "I cannot do that", wantErr: true},
		{name: "empty", input: `{"questions": []}`, wantErr: true},
		{name: "answer not an option", input: `{"questions": [{"question": "q", "options": ["A. x", "B. y"], "answer": "Z"}]}`, wantErr: true},
		{name: "duplicate options", input: `{"questions": [{"question": "q", "options": ["x", "x"], "answer": "x"}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, err := ParseQuiz(tt.input)
			if tt.wantErr {
				if !errors.Is(err, errMalformedQuiz) {
					t.Fatalf("expected malformed quiz error got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(questions) != 1 || questions[0].Answer != tt.answer {
				t.Fatalf("unexpected questions %+v", questions)
			}
		})
	}
}

type fakeLLM struct {
	reply    string
	err      error
	messages []llm.Message
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Generate(ctx context.Context, messages []llm.Message) (llm.GenerateResult, error) {
	f.messages = messages
	if f.err != nil {
		return llm.GenerateResult{}, f.err
	}
	return llm.GenerateResult{Text: f.reply}, nil
}

func newTranscriptServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tubesage.TranscriptRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Video.URL == "" {
			t.Errorf("expected canonical url in request")
		}
		json.NewEncoder(w).Encode(tubesage.TranscriptResponse{
			Status:     "success",
			Transcript: tubesage.Transcript{Title: "Never Gonna", Text: "never gonna give you up"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestPlatforms(t *testing.T) *platform.Registry {
	t.Helper()
	r, err := platform.NewDefault(http.DefaultClient)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

var testKey = tubesage.ResourceKey{Platform: "youtube", VideoID: "dQw4w9WgXcQ"}

func TestLLMGatewaySummary(t *testing.T) {
	srv := newTranscriptServer(t)
	model := &fakeLLM{reply: "  A short summary.  "}
	g := NewLLMGateway(client.New(srv.URL), model, newTestPlatforms(t))
	ctx := context.Background()

	transcript, err := g.Transcript(ctx, testKey)
	if err != nil {
		t.Fatalf("transcript failed: %v", err)
	}
	summary, err := g.Summarize(ctx, testKey, transcript)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary != "A short summary." {
		t.Fatalf("unexpected summary %q", summary)
	}
	last := model.messages[len(model.messages)-1]
	if !strings.Contains(last.Content, "never gonna give you up") || !strings.Contains(last.Content, "Never Gonna") {
		t.Fatalf("prompt does not carry the transcript: %q", last.Content)
	}
}

func TestLLMGatewayAnswerCarriesHistory(t *testing.T) {
	srv := newTranscriptServer(t)
	model := &fakeLLM{reply: "It is about loyalty."}
	g := NewLLMGateway(client.New(srv.URL), model, newTestPlatforms(t))

	history := []tubesage.Turn{
		{Sender: tubesage.SenderUser, Text: "hi"},
		{Sender: tubesage.SenderAssistant, Text: "hello"},
	}
	answer, err := g.Answer(context.Background(), testKey, "what is it about?", history)
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer != "It is about loyalty." {
		t.Fatalf("unexpected answer %q", answer)
	}
	// system prompt, two history turns, the question
	if len(model.messages) != 4 {
		t.Fatalf("expected 4 messages got %d", len(model.messages))
	}
	if model.messages[2].Role != llm.RoleAssistant {
		t.Fatalf("expected assistant role for assistant turn got %s", model.messages[2].Role)
	}
	if model.messages[3].Content != "what is it about?" {
		t.Fatalf("expected question last got %q", model.messages[3].Content)
	}
}

func TestLLMGatewayModelError(t *testing.T) {
	srv := newTranscriptServer(t)
	g := NewLLMGateway(client.New(srv.URL), &fakeLLM{err: errors.New("quota")}, newTestPlatforms(t))

	_, err := g.Quiz(context.Background(), testKey, tubesage.Transcript{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("expected model error got %v", err)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	short := "short transcript"
	if got := truncate(short); got != short {
		t.Fatalf("short text must pass through, got %q", got)
	}

	// "あ" is three bytes, so the limit falls inside a rune
	long := strings.Repeat("a", maxTranscriptChars-1) + strings.Repeat("あ", 4)
	got := truncate(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid utf-8")
	}
	if len(got) != maxTranscriptChars-1 {
		t.Fatalf("expected cut at the last rune boundary, got %d bytes", len(got))
	}
}
