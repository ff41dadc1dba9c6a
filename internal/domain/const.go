package domain

type ctxKey string

const (
	RequesterIdCtxKey   ctxKey = "ts-requesterId"
	RequesterRoleCtxKey ctxKey = "ts-requesterRole"
)

const (
	RequesterIdHeader   = "ts-requester-id"
	RequesterRoleHeader = "ts-requester-role"
)

// RoleTeacher may read the quiz results of every user.
const RoleTeacher = "teacher"

// ChatScope decides how chat rooms are keyed. One value per deployment.
type ChatScope string

const (
	// ChatScopeOwner keys rooms by (platform, videoId, owner).
	ChatScopeOwner ChatScope = "owner"
	// ChatScopeVideo shares one room per (platform, videoId).
	ChatScopeVideo ChatScope = "video"
)

func (s ChatScope) Valid() bool {
	return s == ChatScopeOwner || s == ChatScopeVideo
}

// RequesterID returns the authenticated user id carried by ctx, if any.
func RequesterID(ctx interface{ Value(any) any }) string {
	v, _ := ctx.Value(RequesterIdCtxKey).(string)
	return v
}

// RequesterRole returns the role of the authenticated user, or "".
func RequesterRole(ctx interface{ Value(any) any }) string {
	v, _ := ctx.Value(RequesterRoleCtxKey).(string)
	return v
}
