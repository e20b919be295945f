package session

import "context"

// Role identifies which dashboard a session belongs to.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Session is the explicit {role, userId} pair carried through every
// operation in place of ambient per-tab state.
type Session struct {
	UserID  string
	Role    Role
	TokenID string
}

type ctxKey string

const sessionKey ctxKey = "docspot.session"

// WithSession stores the session in context.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext extracts the session if present.
func FromContext(ctx context.Context) (Session, bool) {
	val := ctx.Value(sessionKey)
	if val == nil {
		return Session{}, false
	}
	sess, ok := val.(Session)
	return sess, ok && sess.UserID != ""
}
