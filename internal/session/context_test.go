package session

import (
	"context"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	ctx := WithSession(context.Background(), Session{UserID: "u1", Role: RolePatient, TokenID: "t1"})
	sess, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected session in context")
	}
	if sess.UserID != "u1" || sess.Role != RolePatient || sess.TokenID != "t1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no session in empty context")
	}
}

func TestFromContextEmptyUser(t *testing.T) {
	ctx := WithSession(context.Background(), Session{Role: RoleDoctor})
	if _, ok := FromContext(ctx); ok {
		t.Fatal("expected session without user id to be rejected")
	}
}
