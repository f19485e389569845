package auth

import (
	"context"
	"testing"
	"time"

	"timeClock/internal/testutil"
)

const testSecret = "test-secret"

func TestParseFromMD_ValidBearer(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "lobby-1", "kiosk")
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	p, err := ParseFromMD(ctx, testSecret)
	if err != nil {
		t.Fatalf("ParseFromMD: %v", err)
	}
	if p.Name != "lobby-1" || p.Kind != KindKiosk {
		t.Fatalf("principal mismatch: %+v", p)
	}
}

func TestParseFromMD_MissingHeader(t *testing.T) {
	if _, err := ParseFromMD(context.Background(), testSecret); err == nil {
		t.Fatalf("expected error for missing metadata")
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "lobby-1", "kiosk")
	if _, err := parseJWT(tok, "wrong"); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestParseJWT_ClaimsValidation(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, "", "")
	if _, err := parseJWT(tok, testSecret); err == nil {
		t.Fatalf("expected invalid claims error")
	}
}

func TestIssueKioskToken_RoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := IssueKioskToken(testSecret, "gate", time.Hour, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := parseJWT(tok, testSecret)
	if err != nil || p.Name != "gate" || p.Kind != KindKiosk {
		t.Fatalf("parse issued token: %+v %v", p, err)
	}

	expired, err := IssueKioskToken(testSecret, "gate", time.Minute, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if _, err := parseJWT(expired, testSecret); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	if _, err := IssueKioskToken("", "gate", 0, now); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestSessionTokenFromMD(t *testing.T) {
	ctx := testutil.CtxWithSession(context.Background(), " abc ")
	if got := SessionTokenFromMD(ctx); got != "abc" {
		t.Fatalf("session token = %q", got)
	}
	if got := SessionTokenFromMD(context.Background()); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
