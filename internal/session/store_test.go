package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRevokeUntilExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Revoke(ctx, "tok-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := s.IsRevoked(ctx, "tok-1"); !revoked {
		t.Fatal("expected tok-1 to be revoked")
	}
	if revoked, _ := s.IsRevoked(ctx, "tok-2"); revoked {
		t.Fatal("tok-2 was never revoked")
	}

	now = now.Add(2 * time.Minute)
	if revoked, _ := s.IsRevoked(ctx, "tok-1"); revoked {
		t.Fatal("revocation should lapse once the token would have expired")
	}
}

func TestMemoryStoreIgnoresExpiredTokens(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Revoke(context.Background(), "old", -time.Second); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := s.IsRevoked(context.Background(), "old"); revoked {
		t.Fatal("already-expired tokens need no revocation entry")
	}
}
