package tokenstore

import (
	"testing"
	"time"
)

func TestRevokeUntilExpiry(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	now = func() time.Time { return base }
	defer func() { now = time.Now }()

	RevokeToken("jti-1", base.Add(time.Minute))
	if !IsRevoked("jti-1") {
		t.Fatalf("expected jti-1 revoked")
	}
	if IsRevoked("jti-2") || IsRevoked("") {
		t.Fatalf("unknown or empty jti must not be revoked")
	}
	base = base.Add(2 * time.Minute)
	if IsRevoked("jti-1") {
		t.Fatalf("entry should be dropped after the token expired")
	}
}

func TestRevokeZeroExpiry(t *testing.T) {
	RevokeToken("jti-zero", time.Time{})
	if !IsRevoked("jti-zero") {
		t.Fatalf("expected revoked with default retention")
	}
}
