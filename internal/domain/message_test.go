package domain

import (
	"testing"
	"time"
)

func TestMessage_IsExpired(t *testing.T) {
	created := mustParseTime(t, "2026-01-01T00:00:00Z")

	t.Run("ttl zero born expired", func(t *testing.T) {
		m := &Message{CreatedAt: created, TTL: 0}
		if !m.IsExpired(created) {
			t.Error("ttl=0 message should be expired at birth")
		}
	})

	t.Run("unclaimed expires at created+ttl", func(t *testing.T) {
		m := &Message{CreatedAt: created, TTL: 60}
		if m.IsExpired(created.Add(59 * time.Second)) {
			t.Error("should not be expired before ttl elapses")
		}
		if !m.IsExpired(created.Add(60 * time.Second)) {
			t.Error("should be expired once ttl elapses")
		}
	})

	t.Run("live claim extends effective expiry", func(t *testing.T) {
		m := &Message{
			CreatedAt:      created,
			TTL:            60,
			ClaimID:        "c1",
			ClaimExpiresAt: created.Add(120 * time.Second),
		}
		if m.IsExpired(created.Add(90 * time.Second)) {
			t.Error("message held by a claim should not expire before the claim does")
		}
	})
}

func TestMessage_IsClaimed(t *testing.T) {
	now := mustParseTime(t, "2026-01-01T00:00:00Z")
	m := &Message{ClaimID: "c1", ClaimExpiresAt: now.Add(time.Second)}
	if !m.IsClaimed(now) {
		t.Error("message with a future claim expiry should be claimed")
	}
	m.ClaimExpiresAt = now
	if m.IsClaimed(now) {
		t.Error("message whose claim has expired should not be claimed")
	}
}
