package domain

import "testing"

func TestClaim_ExtendedMessageTTL(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		ttl       int
		grace     int
		want      int
	}{
		{"grace zero, claim longer", 120, 777, 0, 777},
		{"grace extends beyond claim", 120, 777, 23, 800},
		{"remaining longer than claim+grace", 120, 100, 22, 122},
		{"remaining longer, larger grace", 120, 60, 30, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Claim{TTL: tt.ttl, Grace: tt.grace}
			if got := c.ExtendedMessageTTL(tt.remaining); got != tt.want {
				t.Errorf("ExtendedMessageTTL(%d) = %d, want %d", tt.remaining, got, tt.want)
			}
		})
	}
}

func TestClaim_IsExpired(t *testing.T) {
	now := mustParseTime(t, "2026-01-01T00:00:00Z")

	c := &Claim{ExpiresAt: now}
	if !c.IsExpired(now) {
		t.Error("claim expiring exactly now should be expired")
	}

	c = &Claim{ExpiresAt: now.Add(1)}
	if c.IsExpired(now) {
		t.Error("claim expiring in the future should not be expired")
	}
}
