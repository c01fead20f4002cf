package domain

import "time"

// Message is a body+TTL pair living in a queue until claimed-and-deleted
// or expired. ClaimID is empty when the message is unclaimed.
type Message struct {
	ID             string
	Project        string
	Queue          string
	Body           []byte
	TTL            int
	CreatedAt      time.Time
	ClientUUID     string
	ClaimID        string
	ClaimExpiresAt time.Time
}

// ExpiresAt is the wall-clock instant this message becomes invisible to
// readers, absent any live claim extending it (see Claim TTL extension
// rules).
func (m *Message) ExpiresAt() time.Time {
	return m.CreatedAt.Add(time.Duration(m.TTL) * time.Second)
}

// IsExpired reports whether the message has passed its effective
// expiry, which is the later of its own TTL and any live claim's
// extension.
func (m *Message) IsExpired(now time.Time) bool {
	expiry := m.ExpiresAt()
	if m.ClaimID != "" && m.ClaimExpiresAt.After(expiry) {
		expiry = m.ClaimExpiresAt
	}
	return !now.Before(expiry)
}

// IsClaimed reports whether the message currently has a live claim.
func (m *Message) IsClaimed(now time.Time) bool {
	return m.ClaimID != "" && now.Before(m.ClaimExpiresAt)
}

// MessageSpec is the input to Post: a caller-supplied body and TTL,
// before a message id has been assigned.
type MessageSpec struct {
	TTL  int
	Body []byte
}
