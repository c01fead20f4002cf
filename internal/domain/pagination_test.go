package domain

import "testing"

func TestMarker_RoundTrip(t *testing.T) {
	now := mustParseTime(t, "2026-01-01T00:00:00Z")
	enc := EncodeMarker(now, "msg-123")

	m, ok := DecodeMarker(enc)
	if !ok {
		t.Fatal("expected marker to decode")
	}
	if m.ID != "msg-123" || !m.CreatedAt.Equal(now) {
		t.Errorf("got %+v, want id=msg-123 createdAt=%v", m, now)
	}
}

func TestDecodeMarker_Malformed(t *testing.T) {
	for _, bad := range []string{"", "not-base64-!!!", "anNvbg=="} {
		if _, ok := DecodeMarker(bad); ok {
			t.Errorf("expected malformed marker %q to fail to decode", bad)
		}
	}
}
