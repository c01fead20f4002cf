package domain

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Page is the result of a single list call: the items visible on this
// page, and the opaque marker that yields the next page. NextMarker is
// empty when there is no further page.
type Page[T any] struct {
	Items      []T
	NextMarker string
}

// Marker is the decoded form of a pagination cursor: a (timestamp, id)
// pair used to order listings on a snapshot-stable key, per invariant 6.
type Marker struct {
	CreatedAt time.Time
	ID        string
}

// EncodeMarker produces an opaque cursor string. Callers never parse it;
// it round-trips only through DecodeMarker.
func EncodeMarker(createdAt time.Time, id string) string {
	raw := strconv.FormatInt(createdAt.UnixNano(), 10) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeMarker parses a cursor produced by EncodeMarker, reporting
// success via ok. It does not distinguish why decoding failed: an empty
// marker and a malformed one both return ok=false, but callers must
// not treat those two cases the same way. An empty marker means "no
// cursor supplied" (start of listing, return page one); a non-empty
// marker that fails to decode means "malformed cursor" (per the
// absent-vs-malformed distinction, this yields an empty page, never a
// validation error). Callers should check marker == "" themselves
// before calling DecodeMarker to tell the two apart.
func DecodeMarker(marker string) (m Marker, ok bool) {
	if marker == "" {
		return Marker{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(marker)
	if err != nil {
		return Marker{}, false
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return Marker{}, false
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || parts[1] == "" {
		return Marker{}, false
	}
	return Marker{CreatedAt: time.Unix(0, nanos).UTC(), ID: parts[1]}, true
}
