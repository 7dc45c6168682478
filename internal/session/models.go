package session

import "time"

// InactivityThreshold is how long a session survives without recorded
// activity. Expiry is evaluated lazily on the next validity check, never by
// a background timer.
const InactivityThreshold = 12 * time.Hour

// authenticatedSentinel marks the presence of an authenticated session.
// It is a fixed marker, not a credential; the session id cookie only names
// the server-side record.
const authenticatedSentinel = "authenticated"

// Storage key suffixes. All three keys for one session are written and
// cleared together; nothing outside this package may touch them directly.
const (
	keyAuthenticated = "authenticated"
	keyUser          = "user"
	keyLastActivity  = "last_activity"
)

// User holds the identity attributes persisted with a session.
type User struct {
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	CreatedAt string `json:"createdAt"`
}
