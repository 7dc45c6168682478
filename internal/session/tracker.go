package session

import (
	"context"
	"strconv"
	"time"
)

// Tracker records the timestamp of the most recent user interaction for one
// session. It is the sole owner of the last-activity key; the manager
// consults it to decide whether a session has gone idle.
type Tracker struct {
	store Store
	key   string
	now   func() time.Time
}

// Touch overwrites the last-activity timestamp with the current time.
// It is cheap and fire-and-forget: write failures are swallowed, since a
// missing timestamp only makes the session expire sooner.
func (t *Tracker) Touch(ctx context.Context) {
	if t.store == nil {
		return
	}
	ms := t.now().UnixMilli()
	_ = t.store.Set(ctx, t.key, strconv.FormatInt(ms, 10))
}

// Last returns the recorded timestamp in milliseconds since epoch.
// Missing or unparsable values read as absent.
func (t *Tracker) Last(ctx context.Context) (int64, bool) {
	if t.store == nil {
		return 0, false
	}
	raw, err := t.store.Get(ctx, t.key)
	if err != nil {
		return 0, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}
