package clock

import (
	"sync"
	"time"
)

// Clock is the engine's time source.
type Clock interface {
	// Now returns the current time of the clock.
	Now() time.Time
	// Advance moves a simulated clock to a candle timestamp. Earlier timestamps are ignored.
	Advance(ts time.Time)
	// EndOfDay reports whether a bar opening at ts with the given unit is the last bar of its session.
	EndOfDay(ts time.Time, unit time.Duration) bool
}

// Session describes the daily trading session. Close is the offset from local midnight.
// A zero Close means the session runs the full day and closes at midnight.
type Session struct {
	Location *time.Location
	Close    time.Duration
}

// DefaultSession is a 24h UTC session.
func DefaultSession() Session {
	return Session{Location: time.UTC}
}

// ParseSession builds a session from a location name and an HH:MM close time.
func ParseSession(location, closeAt string) (Session, error) {
	session := DefaultSession()

	if location != "" {
		loc, err := time.LoadLocation(location)
		if err != nil {
			return Session{}, err
		}

		session.Location = loc
	}

	if closeAt != "" {
		t, err := time.Parse("15:04", closeAt)
		if err != nil {
			return Session{}, err
		}

		session.Close = time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	}

	return session, nil
}

// closeFor returns the session close on the local day of ts.
func (s Session) closeFor(ts time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	local := ts.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	if s.Close == 0 {
		return midnight.AddDate(0, 0, 1)
	}

	return midnight.Add(s.Close)
}

// IsLastBar reports whether the bar [ts, ts+unit) ends at or after the session close
// while starting before it.
func (s Session) IsLastBar(ts time.Time, unit time.Duration) bool {
	closeAt := s.closeFor(ts)

	return ts.Before(closeAt) && !ts.Add(unit).Before(closeAt)
}

// SameSession reports whether a and b belong to the same trading session.
func (s Session) SameSession(a, b time.Time) bool {
	ca := s.closeFor(a)
	if !a.Before(ca) {
		ca = s.closeFor(a.Add(24 * time.Hour))
	}

	cb := s.closeFor(b)
	if !b.Before(cb) {
		cb = s.closeFor(b.Add(24 * time.Hour))
	}

	return ca.Equal(cb)
}

// SimulatedClock follows the timestamps of the candles the engine consumes.
type SimulatedClock struct {
	mu      sync.RWMutex
	now     time.Time
	session Session
}

// NewSimulatedClock creates a simulated clock starting at start.
func NewSimulatedClock(start time.Time, session Session) *SimulatedClock {
	return &SimulatedClock{now: start.UTC(), session: session}
}

func (c *SimulatedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.now
}

func (c *SimulatedClock) Advance(ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ts.After(c.now) {
		c.now = ts.UTC()
	}
}

func (c *SimulatedClock) EndOfDay(ts time.Time, unit time.Duration) bool {
	return c.session.IsLastBar(ts, unit)
}

// WallClock returns UTC system time.
type WallClock struct {
	session Session
	nowFunc func() time.Time
}

// NewWallClock creates a system clock.
func NewWallClock(session Session) *WallClock {
	return &WallClock{session: session, nowFunc: time.Now}
}

func (c *WallClock) Now() time.Time {
	return c.nowFunc().UTC()
}

// Advance is a no-op for wall time.
func (c *WallClock) Advance(time.Time) {}

func (c *WallClock) EndOfDay(ts time.Time, unit time.Duration) bool {
	return c.session.IsLastBar(ts, unit)
}
