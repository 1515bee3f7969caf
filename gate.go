package glitchreveal

import (
	"context"
	"time"
)

// Decision is the outcome of the date gate.
type Decision int

const (
	Locked Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Locked {
		return "locked"
	}
	return "allowed"
}

// Gate blocks the experience until UnlockDate.
type Gate struct {
	unlockDate time.Time
	session    *Manager
	content    *ContentResolver
}

func NewGate(unlockDate time.Time, session *Manager, content *ContentResolver) *Gate {
	return &Gate{unlockDate: unlockDate, session: session, content: content}
}

// Evaluate reports Locked iff now is before the unlock date and debug is not set.
func (g *Gate) Evaluate(now time.Time, debug bool) Decision {
	if !debug && now.Before(g.unlockDate) {
		return Locked
	}
	return Allowed
}

// Idle returns the locked text shown before any tap.
func (g *Gate) Idle(now time.Time) (prefix, body string) {
	return g.content.Taunt(now, 0)
}

// OnLockedTap counts a tap on the locked surface, persists it and returns
// the text to show.
func (g *Gate) OnLockedTap(ctx context.Context, now time.Time) (prefix, body string) {
	rec := g.session.Update(ctx, func(r *Record) {
		r.ClickCount++
	})
	return g.content.Taunt(now, rec.ClickCount)
}
