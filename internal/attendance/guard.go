package attendance

import (
	"sync"
	"time"

	"github.com/kozaktomas/face-clock/internal/config"
)

// Guard rate-limits writes per identity and produces advisory audit flags.
// Manual and automatic cooldowns live in separate maps so the two recording
// paths never starve each other. All state is keyed per identity; multiple
// engine instances can each own a Guard without interference.
type Guard struct {
	policy config.Policy

	mu         sync.Mutex
	lastManual map[string]time.Time
	lastAuto   map[string]time.Time
	prevManual map[string]time.Time // one-deep undo for Release
	prevAuto   map[string]time.Time
	lastWrite  map[string]time.Time
	dayCounts  map[string]int // identity + "|" + date
}

// NewGuard creates an anti-fraud guard for the given policy.
func NewGuard(policy config.Policy) *Guard {
	return &Guard{
		policy:     policy,
		lastManual: make(map[string]time.Time),
		lastAuto:   make(map[string]time.Time),
		prevManual: make(map[string]time.Time),
		prevAuto:   make(map[string]time.Time),
		lastWrite:  make(map[string]time.Time),
		dayCounts:  make(map[string]int),
	}
}

// AllowManual reports whether a manual write may proceed for the identity.
// On success the cooldown window is consumed immediately (check-and-reserve),
// so two rapid callers cannot both pass. Undo with Release if the write
// never became durable.
func (g *Guard) AllowManual(identity string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return allow(g.lastManual, g.prevManual, identity, now, g.policy.ManualCooldown)
}

// AllowAuto is AllowManual against the separate, typically longer, automatic
// cooldown.
func (g *Guard) AllowAuto(identity string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return allow(g.lastAuto, g.prevAuto, identity, now, g.policy.AutoCooldown)
}

func allow(last, prev map[string]time.Time, identity string, now time.Time, cooldown time.Duration) bool {
	at, seen := last[identity]
	if seen && now.Sub(at) < cooldown {
		return false
	}
	prev[identity] = at
	last[identity] = now
	return true
}

// Release rolls back a reservation made by AllowManual/AllowAuto. A rejected
// write must not consume the cooldown window.
func (g *Guard) Release(identity string, trigger Trigger) {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, prev := g.lastManual, g.prevManual
	if trigger == TriggerAuto {
		last, prev = g.lastAuto, g.prevAuto
	}
	if at, ok := prev[identity]; ok {
		if at.IsZero() {
			delete(last, identity)
		} else {
			last[identity] = at
		}
		delete(prev, identity)
	}
}

// RecordWritten notes a durable append for daily counting and rapid-reentry
// detection.
func (g *Guard) RecordWritten(identity, date string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dayCounts[identity+"|"+date]++
	g.lastWrite[identity] = now
}

// DayCount returns how many records the guard has seen written for the
// identity on the date.
func (g *Guard) DayCount(identity, date string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dayCounts[identity+"|"+date]
}

// CapExceeded reports whether another write would land at or beyond the
// daily cap. Advisory unless the policy enforces the cap.
func (g *Guard) CapExceeded(identity, date string) bool {
	if g.policy.DailyCap <= 0 {
		return false
	}
	return g.DayCount(identity, date) >= g.policy.DailyCap
}

// Flags evaluates the advisory markers for a pending write. Flags never
// block anything here; enforcement decisions stay with the recorder.
func (g *Guard) Flags(identity, date string, confidence float64, quality *float64, now time.Time) []Flag {
	var flags []Flag

	if confidence < g.policy.ManualConfidenceFloor {
		flags = append(flags, FlagLowConfidence)
	}
	if quality != nil && *quality < g.policy.QualityFloor {
		flags = append(flags, FlagLowQuality)
	}
	if g.CapExceeded(identity, date) {
		flags = append(flags, FlagDailyCapExceeded)
	}

	g.mu.Lock()
	lastWrite, seen := g.lastWrite[identity]
	g.mu.Unlock()
	if seen && now.Sub(lastWrite) < g.policy.SuspiciousInterval {
		flags = append(flags, FlagRapidReentry)
	}

	return flags
}
