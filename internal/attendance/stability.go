package attendance

import (
	"fmt"
	"sync"
	"time"

	"github.com/kozaktomas/face-clock/internal/config"
)

// StabilityStatus classifies how trustworthy an identity's recent detection
// streak is.
type StabilityStatus string

const (
	// StabilityCollecting means the window holds too few samples to judge.
	StabilityCollecting StabilityStatus = "collecting"
	// StabilityStable means position, confidence and streak age all sit
	// within policy thresholds.
	StabilityStable StabilityStatus = "stable"
	// StabilityFlexible means thresholds are exceeded but the streak has
	// lasted long enough for the permissive policy to accept anyway.
	StabilityFlexible StabilityStatus = "flexible"
	StabilityUnstable StabilityStatus = "unstable"
)

// Stability is the result of one Observe call.
type Stability struct {
	Status StabilityStatus
	Reason string
}

type sample struct {
	pos        Point
	confidence float64
	at         time.Time
}

type window struct {
	samples    []sample
	startedAt  time.Time // first sample of the current unbroken streak
	lastAt     time.Time
	stableRuns int
}

// Tracker keeps a per-identity rolling window of recognition samples and
// classifies the streak. Identities are independent keys so multi-face
// frames never interfere with each other.
type Tracker struct {
	policy config.Policy

	mu      sync.Mutex
	windows map[string]*window
}

// NewTracker creates a stability tracker for the given policy.
func NewTracker(policy config.Policy) *Tracker {
	return &Tracker{
		policy:  policy,
		windows: make(map[string]*window),
	}
}

// Observe appends one sample to the identity's window and classifies the
// streak. It mutates only the window; the classification itself is a pure
// function of the accumulated state.
func (t *Tracker) Observe(identity string, pos Point, confidence float64, ts time.Time) Stability {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[identity]
	if !ok || ts.Sub(w.lastAt) > t.policy.StreakBreakGap {
		// Detection dropped out long enough that the old streak is over.
		w = &window{startedAt: ts}
		t.windows[identity] = w
	}

	w.samples = append(w.samples, sample{pos: pos, confidence: confidence, at: ts})
	if len(w.samples) > t.policy.WindowSize {
		w.samples = w.samples[len(w.samples)-t.policy.WindowSize:]
	}
	w.lastAt = ts

	if len(w.samples) < t.policy.MinSamples {
		return Stability{
			Status: StabilityCollecting,
			Reason: fmt.Sprintf("collecting samples (%d/%d)", len(w.samples), t.policy.MinSamples),
		}
	}

	posVar := positionVariance(w.samples)
	confVar := confidenceVariance(w.samples)
	age := ts.Sub(w.startedAt)

	withinThresholds := posVar <= t.policy.MaxPositionVariance &&
		confVar <= t.policy.MaxConfidenceVariance &&
		age >= t.policy.MinStreakAge

	if withinThresholds {
		w.stableRuns++
		if w.stableRuns >= t.policy.MinStableRuns {
			return Stability{Status: StabilityStable}
		}
		return Stability{
			Status: StabilityUnstable,
			Reason: fmt.Sprintf("stabilizing (%d/%d consecutive)", w.stableRuns, t.policy.MinStableRuns),
		}
	}
	w.stableRuns = 0

	if t.policy.AllowFlexible && t.policy.FlexibleStreakAge > 0 && age >= t.policy.FlexibleStreakAge {
		return Stability{Status: StabilityFlexible}
	}

	if age < t.policy.MinStreakAge {
		return Stability{
			Status: StabilityUnstable,
			Reason: fmt.Sprintf("wait %.1fs more", (t.policy.MinStreakAge - age).Seconds()),
		}
	}
	if posVar > t.policy.MaxPositionVariance {
		return Stability{
			Status: StabilityUnstable,
			Reason: fmt.Sprintf("position too jittery (variance %.0f)", posVar),
		}
	}
	return Stability{
		Status: StabilityUnstable,
		Reason: fmt.Sprintf("confidence fluctuating (variance %.4f)", confVar),
	}
}

// Reset drops the identity's window, ending the current streak. Call it when
// the face is no longer detected.
func (t *Tracker) Reset(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.windows, identity)
}

// positionVariance sums the variance of the X and Y face-center coordinates
// across the window, in squared pixels.
func positionVariance(samples []sample) float64 {
	var meanX, meanY float64
	for _, s := range samples {
		meanX += s.pos.X
		meanY += s.pos.Y
	}
	n := float64(len(samples))
	meanX /= n
	meanY /= n

	var v float64
	for _, s := range samples {
		dx := s.pos.X - meanX
		dy := s.pos.Y - meanY
		v += dx*dx + dy*dy
	}
	return v / n
}

func confidenceVariance(samples []sample) float64 {
	var mean float64
	for _, s := range samples {
		mean += s.confidence
	}
	n := float64(len(samples))
	mean /= n

	var v float64
	for _, s := range samples {
		d := s.confidence - mean
		v += d * d
	}
	return v / n
}
