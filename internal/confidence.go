package internal

import (
	"regexp"
	"strings"
	"time"
)

// Signal is one heuristic that contributed to a confidence score.
type Signal uint16

const (
	SignalIdle2Min Signal = 1 << iota
	SignalIdle1Min
	SignalIdle30s
	SignalVelocityDrop
	SignalLargeChange
	SignalMediumChange
	SignalParagraphEnd
	SignalHeadingEnd
	SignalCursorMoved
	SignalScrolledAway
)

// allSignals is in scoring order; SignalSet.Names follows it.
var allSignals = []Signal{
	SignalIdle2Min,
	SignalIdle1Min,
	SignalIdle30s,
	SignalVelocityDrop,
	SignalLargeChange,
	SignalMediumChange,
	SignalParagraphEnd,
	SignalHeadingEnd,
	SignalCursorMoved,
	SignalScrolledAway,
}

func (s Signal) String() string {
	switch s {
	case SignalIdle2Min:
		return "idle_2min"
	case SignalIdle1Min:
		return "idle_1min"
	case SignalIdle30s:
		return "idle_30s"
	case SignalVelocityDrop:
		return "velocity_drop"
	case SignalLargeChange:
		return "large_change"
	case SignalMediumChange:
		return "medium_change"
	case SignalParagraphEnd:
		return "paragraph_end"
	case SignalHeadingEnd:
		return "heading_end"
	case SignalCursorMoved:
		return "cursor_moved"
	case SignalScrolledAway:
		return "scrolled_away"
	default:
		return "unknown"
	}
}

// Points is the score contribution of the signal.
func (s Signal) Points() int {
	switch s {
	case SignalIdle2Min:
		return 40
	case SignalIdle1Min:
		return 25
	case SignalIdle30s:
		return 10
	case SignalVelocityDrop:
		return 20
	case SignalLargeChange:
		return 15
	case SignalMediumChange:
		return 10
	case SignalParagraphEnd:
		return 15
	case SignalHeadingEnd:
		return 20
	case SignalCursorMoved:
		return 10
	case SignalScrolledAway:
		return 15
	default:
		return 0
	}
}

type SignalSet uint16

func (s SignalSet) Has(sig Signal) bool {
	return s&SignalSet(sig) != 0
}

func (s SignalSet) With(sig Signal) SignalSet {
	return s | SignalSet(sig)
}

func (s SignalSet) Empty() bool {
	return s == 0
}

func (s SignalSet) Names() []string {
	names := []string{}
	for _, sig := range allSignals {
		if s.Has(sig) {
			names = append(names, sig.String())
		}
	}
	return names
}

const MaxConfidence = 100

// Scoring thresholds.
const (
	idle2Min           = 120 * time.Second
	idle1Min           = 60 * time.Second
	idle30s            = 30 * time.Second
	velocityDropBelow  = 0.1
	velocityDropAbove  = 0.5
	largeChangeLines   = 50
	mediumChangeLines  = 10
	cursorJumpDistance = 500
)

var headingPattern = regexp.MustCompile(`^#{1,6}\s+.+`)

type ConfidenceResult struct {
	Score   int
	Signals SignalSet
}

// scoreInput is everything the scorer reads, captured under the engine lock.
type scoreInput struct {
	sinceSave        time.Duration
	sinceEdit        time.Duration
	minCommitDelay   time.Duration
	currentVelocity  float64
	previousVelocity float64
	pendingLines     int
	cursorDistance   int
	scrollDistance   int
	viewportHeight   int
	content          string
}

func scoreConfidence(in scoreInput) ConfidenceResult {
	if in.sinceSave < in.minCommitDelay {
		return ConfidenceResult{}
	}

	var signals SignalSet

	switch {
	case in.sinceEdit > idle2Min:
		signals = signals.With(SignalIdle2Min)
	case in.sinceEdit > idle1Min:
		signals = signals.With(SignalIdle1Min)
	case in.sinceEdit > idle30s:
		signals = signals.With(SignalIdle30s)
	}

	if in.currentVelocity < velocityDropBelow && in.previousVelocity > velocityDropAbove {
		signals = signals.With(SignalVelocityDrop)
	}

	switch {
	case in.pendingLines > largeChangeLines:
		signals = signals.With(SignalLargeChange)
	case in.pendingLines > mediumChangeLines:
		signals = signals.With(SignalMediumChange)
	}

	if strings.HasSuffix(in.content, "\n\n") {
		signals = signals.With(SignalParagraphEnd)
	}
	if endsAfterHeading(in.content) {
		signals = signals.With(SignalHeadingEnd)
	}

	if in.cursorDistance > cursorJumpDistance {
		signals = signals.With(SignalCursorMoved)
	}
	if in.scrollDistance > in.viewportHeight {
		signals = signals.With(SignalScrolledAway)
	}

	score := 0
	for _, sig := range allSignals {
		if signals.Has(sig) {
			score += sig.Points()
		}
	}

	return ConfidenceResult{Score: min(score, MaxConfidence), Signals: signals}
}

func endsAfterHeading(content string) bool {
	lines := strings.Split(content, "\n")
	prev, curr := "", lines[len(lines)-1]
	if len(lines) >= 2 {
		prev = lines[len(lines)-2]
	}
	return headingPattern.MatchString(prev) && strings.TrimSpace(curr) == ""
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
