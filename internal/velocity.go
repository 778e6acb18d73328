package internal

import "time"

// editWindow keeps the timestamps of edits inside a sliding window.
// Callers hold the engine lock.
type editWindow struct {
	window time.Duration
	stamps []time.Time
}

func newEditWindow(window time.Duration) *editWindow {
	return &editWindow{window: window}
}

func (w *editWindow) record(now time.Time) {
	w.stamps = append(w.stamps, now)
	w.prune(now)
}

func (w *editWindow) prune(now time.Time) {
	keep := w.stamps[:0]
	for _, t := range w.stamps {
		if w.inWindow(now, t) {
			keep = append(keep, t)
		}
	}
	w.stamps = keep
}

// velocity is edits per second over the window ending at now.
func (w *editWindow) velocity(now time.Time) float64 {
	count := 0
	for _, t := range w.stamps {
		if w.inWindow(now, t) {
			count++
		}
	}
	return float64(count) / w.window.Seconds()
}

func (w *editWindow) inWindow(now, t time.Time) bool {
	return now.Sub(t) < w.window
}
