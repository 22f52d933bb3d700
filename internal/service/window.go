package service

import "time"

// Window is the half-open range [From, To) of event start times due for a
// reminder on one tick. Its width equals the tick interval so that, absent
// missed ticks, consecutive windows tile the timeline with no gap and no
// overlap. An event whose window fell entirely inside a skipped tick is
// missed; that is an accepted limitation, not something to paper over here.
type Window struct {
	From time.Time
	To   time.Time
}

func NewWindow(now time.Time, lead time.Duration, width time.Duration) Window {
	from := now.Add(lead)
	return Window{
		From: from,
		To:   from.Add(width),
	}
}

// Contains reports whether a start time falls inside the window.
func (w Window) Contains(startTime time.Time) bool {
	return !startTime.Before(w.From) && startTime.Before(w.To)
}
