package util

import "time"

// Clock supplies order timestamps; tests swap in a fixed clock so matching
// runs are reproducible.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
