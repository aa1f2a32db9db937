package guard

import "time"

// Clock abstracts wall-clock reads so timer behavior is testable without
// real delays. Production uses SystemClock; tests drive a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock { return systemClock{} }
