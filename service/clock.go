package service

import "time"

// Clock abstracts time so the token, webhook and rate-limit services can be
// tested against a deterministic source instead of the wall clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
