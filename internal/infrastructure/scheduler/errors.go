package scheduler

import "errors"

var (
	// ErrJobNotFound is returned when triggering an unregistered job
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyRunning is returned when a job is triggered while its previous run is in flight
	ErrJobAlreadyRunning = errors.New("job is already running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
