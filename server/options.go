package server

import "time"

type Options struct {
	Timeout TimeoutOptions
}

// TimeoutOptions bound how long a single connection may take.
// Zero values mean no limit.
type TimeoutOptions struct {
	Read  time.Duration
	Write time.Duration
}
