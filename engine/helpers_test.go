package engine

import "time"

const (
	testEventuallyTimeout = 2 * time.Second
	testEventuallyTick    = time.Millisecond
)
