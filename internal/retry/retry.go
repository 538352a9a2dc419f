package retry

import (
	"time"

	"github.com/wb-go/wbf/retry"
)

// DefaultStrategy bounds retries for idempotent reads against external
// stores. Policy resolution is pure and never retried.
var DefaultStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    200 * time.Millisecond,
	Backoff:  2.0,
}
