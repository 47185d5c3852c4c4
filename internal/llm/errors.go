package llm

import "errors"

// ErrProvider marks a failed or timed-out provider call. The loop retries
// once against the fallback provider before treating it as fatal.
var ErrProvider = errors.New("provider call failed")
