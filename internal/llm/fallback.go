package llm

import (
	"context"
	"fmt"

	"appforge/internal/logging"
)

// Fallback chains a primary provider with a secondary one. A failed primary
// call is retried exactly once against the secondary; if both fail the error
// is fatal to the run.
type Fallback struct {
	Primary   Provider
	Secondary Provider
}

// NewFallback wraps primary with an optional secondary. A nil secondary
// means no retry.
func NewFallback(primary, secondary Provider) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary}
}

// Name identifies the active chain.
func (f *Fallback) Name() string {
	if f.Secondary == nil {
		return f.Primary.Name()
	}
	return fmt.Sprintf("%s+%s", f.Primary.Name(), f.Secondary.Name())
}

// Complete tries the primary, then the secondary once.
func (f *Fallback) Complete(ctx context.Context, messages []Message, defs []ToolDef) (*Completion, error) {
	completion, primaryErr := f.Primary.Complete(ctx, messages, defs)
	if primaryErr == nil {
		return completion, nil
	}
	if f.Secondary == nil {
		return nil, primaryErr
	}
	if ctx.Err() != nil {
		return nil, primaryErr
	}

	logging.APIWarn("Primary provider %s failed, trying %s: %v",
		f.Primary.Name(), f.Secondary.Name(), primaryErr)

	completion, secondaryErr := f.Secondary.Complete(ctx, messages, defs)
	if secondaryErr != nil {
		return nil, fmt.Errorf("%w: primary (%s): %v; fallback (%s): %v",
			ErrProvider, f.Primary.Name(), primaryErr, f.Secondary.Name(), secondaryErr)
	}
	return completion, nil
}
