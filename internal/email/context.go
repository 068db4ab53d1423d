package email

import (
	"context"
	"time"
)

// newEmailContext bounds a send without inheriting the caller's cancellation,
// so a finished request or job tick does not abort delivery.
func newEmailContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	parent = context.WithoutCancel(parent)
	return context.WithTimeout(parent, timeout)
}
