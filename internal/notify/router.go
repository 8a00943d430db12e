package notify

import (
	"context"
	"fmt"
	"strings"

	"crypto-sentinel/internal/domain"
)

// Router fans a signal out to every configured channel. Each channel is
// attempted even when an earlier one fails.
type Router struct {
	notifiers []Notifier
}

func NewRouter(notifiers ...Notifier) *Router {
	return &Router{notifiers: notifiers}
}

func (r *Router) Deliver(ctx context.Context, sig domain.Signal, persona string) error {
	var failures []string
	for _, n := range r.notifiers {
		if err := n.Deliver(ctx, sig, persona); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d deliveries failed: %s", len(failures), len(r.notifiers), strings.Join(failures, "; "))
	}
	return nil
}
