package pubsub

import (
	"context"
	"errors"

	"pos-cloud-sync/internal/domain"
	"pos-cloud-sync/internal/ports"
)

// MultiNotifier publishes to every notifier and joins their errors
type MultiNotifier []ports.EventNotifier

func (m MultiNotifier) Publish(ctx context.Context, notice domain.EventNotice) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
