package ports

import (
	"context"

	"pos-cloud-sync/internal/domain"
)

// EventNotifier announces newly queued events to interested listeners
type EventNotifier interface {
	Publish(ctx context.Context, notice domain.EventNotice) error
}
