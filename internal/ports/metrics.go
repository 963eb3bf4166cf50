package ports

import "pos-cloud-sync/internal/domain"

// MetricsRecorder counts webhook outcomes and store operations
type MetricsRecorder interface {
	WebhookOutcome(platform domain.Platform, outcome string)
	StoreOperation(operation, result string)
}
