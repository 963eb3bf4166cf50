package application

// Webhook outcomes reported to the metrics recorder
const (
	OutcomeProcessed        = "processed"
	OutcomeIgnoredTopic     = "ignored_topic"
	OutcomeUnmatchedStore   = "unmatched_store"
	OutcomeMalformed        = "malformed"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeFailed           = "failed"
)

// Store operation results
const (
	ResultOK         = "ok"
	ResultNoIdentity = "no_identity"
	ResultError      = "error"
)
