package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so a lead id set once by the handler
// shows up in every log line written by the service and the change feed.
type LogFields struct {
	LeadID         *int64  // Lead being read or mutated
	MessageID      *int64  // Dialogue turn being ingested
	SubscriptionID *string // Change feed subscriber
	ChangeKind     *string // e.g. "lead.updated", "message.created"
	Component      string  // OTel semantic convention style, e.g. "leads.service.lead"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.LeadID != nil {
		result.LeadID = new.LeadID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.SubscriptionID != nil {
		result.SubscriptionID = new.SubscriptionID
	}
	if new.ChangeKind != nil {
		result.ChangeKind = new.ChangeKind
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{LeadID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}
