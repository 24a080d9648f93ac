package waitlist

import (
	"strings"

	"github.com/akeren/go-waitlist/internal/models"
	"go.opentelemetry.io/otel/trace"
)

type JoinWaitlistRequest struct {
	Email   string  `json:"email" binding:"required"`
	Country string  `json:"country" binding:"required"`
	State   *string `json:"state"`
}

type JoinWaitlistResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}

// Notification carries everything a detached notification task needs. It is
// built from the request fields and holds no reference to request state.
type Notification struct {
	Email         string
	Country       string
	State         *string
	CorrelationID string
	// SpanContext links the detached task's span to the originating request.
	SpanContext trace.SpanContext
}

// ========================================
// Mappers
// ========================================

func ToWaitlistEntryModel(req *JoinWaitlistRequest) *models.WaitlistEntry {
	if req == nil {
		return nil
	}
	return &models.WaitlistEntry{
		Email:   req.Email,
		Country: req.Country,
		State:   normalizeOptional(req.State),
	}
}

func ToNotification(entry *models.WaitlistEntry, correlationID string, spanContext trace.SpanContext) Notification {
	if entry == nil {
		return Notification{CorrelationID: correlationID, SpanContext: spanContext}
	}
	return Notification{
		Email:         entry.Email,
		Country:       entry.Country,
		State:         entry.State,
		CorrelationID: correlationID,
		SpanContext:   spanContext,
	}
}

// normalizeOptional treats an empty or blank state as absent.
func normalizeOptional(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	s := *v
	return &s
}
