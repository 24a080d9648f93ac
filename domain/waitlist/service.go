package waitlist

import (
	"context"
	"strings"

	"github.com/akeren/go-waitlist/internal/log"
	apperrors "github.com/akeren/go-waitlist/pkg/errors"
	"go.opentelemetry.io/otel/trace"
)

type WaitlistService interface {
	// Join persists the sign-up and, only once that succeeded, hands the
	// notification off without waiting for it. A repeated email is a success.
	Join(ctx context.Context, req *JoinWaitlistRequest) error
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	notifier   Notifier
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, notifier Notifier) WaitlistService {
	return &waitlistService{logger: logger, repository: repository, notifier: notifier}
}

func (s *waitlistService) Join(ctx context.Context, req *JoinWaitlistRequest) error {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Join received empty request")
		return apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Country) == "" {
		logger.Error("Join received blank required field")
		return apperrors.NewInvalidRequestError("email and country are required", nil)
	}

	logger.Info("Received join request", "email", req.Email)

	entry := ToWaitlistEntryModel(req)

	inserted, err := s.repository.InsertIfAbsent(ctx, entry)
	if err != nil {
		logger.Error("Failed to save waitlist entry", "email", req.Email, "error", err)
		return err
	}

	if inserted {
		logger.Info("Waitlist entry created", "email", entry.Email)
	} else {
		logger.Info("Waitlist entry already exists", "email", entry.Email)
	}

	if s.notifier != nil {
		notification := ToNotification(entry, log.GetOrGenerateCorrelationID(ctx), trace.SpanContextFromContext(ctx))
		s.notifier.Dispatch(notification)
	}

	return nil
}
