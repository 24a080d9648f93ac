package waitlist

import (
	"net/http"

	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/constants"
	apperrors "github.com/akeren/go-waitlist/pkg/errors"
	"github.com/akeren/go-waitlist/pkg/ratelimit"
	"gorm.io/gorm"
)

const (
	invalidPayloadMessage = "Invalid request payload"
	saveFailedMessage     = "Failed to save user"
	successMessage        = "Success"
)

// NewWaitlistController mounts POST /api/join-waitlist. A nil limiter falls
// back to an in-memory one sized by constants.JoinRateLimitRequests.
func NewWaitlistController(
	db *gorm.DB,
	logger *log.Logger,
	notifier Notifier,
	limiter ratelimit.RateLimiter,
) *router.RESTController {

	return router.NewRESTController(
		"WaitlistController",
		"/api",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewWaitlistRepository(db)
			service := NewWaitlistService(logger, repository, notifier)

			joinLimiter := limiter
			if joinLimiter == nil {
				joinLimiter = createJoinRateLimiter()
			}

			rs.AddPostHandler(c, joinLimiter, "join-waitlist", createJoinWaitlistHandler(service))
		},
	)
}

func createJoinRateLimiter() ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: constants.JoinRateLimitRequests,
		Window:   constants.DefaultRateLimitWindow(),
	})
}

func createJoinWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req JoinWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind join request", "error", err)

			response := ErrorResponse{Error: invalidPayloadMessage}
			if validationErrors := apperrors.FormatValidationErrors(err, &req); len(validationErrors) > 0 {
				response.Fields = validationErrors
			}

			return router.JSONResult(http.StatusBadRequest, response)
		}

		if err := service.Join(ctx.Request.Context(), &req); err != nil {
			status := apperrors.HTTPStatusCode(err)
			if status == http.StatusBadRequest {
				return router.JSONResult(status, ErrorResponse{Error: invalidPayloadMessage})
			}

			return router.JSONResult(status, ErrorResponse{Error: saveFailedMessage})
		}

		return router.JSONResult(http.StatusOK, JoinWaitlistResponse{Message: successMessage})
	}
}
