package apperrors

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"facegate.io/application/constants"
	"facegate.io/infrastructure/logger"
	server_response "facegate.io/infrastructure/serverResponse"
	"github.com/gin-gonic/gin"
)

const serviceDownMessage = "Our service is temporarily down. Our team is working to fix it. Please check back later."

func NotFoundError(ctx interface{}, message string) {
	server_response.Responder.Respond(ctx, http.StatusNotFound, message, nil, nil, nil)
}

func ValidationFailedError(ctx interface{}, errMessages *[]error) {
	server_response.Responder.Respond(ctx, http.StatusUnprocessableEntity, "Payload validation failed", nil, *errMessages, nil)
}

func EntityAlreadyExistsError(ctx interface{}, message string) {
	server_response.Responder.Respond(ctx, http.StatusConflict, message, nil, nil, nil)
}

func AuthenticationError(ctx interface{}, message string) {
	server_response.Responder.Respond(ctx, http.StatusUnauthorized, message, nil, nil, nil)
}

func AuthorizationError(ctx interface{}, message string) {
	server_response.Responder.Respond(ctx, http.StatusForbidden, message, nil, nil, nil)
}

// LockedError answers 423 and tells the client when it may retry.
func LockedError(ctx interface{}, message string, retryAfter time.Duration, lockedUntil *time.Time) {
	setRetryAfter(ctx, retryAfter)
	body := map[string]any{"retryAfterSeconds": seconds(retryAfter)}
	if lockedUntil != nil {
		body["lockedUntil"] = lockedUntil.UTC()
	}
	server_response.Responder.Respond(ctx, http.StatusLocked, message, body, nil, &constants.ACCOUNT_LOCKED)
}

func RateLimitedError(ctx interface{}, message string, retryAfter time.Duration) {
	setRetryAfter(ctx, retryAfter)
	server_response.Responder.Respond(ctx, http.StatusTooManyRequests, message, map[string]any{
		"retryAfterSeconds": seconds(retryAfter),
	}, nil, nil)
}

func ExternalDependencyError(ctx interface{}, serviceName string, err error) {
	logger.Error(fmt.Sprintf("error with %s", serviceName), logger.LoggerOptions{
		Key:  "error",
		Data: err,
	})
	server_response.Responder.Respond(ctx, http.StatusServiceUnavailable, serviceDownMessage, nil, nil, nil)
}

func ErrorProcessingPayload(ctx interface{}) {
	server_response.Responder.Respond(ctx, http.StatusBadRequest, "Abnormal payload passed", nil, nil, nil)
}

func FatalServerError(ctx interface{}, err error) {
	logger.Error("unexpected server error", logger.LoggerOptions{
		Key:  "error",
		Data: err,
	})
	server_response.Responder.Respond(ctx, http.StatusInternalServerError, serviceDownMessage, nil, nil, nil)
}

func CustomError(ctx interface{}, msg string, responseCode *uint) {
	server_response.Responder.Respond(ctx, http.StatusBadRequest, msg, nil, nil, responseCode)
}

func ClientError(ctx interface{}, msg string, errs []error, responseCode *uint) {
	server_response.Responder.Respond(ctx, http.StatusBadRequest, msg, nil, errs, responseCode)
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func setRetryAfter(ctx interface{}, retryAfter time.Duration) {
	if ginCtx, ok := ctx.(*gin.Context); ok && retryAfter > 0 {
		ginCtx.Header("Retry-After", strconv.Itoa(seconds(retryAfter)))
	}
}
