// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// KindOf classifies any error. Unknown errors are Internal.
func KindOf(err error) Kind {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.Kind
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Map converts service/repo errors into gRPC-friendly status errors.
// Keeps transport code clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")
	}

	switch KindOf(err) {
	case KindNotFound:
		return status.Error(codes.NotFound, publicMessage(err, "record not found"))
	case KindValidation, KindInvalidActor:
		return status.Error(codes.InvalidArgument, err.Error())
	case KindDuplicateRating, KindAlreadyMatched:
		return status.Error(codes.AlreadyExists, err.Error())
	case KindMatchNotActive, KindAlreadyInactive:
		return status.Error(codes.FailedPrecondition, err.Error())
	case KindNotParticipant:
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// HTTPStatus returns the HTTP status for err.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	}

	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindInvalidActor, KindDuplicateRating, KindAlreadyMatched,
		KindMatchNotActive, KindAlreadyInactive:
		return http.StatusBadRequest
	case KindNotParticipant:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to clients. Internal failures are hidden.
func PublicMessage(err error) string {
	if KindOf(err) == KindInternal {
		return "internal server error"
	}
	return publicMessage(err, err.Error())
}

func publicMessage(err error, def string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return def
}
