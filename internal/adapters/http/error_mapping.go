package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotInitialized),
		domain.IsKind(err, domain.ErrIndexNotLoaded),
		domain.IsKind(err, domain.ErrIndexNotBuilt):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
