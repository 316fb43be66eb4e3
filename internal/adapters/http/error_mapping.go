package httpadapter

import (
	"net/http"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/infrastructure/resilience"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrStoreUnavailable), resilience.IsCircuitOpen(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
