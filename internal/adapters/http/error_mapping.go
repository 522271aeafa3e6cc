package httpadapter

import (
	"net/http"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

// statusByKind is checked in order; the first matching kind wins, anything
// unclassified is a 500.
var statusByKind = []struct {
	kind   error
	status int
}{
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrDocumentNotFound, http.StatusNotFound},
	{domain.ErrTemporary, http.StatusServiceUnavailable},
}

func mapErrorToHTTPStatus(err error) int {
	for _, m := range statusByKind {
		if domain.IsKind(err, m.kind) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
