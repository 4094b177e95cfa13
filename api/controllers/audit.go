package controllers

import (
	"net/http"
	"strings"

	"github.com/jaradmin/jar-backend/api/responses"
	"github.com/jaradmin/jar-backend/api/validators"
	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// ListAuditLog serves the append-only audit trail, newest first.
func ListAuditLog(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), audit.ListParams{
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
			EntityType: strings.TrimSpace(r.URL.Query().Get("entityType")),
			Action:     strings.TrimSpace(r.URL.Query().Get("action")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
