package controllers

import (
	"net/http"
	"strings"

	"github.com/jaradmin/jar-backend/api/responses"
	"github.com/jaradmin/jar-backend/api/validators"
	"github.com/jaradmin/jar-backend/internal/declarations"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// ListDeclarations returns the paginated declaration queue.
func ListDeclarations(svc declarations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := declarations.ListParams{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseDeclarationStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("billingType")); raw != "" {
			billing, err := enums.ParseBillingType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billingType filter"))
				return
			}
			params.BillingType = &billing
		}
		userID, err := optionalQueryUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.UserID = userID

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetDeclaration returns one declaration with its drift lines.
func GetDeclaration(svc declarations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "declarationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		declaration, changes, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"declaration": declaration,
			"changes":     changes,
		})
	}
}

// MarkDeclarationDeclared acknowledges a declaration as filed.
func MarkDeclarationDeclared(svc declarations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "declarationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		declaration, err := svc.MarkDeclared(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, declaration)
	}
}
