package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/opticalquote-backend/api/responses"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
)

const staffIDHeader = "X-Staff-Id"

const maxStaffIDLen = 64

// StaffContext requires the X-Staff-Id header set by the store gateway and
// records it as the acting staff member. Authentication happens upstream.
func StaffContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			staffID := strings.TrimSpace(r.Header.Get(staffIDHeader))
			if staffID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "X-Staff-Id header required"))
				return
			}
			if len(staffID) > maxStaffIDLen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Staff-Id header too long"))
				return
			}

			ctx := WithStaffID(r.Context(), staffID)
			if logg != nil {
				ctx = logg.WithStaffID(ctx, staffID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
