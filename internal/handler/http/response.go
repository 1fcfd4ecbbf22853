package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/Planto/internal/notify"
	"github.com/utafrali/Planto/internal/service"
	"github.com/utafrali/Planto/internal/session"
	apperrors "github.com/utafrali/Planto/pkg/errors"
	"github.com/utafrali/Planto/pkg/httputil"
	"github.com/utafrali/Planto/pkg/logger"
	"github.com/utafrali/Planto/pkg/middleware"
	"github.com/utafrali/Planto/pkg/validator"
)

// loadError is the body of a failed catalog read.
type loadError struct {
	Message string `json:"message"`
}

// writeLoadError renders a catalog read failure as {message} with status 500.
func writeLoadError(w http.ResponseWriter, r *http.Request, message string, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	l.ErrorContext(r.Context(), message,
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
	)
	httputil.WriteJSON(w, http.StatusInternalServerError, loadError{Message: message})
}

// writeServiceError maps a service error to the envelope. Validation errors
// carry field details; denied storefront actions carry their notification.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, err)
		return
	}

	var denied *service.DeniedError
	if errors.As(err, &denied) {
		httputil.WriteErrorWithNotification(w, r,
			apperrors.Unauthorized(denied.Notification.Message), denied.Notification, fallback)
		return
	}

	httputil.WriteError(w, r, err, fallback)
}

// writeWithNotification writes data in the envelope, adding n when present.
func writeWithNotification(w http.ResponseWriter, status int, data any, n *notify.Notification) {
	resp := httputil.Response{Data: data}
	if n != nil {
		resp.Notification = n
	}
	httputil.WriteJSON(w, status, resp)
}

// principalFromRequest returns the signed-in shopper, or nil when anonymous.
func principalFromRequest(r *http.Request) *session.Principal {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil || claims.UserID == "" {
		return nil
	}
	return &session.Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}
}
