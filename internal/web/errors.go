package web

// errors.go turns errors into responses.
//
// Every failure is logged with the request ID and answered with the mapped
// user message and code: a JSON body for the API, an alert fragment for
// partial page requests, plain text otherwise.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/locgrid/internal/core"
	"github.com/JonMunkholm/locgrid/internal/logging"
	"github.com/JonMunkholm/locgrid/internal/translate"
	"github.com/JonMunkholm/locgrid/internal/web/templates"
)

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Action    string   `json:"action,omitempty"`
	Code      string   `json:"code"`
	Files     []string `json:"files,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// fail responds with the status that fits err.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// respondError logs err and writes the user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	requestID := middleware.GetReqID(r.Context())

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		writeJSONStatus(w, statusCode, ErrorResponse{
			Error:     err.Error(),
			Message:   userMsg.Message,
			Action:    userMsg.Action,
			Code:      userMsg.Code,
			Files:     failedFiles(err),
			RequestID: requestID,
		})
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

// statusFor maps errors to HTTP status codes.
func statusFor(err error) int {
	var (
		tooLarge *core.FileTooLargeError
		maxBytes *http.MaxBytesError
		apiErr   *translate.APIError
		reqErr   *requestError
	)
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, core.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStaleSession):
		return http.StatusConflict
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyLoads):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNoTranslator), errors.Is(err, core.ErrFoldersDisabled):
		return http.StatusNotImplemented
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case core.IsUserFacing(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// failedFiles lists the files named by a load failure.
func failedFiles(err error) []string {
	var tooLarge *core.FileTooLargeError
	if errors.As(err, &tooLarge) {
		return tooLarge.Names
	}
	var loadErr *core.LoadError
	if errors.As(err, &loadErr) {
		names := make([]string, len(loadErr.Failures))
		for i, f := range loadErr.Failures {
			names[i] = f.Name
		}
		return names
	}
	return nil
}

func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client expects a JSON error. API routes
// always do.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// decodeJSON reads a bounded JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &requestError{err: err}
	}
	return nil
}

const maxJSONBody = 1 << 20

// requestError is a malformed request body.
type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return "invalid request: " + e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}
