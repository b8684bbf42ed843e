package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/hints"
)

// errorResponse is the JSON body of every failed API call. Notice carries
// the text shown to the user when an import is rejected.
type errorResponse struct {
	Error  string `json:"error"`
	Notice string `json:"notice,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("writing response")
	}
}

// writeError maps an editor error to a status code and a JSON body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	switch {
	case errors.Is(err, mdpreview.ErrRejectedFile):
		resp.Notice = mdpreview.RejectedNotice
	case errors.Is(err, mdpreview.ErrBrowserConnect):
		resp.Hint = hints.ForBrowserConnect(hints.CurrentHost())
	case errors.Is(err, context.DeadlineExceeded):
		resp.Hint = hints.ForTimeout()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	s.writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mdpreview.ErrRejectedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, mdpreview.ErrImportRead):
		return http.StatusBadRequest
	case errors.Is(err, mdpreview.ErrUnknownBlock):
		return http.StatusNotFound
	case errors.Is(err, mdpreview.ErrEditorClosed),
		errors.Is(err, mdpreview.ErrPrinterClosed),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, mdpreview.ErrBrowserConnect),
		errors.Is(err, mdpreview.ErrPageCreate),
		errors.Is(err, mdpreview.ErrPageLoad),
		errors.Is(err, mdpreview.ErrPDFGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
