package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Sonukamble/TodoApp/internal/views"
	"go.uber.org/zap"
)

const (
	loginPath = "/auth"
	homePath  = "/"

	msgAuthenticationFailed = "Incorrect Username and password"
	msgUnknownError         = "Unknown Error"
)

// Renderer writes an HTML page
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data *views.PageData) error
}

type BaseHandler struct {
	logger *zap.Logger
	views  Renderer
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// render sends an HTML page. Nothing has been written when Render fails, so a plain 500 is still possible.
func (h *BaseHandler) render(w http.ResponseWriter, status int, page string, data *views.PageData) {
	if err := h.views.Render(w, status, page, data); err != nil {
		h.logger.Error("failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, msgUnknownError, http.StatusInternalServerError)
	}
}

// redirect sends a 302 to path
func (h *BaseHandler) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusFound)
}
