package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmrelampagos/pagereply/internal/store"
)

// AdminHandler exposes key-protected resets of per-subject state. These are
// thin wrappers over the store; no engagement logic lives here.
type AdminHandler struct {
	repo     store.Repository
	resetKey string
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(repo store.Repository, resetKey string) *AdminHandler {
	return &AdminHandler{
		repo:     repo,
		resetKey: resetKey,
	}
}

// RegisterRoutes mounts the admin endpoints on the router.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/reset", h.ResetOne)
	r.Get("/admin/reset-all", h.ResetAll)
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	return h.resetKey != "" && r.URL.Query().Get("key") == h.resetKey
}

// ResetOne clears the engagement state for one subject so it will be
// onboarded again on its next message.
func (h *AdminHandler) ResetOne(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		Error(w, http.StatusForbidden, "invalid key")
		return
	}

	subjectID := r.URL.Query().Get("psid")
	if subjectID == "" {
		Error(w, http.StatusBadRequest, "no PSID provided")
		return
	}

	existed, err := h.repo.DeleteState(r.Context(), subjectID)
	if err != nil {
		slog.Error("Admin reset failed", "subject_id", subjectID, "error", err)
		Error(w, http.StatusInternalServerError, "reset failed")
		return
	}

	slog.Info("Admin reset", "subject_id", subjectID, "existed", existed)
	JSON(w, http.StatusOK, map[string]interface{}{
		"subject_id": subjectID,
		"existed":    existed,
	})
}

// ResetAll clears all engagement state.
func (h *AdminHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		Error(w, http.StatusForbidden, "invalid key")
		return
	}

	cleared, err := h.repo.Clear(r.Context())
	if err != nil {
		slog.Error("Admin reset-all failed", "error", err)
		Error(w, http.StatusInternalServerError, "reset failed")
		return
	}

	slog.Info("Admin reset-all", "cleared", cleared)
	JSON(w, http.StatusOK, map[string]interface{}{"cleared": cleared})
}
