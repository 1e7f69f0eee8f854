package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/medibook-platform/internal/api/respond"
	"github.com/medibook/medibook-platform/internal/http/middleware"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// Handler handles HTTP requests for the in-app notification inbox.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new notifications handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

func userFromRequest(r *http.Request) (string, bool) {
	claims, ok := middleware.ActorFromContext(r.Context())
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// List handles GET /notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	items, err := h.repo.ListForUser(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		h.logger.Error("notification list failed", "user_id", userID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if items == nil {
		items = []*Notification{}
	}
	respond.JSON(w, http.StatusOK, "", items)
}

// MarkRead handles PATCH /notifications/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	n, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			respond.Fail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("notification fetch failed", "id", id, "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n.UserID != userID {
		respond.Fail(w, http.StatusForbidden, ErrNotOwner.Error())
		return
	}

	if err := h.repo.MarkRead(r.Context(), id); err != nil {
		h.logger.Error("mark read failed", "id", id, "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllRead handles POST /notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	count, err := h.repo.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.logger.Error("mark all read failed", "user_id", userID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, "All notifications marked as read", map[string]int{"updated": count})
}
