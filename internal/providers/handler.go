package providers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/medibook-platform/internal/api/respond"
	"github.com/medibook/medibook-platform/internal/http/middleware"
	"github.com/medibook/medibook-platform/internal/schedule"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// Handler handles HTTP requests for provider profiles and availability
// templates.
type Handler struct {
	repo      Repository
	templates schedule.TemplateStore
	logger    *logging.Logger
}

// NewHandler creates a new providers handler.
func NewHandler(repo Repository, templates schedule.TemplateStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, templates: templates, logger: logger}
}

func doctorFromRequest(r *http.Request) (string, bool) {
	claims, ok := middleware.ActorFromContext(r.Context())
	if !ok || claims.Subject == "" {
		return "", false
	}
	if claims.Role != "doctor" {
		return "", false
	}
	return claims.Subject, true
}

// UpsertMe handles PUT /providers/me.
func (h *Handler) UpsertMe(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := doctorFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusForbidden, "doctor account required")
		return
	}

	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	profile := &Profile{
		DoctorID:        doctorID,
		Specialty:       req.Specialty,
		Bio:             req.Bio,
		YearsExperience: req.YearsExperience,
		FeeCents:        req.FeeCents,
		Languages:       req.Languages,
		Location:        req.Location,
	}
	if err := h.repo.Upsert(r.Context(), profile); err != nil {
		h.logger.Error("profile upsert failed", "doctor_id", doctorID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("provider profile updated", "doctor_id", doctorID, "specialty", profile.Specialty)
	respond.JSON(w, http.StatusOK, "Profile updated", profile)
}

// Get handles GET /providers/{doctorID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.repo.GetByDoctorID(r.Context(), chi.URLParam(r, "doctorID"))
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			respond.Fail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("profile fetch failed", "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, "", profile)
}

// List handles GET /providers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := SearchFilter{
		Specialty: r.URL.Query().Get("specialty"),
		Location:  r.URL.Query().Get("location"),
		Language:  r.URL.Query().Get("language"),
		Limit:     50,
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			filter.Limit = n
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	profiles, err := h.repo.Search(r.Context(), filter)
	if err != nil {
		h.logger.Error("profile search failed", "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if profiles == nil {
		profiles = []*Profile{}
	}
	respond.JSON(w, http.StatusOK, "", profiles)
}

// PutAvailability handles PUT /providers/me/availability: it replaces the
// doctor's weekly template. Days left out of the body become unavailable.
func (h *Handler) PutAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := doctorFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusForbidden, "doctor account required")
		return
	}

	var tpl schedule.WeeklyTemplate
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tpl.DoctorID = doctorID

	if err := tpl.Validate(); err != nil {
		respond.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.templates.Set(r.Context(), &tpl); err != nil {
		h.logger.Error("availability update failed", "doctor_id", doctorID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("availability template updated", "doctor_id", doctorID)
	respond.JSON(w, http.StatusOK, "Availability updated", tpl)
}

// GetAvailability handles GET /providers/me/availability.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := doctorFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusForbidden, "doctor account required")
		return
	}

	tpl, err := h.templates.Get(r.Context(), doctorID)
	if err != nil {
		h.logger.Error("availability fetch failed", "doctor_id", doctorID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if tpl == nil {
		tpl = &schedule.WeeklyTemplate{DoctorID: doctorID}
	}
	respond.JSON(w, http.StatusOK, "", tpl)
}
