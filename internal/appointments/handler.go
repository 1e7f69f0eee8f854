package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/medibook-platform/internal/api/respond"
	"github.com/medibook/medibook-platform/internal/http/middleware"
	"github.com/medibook/medibook-platform/internal/timeslot"
	"github.com/medibook/medibook-platform/internal/users"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

func actorFromRequest(r *http.Request) (Actor, bool) {
	claims, ok := middleware.ActorFromContext(r.Context())
	if !ok || claims.Subject == "" {
		return Actor{}, false
	}
	role := users.Role(claims.Role)
	if !role.Valid() {
		return Actor{}, false
	}
	return Actor{ID: claims.Subject, Role: role}, true
}

// statusFor maps service errors onto the HTTP status classes: bad input is
// 400, unknown resources 404, ownership failures 403, held slots 409, and
// anything unrecognized 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrDurationMismatch),
		errors.Is(err, ErrPastDate),
		errors.Is(err, ErrSelfBooking),
		errors.Is(err, ErrNoAvailability),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrPatientTransition),
		errors.Is(err, ErrDoctorTransition),
		errors.Is(err, ErrTerminalStatus),
		errors.Is(err, ErrNotPending),
		errors.Is(err, timeslot.ErrBadTimeFormat),
		errors.Is(err, timeslot.ErrInvalidInterval),
		errors.Is(err, timeslot.ErrOutOfDay):
		return http.StatusBadRequest
	case errors.Is(err, ErrAppointmentNotFound), errors.Is(err, ErrDoctorNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrSlotTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	switch {
	case status == http.StatusInternalServerError:
		h.logger.Error("appointment request failed", "error", err)
		respond.Fail(w, status, "internal server error")
	case errors.Is(err, ErrSlotTaken):
		respond.Fail(w, status, "Time slot not available")
	default:
		respond.Fail(w, status, err.Error())
	}
}

// Create handles POST /appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if actor.Role != users.RolePatient {
		respond.Fail(w, http.StatusForbidden, "only patients can book appointments")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if status := statusFor(err); status != http.StatusInternalServerError {
			respond.Fail(w, status, err.Error())
			return
		}
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, err := h.svc.Book(r.Context(), actor.ID, &req)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"date", appt.Date.Format(time.DateOnly),
		"slot", appt.Slot.String())
	respond.JSON(w, http.StatusCreated, "Appointment booked successfully", appt)
}

// AvailableSlotsResponse is the payload for the availability endpoint.
type AvailableSlotsResponse struct {
	Date           string              `json:"date"`
	Doctor         DoctorSummary       `json:"doctor"`
	AvailableSlots []timeslot.Interval `json:"availableSlots"`
}

// DoctorSummary is the doctor reference embedded in availability responses.
type DoctorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Available handles GET /appointments/available/{doctorID}/{date}.
func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	dateStr := chi.URLParam(r, "date")

	date, err := time.ParseInLocation(time.DateOnly, dateStr, time.UTC)
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	doctor, slots, err := h.svc.AvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		h.fail(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "", AvailableSlotsResponse{
		Date:           dateStr,
		Doctor:         DoctorSummary{ID: doctor.ID, Name: doctor.Name},
		AvailableSlots: slots,
	})
}

type updateStatusRequest struct {
	Status Status `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateStatus handles PATCH /appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.Notes, actor)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info("appointment status updated",
		"appointment_id", appt.ID,
		"status", appt.Status,
		"actor_role", actor.Role)
	respond.JSON(w, http.StatusOK, "Appointment status updated", appt)
}

// Delete handles DELETE /appointments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		h.fail(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "Appointment deleted", nil)
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	appt, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		h.fail(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "", appt)
}

// List handles GET /appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := 50
	offset := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}

	appts, err := h.svc.List(r.Context(), actor, Status(r.URL.Query().Get("status")), limit, offset)
	if err != nil {
		h.fail(w, err)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}

	respond.JSON(w, http.StatusOK, "", appts)
}
