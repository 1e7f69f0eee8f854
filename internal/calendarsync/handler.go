package calendarsync

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/medibook-platform/internal/api/respond"
	"github.com/medibook/medibook-platform/internal/appointments"
	"github.com/medibook/medibook-platform/internal/http/middleware"
	"github.com/medibook/medibook-platform/internal/users"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// AppointmentSource is the slice of the appointments service the exporter
// needs: fetch one appointment on the actor's behalf.
type AppointmentSource interface {
	Get(ctx context.Context, id string, actor appointments.Actor) (*appointments.Appointment, error)
}

// DoctorDirectory resolves doctor names for event summaries.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Handler serves appointment .ics downloads.
type Handler struct {
	source  AppointmentSource
	doctors DoctorDirectory
	logger  *logging.Logger
}

// NewHandler creates a new calendar export handler.
func NewHandler(source AppointmentSource, doctors DoctorDirectory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{source: source, doctors: doctors, logger: logger}
}

// Export handles GET /appointments/{id}/calendar.ics.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ActorFromContext(r.Context())
	if !ok || claims.Subject == "" {
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	actor := appointments.Actor{ID: claims.Subject, Role: users.Role(claims.Role)}

	appt, err := h.source.Get(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			respond.Fail(w, http.StatusNotFound, err.Error())
		case errors.Is(err, appointments.ErrAccessDenied):
			respond.Fail(w, http.StatusForbidden, err.Error())
		default:
			h.logger.Error("calendar export failed", "error", err)
			respond.Fail(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	doctorName := ""
	if doctor, err := h.doctors.GetByID(r.Context(), appt.DoctorID); err == nil {
		doctorName = doctor.Name
	}

	body := Render(FromAppointment(appt, doctorName))

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointment.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
