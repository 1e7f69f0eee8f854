package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medibook/medibook-platform/internal/api/respond"
	"github.com/medibook/medibook-platform/internal/http/middleware"
	"github.com/medibook/medibook-platform/internal/users"
	"github.com/medibook/medibook-platform/pkg/logging"
)

func testRouter(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	svc, _, _ := newTestService(t)
	h := NewHandler(svc, logging.New("error"))

	r := chi.NewRouter()
	r.Post("/appointments", h.Create)
	r.Get("/appointments", h.List)
	r.Get("/appointments/available/{doctorID}/{date}", h.Available)
	r.Get("/appointments/{id}", h.Get)
	r.Patch("/appointments/{id}/status", h.UpdateStatus)
	r.Delete("/appointments/{id}", h.Delete)
	return r, svc
}

func asActor(req *http.Request, id string, role users.Role) *http.Request {
	claims := middleware.ActorClaims{
		Role:             string(role),
		RegisteredClaims: jwt.RegisteredClaims{Subject: id},
	}
	return req.WithContext(middleware.ContextWithActor(req.Context(), claims))
}

func doJSON(t *testing.T, r chi.Router, req *http.Request) (*httptest.ResponseRecorder, respond.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var env respond.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

const bookBody = `{
	"doctorId": "doctor-1",
	"date": "2026-09-10",
	"timeSlot": {"startTime": "10:00", "endTime": "10:30"},
	"reason": "annual checkup"
}`

func TestCreateAppointmentEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody)), "patient-1", users.RolePatient)
	rec, env := doJSON(t, r, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Appointment booked successfully", env.Message)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "doctor-1", data["doctorId"])
	slot, ok := data["timeSlot"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "10:00", slot["startTime"])
	assert.Equal(t, "10:30", slot["endTime"])
}

func TestCreateAppointmentConflict(t *testing.T) {
	r, _ := testRouter(t)

	first := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody)), "patient-1", users.RolePatient)
	rec, _ := doJSON(t, r, first)
	require.Equal(t, http.StatusCreated, rec.Code)

	second := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody)), "patient-2", users.RolePatient)
	rec, env := doJSON(t, r, second)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Time slot not available", env.Message)
}

func TestCreateAppointmentRequiresPatient(t *testing.T) {
	r, _ := testRouter(t)

	anon := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody))
	rec, _ := doJSON(t, r, anon)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	doctor := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody)), "doctor-1", users.RoleDoctor)
	rec, _ = doJSON(t, r, doctor)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateAppointmentBadBody(t *testing.T) {
	r, _ := testRouter(t)

	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader("{not json")), "patient-1", users.RolePatient)
	rec, env := doJSON(t, r, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestCreateAppointmentBadSlotFormat(t *testing.T) {
	r, _ := testRouter(t)

	body := `{"doctorId":"doctor-1","date":"2026-09-10","timeSlot":{"startTime":"25:00","endTime":"26:00"}}`
	req := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)), "patient-1", users.RolePatient)
	rec, _ := doJSON(t, r, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailableEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	book := asActor(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody)), "patient-1", users.RolePatient)
	rec, _ := doJSON(t, r, book)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/appointments/available/doctor-1/2026-09-10", nil)
	rec, env := doJSON(t, r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]any)
	doctor := data["doctor"].(map[string]any)
	assert.Equal(t, "doctor-1", doctor["id"])
	assert.Equal(t, "Dr. Osei", doctor["name"])
	assert.Equal(t, "2026-09-10", data["date"])
	slots := data["availableSlots"].([]any)
	assert.Len(t, slots, 15)
}

func TestAvailableEndpointBadInputs(t *testing.T) {
	r, _ := testRouter(t)

	rec, _ := doJSON(t, r, httptest.NewRequest(http.MethodGet, "/appointments/available/doctor-1/10-09-2026", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, r, httptest.NewRequest(http.MethodGet, "/appointments/available/ghost/2026-09-10", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	r, svc := testRouter(t)

	appt, err := svc.Book(context.Background(), "patient-1", bookRequest())
	require.NoError(t, err)

	req := asActor(httptest.NewRequest(http.MethodPatch, "/appointments/"+appt.ID+"/status",
		strings.NewReader(`{"status":"confirmed","notes":"bring referral letter"}`)), "doctor-1", users.RoleDoctor)
	rec, env := doJSON(t, r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]any)
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, "bring referral letter", data["notes"])
}

func TestUpdateStatusEndpointErrors(t *testing.T) {
	r, svc := testRouter(t)

	appt, err := svc.Book(context.Background(), "patient-1", bookRequest())
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       string
		body     string
		actorID  string
		role     users.Role
		wantCode int
	}{
		{"patient cannot confirm", appt.ID, `{"status":"confirmed"}`, "patient-1", users.RolePatient, http.StatusBadRequest},
		{"foreign doctor", appt.ID, `{"status":"confirmed"}`, "doctor-9", users.RoleDoctor, http.StatusForbidden},
		{"unknown status", appt.ID, `{"status":"archived"}`, "doctor-1", users.RoleDoctor, http.StatusBadRequest},
		{"missing appointment", "nope", `{"status":"confirmed"}`, "doctor-1", users.RoleDoctor, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asActor(httptest.NewRequest(http.MethodPatch, "/appointments/"+tt.id+"/status",
				strings.NewReader(tt.body)), tt.actorID, tt.role)
			rec, env := doJSON(t, r, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestDeleteEndpoint(t *testing.T) {
	r, svc := testRouter(t)

	appt, err := svc.Book(context.Background(), "patient-1", bookRequest())
	require.NoError(t, err)

	foreign := asActor(httptest.NewRequest(http.MethodDelete, "/appointments/"+appt.ID, nil), "patient-2", users.RolePatient)
	rec, _ := doJSON(t, r, foreign)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	owner := asActor(httptest.NewRequest(http.MethodDelete, "/appointments/"+appt.ID, nil), "patient-1", users.RolePatient)
	rec, env := doJSON(t, r, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = doJSON(t, r, asActor(httptest.NewRequest(http.MethodDelete, "/appointments/"+appt.ID, nil), "patient-1", users.RolePatient))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEndpoint(t *testing.T) {
	r, svc := testRouter(t)

	_, err := svc.Book(context.Background(), "patient-1", bookRequest())
	require.NoError(t, err)

	req := asActor(httptest.NewRequest(http.MethodGet, "/appointments?status=pending", nil), "patient-1", users.RolePatient)
	rec, env := doJSON(t, r, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.Data.([]any), 1)

	other := asActor(httptest.NewRequest(http.MethodGet, "/appointments", nil), "patient-2", users.RolePatient)
	rec, env = doJSON(t, r, other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.Data.([]any))
}
