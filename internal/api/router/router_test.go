package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medibook/medibook-platform/internal/appointments"
	"github.com/medibook/medibook-platform/internal/calendarsync"
	httpmiddleware "github.com/medibook/medibook-platform/internal/http/middleware"
	"github.com/medibook/medibook-platform/internal/notifications"
	"github.com/medibook/medibook-platform/internal/providers"
	"github.com/medibook/medibook-platform/internal/schedule"
	"github.com/medibook/medibook-platform/internal/timeslot"
	"github.com/medibook/medibook-platform/internal/users"
	"github.com/medibook/medibook-platform/pkg/logging"
)

const testJWTSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	userRepo := users.NewInMemoryRepository()
	seedUser(t, userRepo, &users.User{ID: "doctor-1", Name: "Dr. Mensah", Email: "mensah@example.com", Role: users.RoleDoctor})
	seedUser(t, userRepo, &users.User{ID: "patient-1", Name: "Ama Owusu", Email: "ama@example.com", Role: users.RolePatient})

	templates := schedule.NewMemoryTemplateStore()
	calendar := schedule.NewCalendar(templates, timeslot.Interval{}, logger)

	apptRepo := appointments.NewInMemoryRepository()
	svc := appointments.NewService(apptRepo, calendar, userRepo, logger)

	providerRepo := providers.NewInMemoryRepository()
	notifRepo := notifications.NewInMemoryRepository()

	cfg := &Config{
		Logger:               logger,
		AppointmentsHandler:  appointments.NewHandler(svc, logger),
		ProvidersHandler:     providers.NewHandler(providerRepo, templates, logger),
		NotificationsHandler: notifications.NewHandler(notifRepo, logger),
		CalendarHandler:      calendarsync.NewHandler(svc, userRepo, logger),
		JWTSecret:            testJWTSecret,
	}

	return New(cfg)
}

func seedUser(t *testing.T, repo *users.InMemoryRepository, u *users.User) {
	t.Helper()
	if _, err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", u.ID, err)
	}
}

func actorToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := httpmiddleware.ActorClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if !resp.Success || resp.Message != "ok" {
		t.Errorf("unexpected health payload: %+v", resp)
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{"/appointments", "/notifications", "/providers/me/availability"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: expected status %d, got %d", target, http.StatusUnauthorized, rr.Code)
		}
	}
}

func TestRouterProviderDirectoryIsPublic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/providers", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterBookingFlow(t *testing.T) {
	router := newTestRouter(t)

	body := `{
		"doctorId": "doctor-1",
		"date": "2099-04-15",
		"timeSlot": {"startTime": "10:00", "endTime": "10:30"},
		"appointmentType": "consultation",
		"reason": "annual checkup"
	}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+actorToken(t, "patient-1", "patient"))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	availReq := httptest.NewRequest(http.MethodGet, "/appointments/available/doctor-1/2099-04-15", nil)
	availReq.Header.Set("Authorization", "Bearer "+actorToken(t, "patient-1", "patient"))
	availRR := httptest.NewRecorder()

	router.ServeHTTP(availRR, availReq)

	if availRR.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, availRR.Code, availRR.Body.String())
	}
	if strings.Contains(availRR.Body.String(), `"startTime":"10:00"`) {
		t.Errorf("booked slot should not be offered again: %s", availRR.Body.String())
	}
}
