package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edtech-syndicate/membership-portal/internal/auth"
	"github.com/edtech-syndicate/membership-portal/internal/config"
	"github.com/edtech-syndicate/membership-portal/internal/kv"
	"github.com/edtech-syndicate/membership-portal/internal/repository"
	"github.com/edtech-syndicate/membership-portal/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := kv.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	usersRepo := repository.NewUsersRepository(store)
	appsRepo := repository.NewApplicationsRepository(store)

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte("test-secret-key-at-least-32-chars!!"),
		Issuer: "membership-portal",
		TTL:    time.Hour,
	})
	identitySvc := auth.NewIdentityService(usersRepo, tokens, "admin@example.com")
	appSvc := service.NewApplicationService(logger, appsRepo, nil)

	router := NewRouter(RouterConfig{
		Logger:             logger,
		IdentityService:    identitySvc,
		ApplicationService: appSvc,
		TokenTTL:           time.Hour,
		RateLimit:          config.RateLimitConfig{Enabled: false},
		SecurityHeaders:    config.SecurityHeadersConfig{Enabled: false},
		MaxRequestBodySize: 1 << 20,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}

	var parsed map[string]json.RawMessage
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(data) > 0 {
		// Array responses parse into nil; callers re-decode as needed.
		_ = json.Unmarshal(data, &parsed)
	}
	return resp, parsed
}

func signupAndLogin(t *testing.T, srv *httptest.Server, email, name string) (userID, token string) {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/signup", "", map[string]string{
		"email": email, "password": "s3cret-passw0rd", "name": name,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/login", "", map[string]string{
		"email": email, "password": "s3cret-passw0rd",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	var tok string
	if err := json.Unmarshal(body["access_token"], &tok); err != nil {
		t.Fatalf("no access_token in login response: %v", err)
	}
	var user struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body["user"], &user); err != nil {
		t.Fatalf("no user in login response: %v", err)
	}
	return user.ID, tok
}

func validSubmission() map[string]interface{} {
	return map[string]interface{}{
		"fullName":        "Maria Santos",
		"email":           "maria@example.com",
		"phone":           "+1 555 0100",
		"position":        "Curriculum Lead",
		"organization":    "Northside Academy",
		"yearsExperience": "8",
		"education":       "MEd",
		"specialization":  "STEM education",
		"motivation":      "Expand access to project-based learning.",
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var status string
	json.Unmarshal(body["status"], &status)
	if status != "healthy" {
		t.Errorf("status = %q, want %q", status, "healthy")
	}
	if _, ok := body["timestamp"]; !ok {
		t.Error("health response missing timestamp")
	}
}

// Full lifecycle: signup, submit, fetch, admin approve, fetch again.
func TestApplicationLifecycle(t *testing.T) {
	srv := newTestServer(t)

	userID, userToken := signupAndLogin(t, srv, "maria@example.com", "Maria Santos")
	_, adminToken := signupAndLogin(t, srv, "admin@example.com", "Admin")

	// Submit
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/application", userToken, validSubmission())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d, want 200", resp.StatusCode)
	}
	var appID string
	if err := json.Unmarshal(body["applicationId"], &appID); err != nil || appID == "" {
		t.Fatalf("submit response missing applicationId: %v", err)
	}

	// Fetch shows pending
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/application/"+userID, userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	var status string
	json.Unmarshal(body["status"], &status)
	if status != "pending" {
		t.Errorf("status = %q, want %q", status, "pending")
	}

	// Duplicate submit conflicts
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/application", userToken, validSubmission())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate submit status = %d, want 409", resp.StatusCode)
	}
	var existingID string
	json.Unmarshal(body["existingApplicationId"], &existingID)
	if existingID != appID {
		t.Errorf("existingApplicationId = %q, want %q", existingID, appID)
	}

	// Admin list includes the application
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/admin/applications", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	listResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	defer listResp.Body.Close()
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("admin list status = %d, want 200", listResp.StatusCode)
	}
	var apps []map[string]interface{}
	if err := json.NewDecoder(listResp.Body).Decode(&apps); err != nil {
		t.Fatalf("decode admin list: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("len(apps) = %d, want 1", len(apps))
	}

	// Approve
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/admin/application/"+appID+"/approve", adminToken,
		map[string]string{"expiryDate": "2026-01-01"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d, want 200", resp.StatusCode)
	}
	var app struct {
		Status           string `json:"status"`
		MembershipNumber string `json:"membershipNumber"`
		ExpiryDate       string `json:"expiryDate"`
	}
	if err := json.Unmarshal(body["application"], &app); err != nil {
		t.Fatalf("approve response missing application: %v", err)
	}
	if app.Status != "approved" {
		t.Errorf("status = %q, want %q", app.Status, "approved")
	}
	if !strings.HasPrefix(app.MembershipNumber, "EDU") {
		t.Errorf("membershipNumber = %q, want EDU prefix", app.MembershipNumber)
	}
	if app.ExpiryDate != "2026-01-01" {
		t.Errorf("expiryDate = %q, want %q", app.ExpiryDate, "2026-01-01")
	}

	// Fetch now shows approved
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/application/"+userID, userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	json.Unmarshal(body["status"], &status)
	if status != "approved" {
		t.Errorf("status after approve = %q, want %q", status, "approved")
	}

	// Member card reflects approval
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/member/card", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("card status = %d, want 200", resp.StatusCode)
	}
	var cardNumber string
	json.Unmarshal(body["membershipNumber"], &cardNumber)
	if !strings.HasPrefix(cardNumber, "EDU") {
		t.Errorf("card membershipNumber = %q, want EDU prefix", cardNumber)
	}
}

func TestMemberCard_ExpiredMembership(t *testing.T) {
	srv := newTestServer(t)

	userID, userToken := signupAndLogin(t, srv, "maria@example.com", "Maria Santos")
	_, adminToken := signupAndLogin(t, srv, "admin@example.com", "Admin")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/application", userToken, validSubmission())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d, want 200", resp.StatusCode)
	}
	var appID string
	json.Unmarshal(body["applicationId"], &appID)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/admin/application/"+appID+"/approve", adminToken,
		map[string]string{"expiryDate": "2020-01-01"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d, want 200", resp.StatusCode)
	}

	// The card derives expiry at read time.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/member/card", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("card status = %d, want 200", resp.StatusCode)
	}
	var status string
	json.Unmarshal(body["status"], &status)
	if status != "expired" {
		t.Errorf("card status = %q, want %q", status, "expired")
	}

	// The stored record keeps its reviewed status.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/application/"+userID, userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	json.Unmarshal(body["status"], &status)
	if status != "approved" {
		t.Errorf("stored status = %q, want %q", status, "approved")
	}
}

func TestReject(t *testing.T) {
	srv := newTestServer(t)

	_, userToken := signupAndLogin(t, srv, "maria@example.com", "Maria Santos")
	_, adminToken := signupAndLogin(t, srv, "admin@example.com", "Admin")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/application", userToken, validSubmission())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d, want 200", resp.StatusCode)
	}
	var appID string
	json.Unmarshal(body["applicationId"], &appID)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/admin/application/"+appID+"/reject", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject status = %d, want 200", resp.StatusCode)
	}
	var app struct {
		Status     string `json:"status"`
		ExpiryDate string `json:"expiryDate"`
	}
	json.Unmarshal(body["application"], &app)
	if app.Status != "rejected" {
		t.Errorf("status = %q, want %q", app.Status, "rejected")
	}
	if app.ExpiryDate != "" {
		t.Errorf("expiryDate = %q, want unset", app.ExpiryDate)
	}
}

func TestSubmit_MissingFieldsResponse(t *testing.T) {
	srv := newTestServer(t)
	_, userToken := signupAndLogin(t, srv, "maria@example.com", "Maria Santos")

	submission := validSubmission()
	delete(submission, "phone")
	delete(submission, "motivation")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/application", userToken, submission)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var missing []string
	if err := json.Unmarshal(body["missingFields"], &missing); err != nil {
		t.Fatalf("response missing missingFields: %v", err)
	}
	if len(missing) != 2 || missing[0] != "phone" || missing[1] != "motivation" {
		t.Errorf("missingFields = %v, want [phone motivation]", missing)
	}
}

func TestAuthz(t *testing.T) {
	srv := newTestServer(t)
	_, userToken := signupAndLogin(t, srv, "maria@example.com", "Maria Santos")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"no token on submit", http.MethodPost, "/v1/application", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/v1/application/u1", "garbage", http.StatusUnauthorized},
		{"no token on admin list", http.MethodGet, "/v1/admin/applications", "", http.StatusUnauthorized},
		{"member on admin list", http.MethodGet, "/v1/admin/applications", userToken, http.StatusForbidden},
		{"member on approve", http.MethodPost, "/v1/admin/application/x/approve", userToken, http.StatusForbidden},
		{"member on reject", http.MethodPost, "/v1/admin/application/x/reject", userToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, tt.method, srv.URL+tt.path, tt.token, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			// Never leak record data on rejection.
			if _, ok := body["application"]; ok {
				t.Error("response leaked application data")
			}
		})
	}
}

func TestAdmin_ApproveValidation(t *testing.T) {
	srv := newTestServer(t)
	_, adminToken := signupAndLogin(t, srv, "admin@example.com", "Admin")

	// Missing expiry date
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/admin/application/some-id/approve", adminToken,
		map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	// Unknown id
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/admin/application/no-such-id/approve", adminToken,
		map[string]string{"expiryDate": "2026-01-01"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/admin/application/no-such-id/reject", adminToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSignup_Validation(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/signup", "", map[string]string{
		"email": "x@example.com",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	signupAndLogin(t, srv, "dup@example.com", "Dup")
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/auth/signup", "", map[string]string{
		"email": "dup@example.com", "password": "pw", "name": "Dup Again",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", resp.StatusCode)
	}
}
