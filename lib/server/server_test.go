// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jobfunnel/jobfunnel/lib/api"
)

func newTestServer(t *testing.T, config Config) (*httptest.Server, *Store) {
	t.Helper()
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	server := httptest.NewServer(New(store, config))
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return server, store
}

func devServer(t *testing.T) (*httptest.Server, api.User) {
	t.Helper()
	server, store := newTestServer(t, Config{
		FrontendOrigin: "http://localhost:5173",
		DevMode:        true,
	})
	user, err := store.CreateUser("dev@example.com", nil, nil, nil)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return server, user
}

// devRequest performs a request authenticated via the dev header and
// decodes the JSON response into result (when non-nil).
func devRequest(t *testing.T, server *httptest.Server, userID int, method, path string, payload, result any) *http.Response {
	t.Helper()
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			t.Fatalf("encoding payload: %v", err)
		}
	}
	request, err := http.NewRequest(method, server.URL+path, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		request.Header.Set("X-User-Id", fmt.Sprintf("%d", userID))
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { response.Body.Close() })
	if result != nil {
		if err := json.NewDecoder(response.Body).Decode(result); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return response
}

func TestHealth(t *testing.T) {
	server, _ := devServer(t)
	var status map[string]string
	response := devRequest(t, server, 0, http.MethodGet, "/health", nil, &status)
	if response.StatusCode != http.StatusOK || status["status"] != "ok" {
		t.Errorf("health = %d %v", response.StatusCode, status)
	}
}

func TestStagesListsSeededCatalog(t *testing.T) {
	server, _ := devServer(t)
	var stages api.Stages
	response := devRequest(t, server, 0, http.MethodGet, "/stages", nil, &stages)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("GET /stages = %d", response.StatusCode)
	}
	if len(stages) != 8 || stages[0].Name != "Applied" {
		t.Errorf("stages = %+v", stages)
	}
}

func TestUnauthenticatedRequestsGet401Detail(t *testing.T) {
	server, _ := devServer(t)
	for _, path := range []string{"/me", "/jobs", "/metrics"} {
		var body map[string]string
		response := devRequest(t, server, 0, http.MethodGet, path, nil, &body)
		if response.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", path, response.StatusCode)
		}
		if body["detail"] != "Not authenticated." {
			t.Errorf("GET %s detail = %q", path, body["detail"])
		}
	}
}

func TestDevHeaderResolvesUser(t *testing.T) {
	server, user := devServer(t)
	var me api.User
	response := devRequest(t, server, user.ID, http.MethodGet, "/me", nil, &me)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("GET /me = %d", response.StatusCode)
	}
	if me.Email != "dev@example.com" {
		t.Errorf("me = %+v", me)
	}
}

func TestDevHeaderIgnoredOutsideDevMode(t *testing.T) {
	server, store := newTestServer(t, Config{FrontendOrigin: "http://localhost:5173"})
	user, err := store.CreateUser("dev@example.com", nil, nil, nil)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	response := devRequest(t, server, user.ID, http.MethodGet, "/me", nil, nil)
	if response.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /me with dev header = %d, want 401", response.StatusCode)
	}
}

func TestLoginSessionCookieRoundTrip(t *testing.T) {
	server, _ := devServer(t)
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	response, err := client.Get(server.URL + "/auth/login?email=new@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusFound {
		t.Fatalf("login = %d, want redirect to the frontend", response.StatusCode)
	}
	if location := response.Header.Get("Location"); location != "http://localhost:5173" {
		t.Errorf("redirect location = %q", location)
	}

	var session *http.Cookie
	for _, cookie := range response.Cookies() {
		if cookie.Name == sessionCookie {
			session = cookie
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("login did not set a session cookie")
	}

	request, _ := http.NewRequest(http.MethodGet, server.URL+"/me", nil)
	request.AddCookie(session)
	meResponse, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("GET /me: %v", err)
	}
	defer meResponse.Body.Close()
	var me api.User
	if err := json.NewDecoder(meResponse.Body).Decode(&me); err != nil {
		t.Fatalf("decoding /me: %v", err)
	}
	if me.Email != "new@example.com" {
		t.Errorf("me = %+v", me)
	}

	logoutRequest, _ := http.NewRequest(http.MethodPost, server.URL+"/auth/logout", nil)
	logoutRequest.AddCookie(session)
	logoutResponse, err := http.DefaultClient.Do(logoutRequest)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	logoutResponse.Body.Close()

	retryRequest, _ := http.NewRequest(http.MethodGet, server.URL+"/me", nil)
	retryRequest.AddCookie(session)
	retryResponse, err := http.DefaultClient.Do(retryRequest)
	if err != nil {
		t.Fatalf("GET /me after logout: %v", err)
	}
	retryResponse.Body.Close()
	if retryResponse.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /me after logout = %d, want 401", retryResponse.StatusCode)
	}
}

func TestLoginDisabledOutsideDevMode(t *testing.T) {
	server, _ := newTestServer(t, Config{FrontendOrigin: "http://localhost:5173"})
	response, err := http.Get(server.URL + "/auth/login?email=x@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusInternalServerError {
		t.Errorf("login outside dev mode = %d, want 500", response.StatusCode)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	server, _ := devServer(t)
	var body map[string]string
	response := devRequest(t, server, 0, http.MethodPost, "/users",
		map[string]string{"email": "dev@example.com"}, &body)
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate user = %d, want 400", response.StatusCode)
	}
	if !strings.Contains(body["detail"], "already registered") {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestCreateJobDefaultsToAppliedWithStamp(t *testing.T) {
	server, user := devServer(t)

	var created api.JobRecord
	response := devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]string{"company": "Acme", "position": "Go Engineer"}, &created)
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("POST /jobs = %d", response.StatusCode)
	}
	if created.StageID != 1 {
		t.Errorf("stage_id = %d, want the Applied stage", created.StageID)
	}
	if created.AppliedAt == nil {
		t.Error("applied_at should default to now")
	}
	if created.UserID != user.ID {
		t.Errorf("user_id = %d, want %d", created.UserID, user.ID)
	}
}

func TestCreateJobValidation(t *testing.T) {
	server, user := devServer(t)

	response := devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]string{"company": "Acme"}, nil)
	if response.StatusCode != http.StatusBadRequest {
		t.Errorf("missing position = %d, want 400", response.StatusCode)
	}

	var body map[string]string
	response = devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]any{"company": "Acme", "position": "Go Engineer", "stage_id": 99}, &body)
	if response.StatusCode != http.StatusBadRequest {
		t.Errorf("bad stage_id = %d, want 400", response.StatusCode)
	}
	if body["detail"] != "Invalid stage_id." {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestPatchStampsFirstStageEntry(t *testing.T) {
	server, user := devServer(t)

	var created api.JobRecord
	devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]string{"company": "Acme", "position": "Go Engineer"}, &created)

	jobPath := fmt.Sprintf("/jobs/%d", created.ID)

	var moved api.JobRecord
	response := devRequest(t, server, user.ID, http.MethodPatch, jobPath,
		map[string]int{"stage_id": 3}, &moved)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("PATCH = %d", response.StatusCode)
	}
	if moved.StageID != 3 {
		t.Errorf("stage_id = %d, want 3", moved.StageID)
	}
	if moved.ScreeningAt == nil {
		t.Fatal("entering Screening should stamp screening_at")
	}
	firstEntry := *moved.ScreeningAt

	// Bounce out and back; the first entry time stays.
	devRequest(t, server, user.ID, http.MethodPatch, jobPath, map[string]int{"stage_id": 1}, nil)
	var returned api.JobRecord
	devRequest(t, server, user.ID, http.MethodPatch, jobPath, map[string]int{"stage_id": 3}, &returned)
	if returned.ScreeningAt == nil || *returned.ScreeningAt != firstEntry {
		t.Errorf("screening_at = %v, want first entry %q preserved", returned.ScreeningAt, firstEntry)
	}
}

func TestPatchExplicitTimestampWins(t *testing.T) {
	server, user := devServer(t)

	var created api.JobRecord
	devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]string{"company": "Acme", "position": "Go Engineer"}, &created)

	explicit := "2026-08-15T09:00:00Z"
	var moved api.JobRecord
	devRequest(t, server, user.ID, http.MethodPatch, fmt.Sprintf("/jobs/%d", created.ID),
		map[string]any{"stage_id": 2, "hr_response_at": explicit}, &moved)
	if moved.HRResponseAt == nil || *moved.HRResponseAt != explicit {
		t.Errorf("hr_response_at = %v, want the explicit %q", moved.HRResponseAt, explicit)
	}
}

func TestPatchEnforcesOwnership(t *testing.T) {
	server, user := devServer(t)

	var created api.JobRecord
	devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]string{"company": "Acme", "position": "Go Engineer"}, &created)

	var other api.User
	devRequest(t, server, 0, http.MethodPost, "/users",
		map[string]string{"email": "other@example.com"}, &other)

	response := devRequest(t, server, other.ID, http.MethodPatch,
		fmt.Sprintf("/jobs/%d", created.ID), map[string]string{"company": "Stolen"}, nil)
	if response.StatusCode != http.StatusForbidden {
		t.Errorf("foreign patch = %d, want 403", response.StatusCode)
	}

	response = devRequest(t, server, user.ID, http.MethodPatch, "/jobs/9999",
		map[string]string{"company": "x"}, nil)
	if response.StatusCode != http.StatusNotFound {
		t.Errorf("missing job patch = %d, want 404", response.StatusCode)
	}
}

func TestJobsStageFilter(t *testing.T) {
	server, user := devServer(t)

	devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]string{"company": "Acme", "position": "Go Engineer"}, nil)
	devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]any{"company": "Globex", "position": "SRE", "stage_id": 3}, nil)

	var records []api.JobRecord
	response := devRequest(t, server, user.ID, http.MethodGet, "/jobs?stage_id=3", nil, &records)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("GET /jobs = %d", response.StatusCode)
	}
	if len(records) != 1 || records[0].Company != "Globex" {
		t.Errorf("filtered jobs = %+v", records)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, user := devServer(t)

	devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]string{"company": "Acme", "position": "Go Engineer"}, nil)
	var second api.JobRecord
	devRequest(t, server, user.ID, http.MethodPost, "/jobs",
		map[string]string{"company": "Globex", "position": "SRE"}, &second)
	devRequest(t, server, user.ID, http.MethodPatch,
		fmt.Sprintf("/jobs/%d", second.ID), map[string]int{"stage_id": 2}, nil)

	var metrics api.Metrics
	response := devRequest(t, server, user.ID, http.MethodGet, "/metrics", nil, &metrics)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics = %d", response.StatusCode)
	}
	progress := make(map[string]int)
	for _, entry := range metrics.StageProgress {
		progress[entry.StageName] = entry.Count
	}
	if progress["Applied"] != 2 || progress["HR Response"] != 1 {
		t.Errorf("stage progress = %v", progress)
	}
	if len(metrics.Conversions) == 0 {
		t.Fatal("metrics should include conversions")
	}
	first := metrics.Conversions[0]
	if first.Rate == nil || *first.Rate != 0.5 {
		t.Errorf("Applied > HR Response rate = %v, want 0.5", first.Rate)
	}
	if metrics.AvgHRResponseDays == nil {
		t.Error("avg response days should be set once a response exists")
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := devServer(t)

	request, _ := http.NewRequest(http.MethodOptions, server.URL+"/jobs", nil)
	request.Header.Set("Origin", "http://localhost:5173")
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", response.StatusCode)
	}
	if origin := response.Header.Get("Access-Control-Allow-Origin"); origin != "http://localhost:5173" {
		t.Errorf("allowed origin = %q", origin)
	}
	if response.Header.Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("preflight should allow credentials")
	}
}
