package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"timeoff/internal/app/server"
	"timeoff/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		Addr:               ":0",
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		MigrationsDir:      findMigrationsDir(),
		SeedOrgName:        "Test Organization",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func findMigrationsDir() string {
	for _, candidate := range []string{"migrations", "../../../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "migrations"
}

func startApp(t *testing.T) (*server.App, *httptest.Server) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	app, err := server.New(context.Background(), testConfig(dbURL))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return app, ts
}

func TestRequestLifecycleReconcilesBalances(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	email := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	employeeID, _ := createEmployee(t, client, ts.URL, token, email, 10, 16)

	// Approving a three day request deducts three days.
	requestID := createRequest(t, client, ts.URL, token, map[string]any{
		"employeeId": employeeID,
		"type":       "days_off",
		"startDate":  "2026-09-07",
		"endDate":    "2026-09-09",
	})
	if status := transition(t, client, ts.URL, token, requestID, "approve"); status != "approved" {
		t.Fatalf("expected approved, got %s", status)
	}
	assertBalance(t, client, ts.URL, token, employeeID, 7, 16)

	// Denying an approved request restores the deduction.
	if status := transition(t, client, ts.URL, token, requestID, "deny"); status != "denied" {
		t.Fatalf("expected denied, got %s", status)
	}
	assertBalance(t, client, ts.URL, token, employeeID, 10, 16)

	// A denied request cannot be denied again.
	postJSONStatus(t, client, ts.URL+"/api/v1/requests/"+requestID+"/deny", token, map[string]any{}, http.StatusConflict)

	// Hours requests consume the hours pool only.
	hoursID := createRequest(t, client, ts.URL, token, map[string]any{
		"employeeId":     employeeID,
		"type":           "hours_off",
		"startDate":      "2026-09-14",
		"hoursRequested": 4,
	})
	transition(t, client, ts.URL, token, hoursID, "approve")
	assertBalance(t, client, ts.URL, token, employeeID, 10, 12)

	// Sick leave never consumes balance.
	sickID := createRequest(t, client, ts.URL, token, map[string]any{
		"employeeId": employeeID,
		"type":       "sick_leave",
		"startDate":  "2026-09-21",
		"endDate":    "2026-09-23",
	})
	transition(t, client, ts.URL, token, sickID, "approve")
	assertBalance(t, client, ts.URL, token, employeeID, 10, 12)
}

func TestClampedDeductionRestoresNominalAmount(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	email := fmt.Sprintf("clamp-%d@example.com", time.Now().UnixNano())
	employeeID, _ := createEmployee(t, client, ts.URL, token, email, 2, 0)

	// Five days against a balance of two clamps at zero.
	requestID := createRequest(t, client, ts.URL, token, map[string]any{
		"employeeId": employeeID,
		"type":       "days_off",
		"startDate":  "2026-10-05",
		"endDate":    "2026-10-09",
	})
	transition(t, client, ts.URL, token, requestID, "approve")
	assertBalance(t, client, ts.URL, token, employeeID, 0, 0)

	// Restoring adds the nominal five days back.
	transition(t, client, ts.URL, token, requestID, "deny")
	assertBalance(t, client, ts.URL, token, employeeID, 5, 0)
}

func TestEditResetsApprovedRequestToPending(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	email := fmt.Sprintf("edit-%d@example.com", time.Now().UnixNano())
	employeeID, _ := createEmployee(t, client, ts.URL, token, email, 10, 0)

	requestID := createRequest(t, client, ts.URL, token, map[string]any{
		"employeeId": employeeID,
		"type":       "days_off",
		"startDate":  "2026-11-02",
		"endDate":    "2026-11-04",
	})
	transition(t, client, ts.URL, token, requestID, "approve")
	assertBalance(t, client, ts.URL, token, employeeID, 7, 0)

	// Editing restores the balance and resets the request to pending.
	putJSON(t, client, ts.URL+"/api/v1/requests/"+requestID, token, map[string]any{
		"type":      "days_off",
		"startDate": "2026-11-09",
		"endDate":   "2026-11-10",
	})
	assertBalance(t, client, ts.URL, token, employeeID, 10, 0)

	req := getRequest(t, client, ts.URL, token, requestID)
	if req["status"] != "pending" {
		t.Fatalf("expected pending after edit, got %v", req["status"])
	}
	if req["processedBy"] != nil {
		t.Fatalf("expected processedBy cleared after edit, got %v", req["processedBy"])
	}

	// Deleting an approved request also restores the balance.
	transition(t, client, ts.URL, token, requestID, "approve")
	assertBalance(t, client, ts.URL, token, employeeID, 8, 0)
	deleteJSON(t, client, ts.URL+"/api/v1/requests/"+requestID, token)
	assertBalance(t, client, ts.URL, token, employeeID, 10, 0)
}

func TestPendingAndDeniedChangesNeverRestoreBalance(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	email := fmt.Sprintf("noop-%d@example.com", time.Now().UnixNano())
	employeeID, _ := createEmployee(t, client, ts.URL, token, email, 10, 0)

	// A pending request deducts nothing, and editing it keeps it that way.
	requestID := createRequest(t, client, ts.URL, token, map[string]any{
		"employeeId": employeeID,
		"type":       "days_off",
		"startDate":  "2027-03-01",
		"endDate":    "2027-03-03",
	})
	assertBalance(t, client, ts.URL, token, employeeID, 10, 0)

	putJSON(t, client, ts.URL+"/api/v1/requests/"+requestID, token, map[string]any{
		"type":      "days_off",
		"startDate": "2027-03-08",
		"endDate":   "2027-03-09",
	})
	assertBalance(t, client, ts.URL, token, employeeID, 10, 0)

	// Editing a denied request resets it to pending without touching the
	// balance, since the deduction was never applied.
	if status := transition(t, client, ts.URL, token, requestID, "deny"); status != "denied" {
		t.Fatalf("expected denied, got %s", status)
	}
	assertBalance(t, client, ts.URL, token, employeeID, 10, 0)

	putJSON(t, client, ts.URL+"/api/v1/requests/"+requestID, token, map[string]any{
		"type":      "days_off",
		"startDate": "2027-03-15",
		"endDate":   "2027-03-16",
	})
	assertBalance(t, client, ts.URL, token, employeeID, 10, 0)

	req := getRequest(t, client, ts.URL, token, requestID)
	if req["status"] != "pending" {
		t.Fatalf("expected pending after edit, got %v", req["status"])
	}

	// Deleting the still-pending request deducts and restores nothing.
	deleteJSON(t, client, ts.URL+"/api/v1/requests/"+requestID, token)
	assertBalance(t, client, ts.URL, token, employeeID, 10, 0)
}

func TestConcurrentApprovalsEachApplyOnce(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	email := fmt.Sprintf("racer-%d@example.com", time.Now().UnixNano())
	employeeID, _ := createEmployee(t, client, ts.URL, token, email, 20, 0)

	first := createRequest(t, client, ts.URL, token, map[string]any{
		"employeeId": employeeID,
		"type":       "days_off",
		"startDate":  "2027-04-05",
		"endDate":    "2027-04-07",
	})
	second := createRequest(t, client, ts.URL, token, map[string]any{
		"employeeId": employeeID,
		"type":       "days_off",
		"startDate":  "2027-04-12",
		"endDate":    "2027-04-13",
	})

	statuses := make(chan int, 2)
	var wg sync.WaitGroup
	for _, requestID := range []string{first, second} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/requests/"+id+"/approve", bytes.NewBufferString("{}"))
			if err != nil {
				statuses <- 0
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := client.Do(req)
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}(requestID)
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		if status != http.StatusOK {
			t.Fatalf("expected both approvals to succeed, got status %d", status)
		}
	}

	// Each approval lands its deduction exactly once.
	assertBalance(t, client, ts.URL, token, employeeID, 15, 0)
}

func TestDuplicateEmailRejectedAcrossOrganizations(t *testing.T) {
	app, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	email := fmt.Sprintf("taken-%d@example.com", time.Now().UnixNano())

	// Claim the email under a different organization directly.
	ctx := context.Background()
	var orgID string
	if err := app.DB.QueryRow(ctx, "INSERT INTO organizations (name) VALUES ($1) RETURNING id",
		fmt.Sprintf("Other Org %d", time.Now().UnixNano())).Scan(&orgID); err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}
	if _, err := app.DB.Exec(ctx, `
    INSERT INTO users (organization_id, email, password_hash, system_role)
    VALUES ($1, $2, 'x', 'employee')
  `, orgID, email); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	resp := postJSONStatus(t, client, ts.URL+"/api/v1/employees", token, map[string]any{
		"firstName":      "Dup",
		"lastName":       "Licate",
		"email":          email,
		"daysAvailable":  5,
		"hoursAvailable": 0,
		"annualDays":     25,
		"annualHours":    40,
	}, http.StatusConflict)
	if resp.Error == nil {
		t.Fatal("expected an error payload")
	}
}

func TestOverlappingRequestsRejected(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	email := fmt.Sprintf("overlap-%d@example.com", time.Now().UnixNano())
	employeeID, _ := createEmployee(t, client, ts.URL, token, email, 20, 0)

	createRequest(t, client, ts.URL, token, map[string]any{
		"employeeId": employeeID,
		"type":       "days_off",
		"startDate":  "2026-12-07",
		"endDate":    "2026-12-11",
	})
	postJSONStatus(t, client, ts.URL+"/api/v1/requests", token, map[string]any{
		"employeeId": employeeID,
		"type":       "days_off",
		"startDate":  "2026-12-10",
		"endDate":    "2026-12-14",
	}, http.StatusConflict)
}

func TestEmployeeCannotApproveOrSeeOthers(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	email := fmt.Sprintf("worker-%d@example.com", time.Now().UnixNano())
	employeeID, tempPassword := createEmployee(t, client, ts.URL, adminToken, email, 5, 0)

	otherEmail := fmt.Sprintf("other-%d@example.com", time.Now().UnixNano())
	otherID, _ := createEmployee(t, client, ts.URL, adminToken, otherEmail, 5, 0)

	workerToken := login(t, client, ts.URL, email, tempPassword)

	// Employees cannot reach admin surfaces.
	requestID := createRequest(t, client, ts.URL, workerToken, map[string]any{
		"type":      "days_off",
		"startDate": "2027-01-04",
		"endDate":   "2027-01-05",
	})
	postJSONStatus(t, client, ts.URL+"/api/v1/requests/"+requestID+"/approve", workerToken, map[string]any{}, http.StatusForbidden)
	deleteJSONStatus(t, client, ts.URL+"/api/v1/requests/"+requestID, workerToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/employees", workerToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/employees/"+otherID+"/balance", workerToken, http.StatusForbidden)

	// But an employee can see their own balance.
	assertBalance(t, client, ts.URL, workerToken, employeeID, 5, 0)

	// Temporary passwords must be rotated through change-password.
	postJSON(t, client, ts.URL+"/api/v1/auth/change-password", workerToken, map[string]any{
		"currentPassword": tempPassword,
		"newPassword":     "FreshSecret42!",
	})
	login(t, client, ts.URL, email, "FreshSecret42!")
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, email string, days, hours int) (string, string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/employees", token, map[string]any{
		"firstName":      "Journey",
		"lastName":       "Tester",
		"email":          email,
		"daysAvailable":  days,
		"hoursAvailable": hours,
		"annualDays":     25,
		"annualHours":    40,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode employee response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected employee id")
	}
	tempPassword, _ := payload["temporaryPassword"].(string)
	if tempPassword == "" {
		t.Fatal("expected temporary password")
	}
	return id, tempPassword
}

func createRequest(t *testing.T, client *http.Client, baseURL, token string, body map[string]any) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/requests", token, body)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode request response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected request id")
	}
	return id
}

func getRequest(t *testing.T, client *http.Client, baseURL, token, requestID string) map[string]any {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/v1/requests/"+requestID, token)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}
	return payload
}

func transition(t *testing.T, client *http.Client, baseURL, token, requestID, action string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/requests/"+requestID+"/"+action, token, map[string]any{})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode %s response: %v", action, err)
	}
	status, _ := payload["status"].(string)
	return status
}

func assertBalance(t *testing.T, client *http.Client, baseURL, token, employeeID string, wantDays, wantHours int) {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/v1/employees/"+employeeID+"/balance", token)
	var payload map[string]float64
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode balance response: %v", err)
	}
	if int(payload["daysAvailable"]) != wantDays || int(payload["hoursAvailable"]) != wantHours {
		t.Fatalf("expected balance %d days / %d hours, got %v", wantDays, wantHours, payload)
	}
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, 0)
}

func putJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPut, url, token, body, 0)
}

func deleteJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodDelete, url, token, nil, 0)
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, want)
}

func deleteJSONStatus(t *testing.T, client *http.Client, url, token string, want int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodDelete, url, token, nil, want)
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodGet, url, token, nil, 0)
}

func getJSONStatus(t *testing.T, client *http.Client, url, token string, want int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodGet, url, token, nil, want)
}

// doJSON performs a request and decodes the response envelope. A zero want
// status accepts any non-error response and fails on 4xx/5xx.
func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, want int) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if want != 0 {
		if resp.StatusCode != want {
			t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
		}
		return env
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}
