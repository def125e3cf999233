package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// ============================================================================
// Test Configuration
// ============================================================================

// These tests run against a live server (database + optional Redis). Start the
// server locally, then:
//
//	TEST_BASE_URL=http://localhost:8080 go test ./tests/...
//
// Each run signs up fresh users so no seed data is required.

var baseURL = getEnv("TEST_BASE_URL", "http://localhost:8080")

// ============================================================================
// HTTP Client Helpers
// ============================================================================

type apiClient struct {
	client  *http.Client
	baseURL string
	token   string
}

func newClient() *apiClient {
	return &apiClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
}

func (c *apiClient) withToken(token string) *apiClient {
	c.token = token
	return c
}

func (c *apiClient) do(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func (c *apiClient) get(path string) (*http.Response, error) {
	return c.do("GET", path, nil)
}

func (c *apiClient) post(path string, body interface{}) (*http.Response, error) {
	return c.do("POST", path, body)
}

func (c *apiClient) patch(path string, body interface{}) (*http.Response, error) {
	return c.do("PATCH", path, body)
}

func (c *apiClient) delete(path string) (*http.Response, error) {
	return c.do("DELETE", path, nil)
}

func parseJSON(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// requireServer skips the test when no server is listening at baseURL, so the
// suite stays green in environments without the full stack.
func requireServer(t *testing.T) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		t.Skipf("Server not reachable at %s: %v", baseURL, err)
	}
	resp.Body.Close()
}

// ============================================================================
// Signup / Login Helpers
// ============================================================================

// signupAndLogin creates a throwaway account and returns an authenticated
// client. Names are capped at 20 chars by validation, so keep the suffix short.
func signupAndLogin(t *testing.T, tag string) *apiClient {
	t.Helper()
	client := newClient()

	suffix := time.Now().UnixNano() % 1_000_000_000
	name := fmt.Sprintf("%s%d", tag, suffix)
	email := fmt.Sprintf("%s@integration.test", name)
	password := "password123"

	resp, err := client.post("/api/auth/signup", map[string]string{
		"name":            name,
		"email":           email,
		"password":        password,
		"confirmPassword": password,
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Signup failed with status %d: %s", resp.StatusCode, body)
	}
	resp.Body.Close()

	resp, err = client.post("/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Login failed with status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := parseJSON(resp, &result); err != nil {
		t.Fatalf("Parse login response: %v", err)
	}
	return client.withToken(result.AccessToken)
}

type dreamPayload struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Type       string   `json:"type"`
	Mood       *string  `json:"mood"`
	Recurring  bool     `json:"recurring"`
	Tags       []string `json:"tags"`
	SleepTime  *string  `json:"sleepTime"`
	WokeUpTime *string  `json:"wokeUpTime"`
}

type dreamListPayload struct {
	Body       []dreamPayload `json:"body"`
	Pagination struct {
		CurrentPage     int   `json:"currentPage"`
		TotalPages      int   `json:"totalPages"`
		TotalDreams     int64 `json:"totalDreams"`
		HasNextPage     bool  `json:"hasNextPage"`
		HasPreviousPage bool  `json:"hasPreviousPage"`
		Limit           int   `json:"limit"`
	} `json:"pagination"`
}

func createDream(t *testing.T, client *apiClient, body map[string]interface{}) dreamPayload {
	t.Helper()
	resp, err := client.post("/api/dreams", body)
	if err != nil {
		t.Fatalf("Create dream: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("Create dream failed with status %d: %s", resp.StatusCode, raw)
	}

	var dream dreamPayload
	if err := parseJSON(resp, &dream); err != nil {
		t.Fatalf("Parse dream: %v", err)
	}
	return dream
}

// ============================================================================
// TEST CASES
// ============================================================================

// TestDreamLifecycle covers the create → read → update → delete round trip.
func TestDreamLifecycle(t *testing.T) {
	requireServer(t)

	client := signupAndLogin(t, "cycle")

	dream := createDream(t, client, map[string]interface{}{
		"title":      "Vol au-dessus de la ville",
		"type":       "lucide",
		"date":       "2026-08-30",
		"sleepTime":  "23:15",
		"wokeUpTime": "07:30",
		"tags":       []string{"vol", "ville"},
	})
	if dream.ID == 0 {
		t.Fatal("Expected created dream to have an id")
	}
	if dream.SleepTime == nil || dream.WokeUpTime == nil {
		t.Fatal("Expected sleep window to be persisted")
	}

	// Read it back.
	resp, err := client.get(fmt.Sprintf("/api/dreams/%d", dream.ID))
	if err != nil {
		t.Fatalf("Get dream: %v", err)
	}
	var fetched dreamPayload
	if err := parseJSON(resp, &fetched); err != nil {
		t.Fatalf("Parse dream: %v", err)
	}
	if fetched.Title != "Vol au-dessus de la ville" {
		t.Errorf("Expected title to round-trip, got %q", fetched.Title)
	}

	// Partial update must not clobber other fields.
	resp, err = client.patch(fmt.Sprintf("/api/dreams/%d", dream.ID), map[string]interface{}{
		"mood": "heureux",
	})
	if err != nil {
		t.Fatalf("Update dream: %v", err)
	}
	if err := parseJSON(resp, &fetched); err != nil {
		t.Fatalf("Parse updated dream: %v", err)
	}
	if fetched.Mood == nil || *fetched.Mood != "heureux" {
		t.Errorf("Expected mood to be updated, got %v", fetched.Mood)
	}
	if fetched.Type != "lucide" {
		t.Errorf("Expected type untouched by partial update, got %q", fetched.Type)
	}

	// Delete, then a second read must 404.
	resp, err = client.delete(fmt.Sprintf("/api/dreams/%d", dream.ID))
	if err != nil {
		t.Fatalf("Delete dream: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("Delete failed with status %d: %s", resp.StatusCode, raw)
	}
	resp.Body.Close()

	resp, err = client.get(fmt.Sprintf("/api/dreams/%d", dream.ID))
	if err != nil {
		t.Fatalf("Get deleted dream: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

// TestTenantIsolation verifies a user can never see, edit, or delete another
// user's dream. All three paths must answer 404, never 403, so ids cannot be
// probed for existence.
func TestTenantIsolation(t *testing.T) {
	requireServer(t)

	alice := signupAndLogin(t, "alice")
	bob := signupAndLogin(t, "bob")

	dream := createDream(t, alice, map[string]interface{}{
		"title": "Jardin secret",
		"type":  "normal",
	})

	path := fmt.Sprintf("/api/dreams/%d", dream.ID)

	resp, err := bob.get(path)
	if err != nil {
		t.Fatalf("Get as other user: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET: expected 404 for another user's dream, got %d", resp.StatusCode)
	}

	resp, err = bob.patch(path, map[string]interface{}{"title": "Piraté"})
	if err != nil {
		t.Fatalf("Update as other user: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("PATCH: expected 404 for another user's dream, got %d", resp.StatusCode)
	}

	resp, err = bob.delete(path)
	if err != nil {
		t.Fatalf("Delete as other user: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("DELETE: expected 404 for another user's dream, got %d", resp.StatusCode)
	}

	// The dream must still exist for its owner.
	resp, err = alice.get(path)
	if err != nil {
		t.Fatalf("Get as owner: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected owner to still see the dream, got %d", resp.StatusCode)
	}
}

// TestListFiltersCombineWithAND checks that stacked query filters narrow the
// result set instead of widening it.
func TestListFiltersCombineWithAND(t *testing.T) {
	requireServer(t)

	client := signupAndLogin(t, "filter")

	// Three dreams: only the first matches type=cauchemar AND tag=foret.
	createDream(t, client, map[string]interface{}{
		"title":     "Poursuite dans la forêt",
		"type":      "cauchemar",
		"tags":      []string{"foret", "poursuite"},
		"recurring": true,
	})
	createDream(t, client, map[string]interface{}{
		"title": "Cauchemar en ville",
		"type":  "cauchemar",
		"tags":  []string{"ville"},
	})
	createDream(t, client, map[string]interface{}{
		"title": "Balade en forêt",
		"type":  "normal",
		"tags":  []string{"foret"},
	})

	resp, err := client.get("/api/dreams?type=cauchemar&tag=foret")
	if err != nil {
		t.Fatalf("List dreams: %v", err)
	}
	var list dreamListPayload
	if err := parseJSON(resp, &list); err != nil {
		t.Fatalf("Parse list: %v", err)
	}
	if len(list.Body) != 1 {
		t.Fatalf("Expected exactly 1 dream matching both filters, got %d", len(list.Body))
	}
	if list.Body[0].Title != "Poursuite dans la forêt" {
		t.Errorf("Wrong dream matched: %q", list.Body[0].Title)
	}

	// Adding a third filter that the match fails must empty the result.
	resp, err = client.get("/api/dreams?type=cauchemar&tag=foret&recurring=false")
	if err != nil {
		t.Fatalf("List dreams: %v", err)
	}
	if err := parseJSON(resp, &list); err != nil {
		t.Fatalf("Parse list: %v", err)
	}
	if len(list.Body) != 0 {
		t.Errorf("Expected no dream matching all three filters, got %d", len(list.Body))
	}
}

// TestListPagination walks a 25-dream journal in pages of 10.
func TestListPagination(t *testing.T) {
	requireServer(t)

	client := signupAndLogin(t, "pages")

	for i := 0; i < 25; i++ {
		createDream(t, client, map[string]interface{}{
			"title": fmt.Sprintf("Rêve %d", i+1),
			"type":  "normal",
		})
	}

	type expectation struct {
		page    int
		wantLen int
		hasNext bool
		hasPrev bool
	}
	for _, want := range []expectation{
		{page: 1, wantLen: 10, hasNext: true, hasPrev: false},
		{page: 2, wantLen: 10, hasNext: true, hasPrev: true},
		{page: 3, wantLen: 5, hasNext: false, hasPrev: true},
	} {
		resp, err := client.get(fmt.Sprintf("/api/dreams?page=%d&limit=10", want.page))
		if err != nil {
			t.Fatalf("List page %d: %v", want.page, err)
		}
		var list dreamListPayload
		if err := parseJSON(resp, &list); err != nil {
			t.Fatalf("Parse page %d: %v", want.page, err)
		}
		if len(list.Body) != want.wantLen {
			t.Errorf("Page %d: expected %d dreams, got %d", want.page, want.wantLen, len(list.Body))
		}
		if list.Pagination.TotalDreams != 25 {
			t.Errorf("Page %d: expected totalDreams 25, got %d", want.page, list.Pagination.TotalDreams)
		}
		if list.Pagination.TotalPages != 3 {
			t.Errorf("Page %d: expected 3 total pages, got %d", want.page, list.Pagination.TotalPages)
		}
		if list.Pagination.HasNextPage != want.hasNext {
			t.Errorf("Page %d: hasNextPage = %v, want %v", want.page, list.Pagination.HasNextPage, want.hasNext)
		}
		if list.Pagination.HasPreviousPage != want.hasPrev {
			t.Errorf("Page %d: hasPreviousPage = %v, want %v", want.page, list.Pagination.HasPreviousPage, want.hasPrev)
		}
	}
}

// TestDuplicateSignupConflicts ensures email and name uniqueness both answer 409.
func TestDuplicateSignupConflicts(t *testing.T) {
	requireServer(t)

	client := newClient()
	suffix := time.Now().UnixNano() % 1_000_000_000
	name := fmt.Sprintf("dup%d", suffix)
	email := fmt.Sprintf("%s@integration.test", name)

	body := map[string]string{
		"name":            name,
		"email":           email,
		"password":        "password123",
		"confirmPassword": "password123",
	}

	resp, err := client.post("/api/auth/signup", body)
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("First signup should succeed, got %d", resp.StatusCode)
	}

	resp, err = client.post("/api/auth/signup", body)
	if err != nil {
		t.Fatalf("Second signup failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Duplicate signup: expected 409, got %d", resp.StatusCode)
	}

	// Same name, different email: still a conflict.
	body["email"] = fmt.Sprintf("other-%s@integration.test", name)
	resp, err = client.post("/api/auth/signup", body)
	if err != nil {
		t.Fatalf("Name-conflict signup failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Duplicate name: expected 409, got %d", resp.StatusCode)
	}
}
