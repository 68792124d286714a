package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/shivanand-hulikatti/events-manager/internal/auth"
	"github.com/shivanand-hulikatti/events-manager/internal/model"
	"github.com/shivanand-hulikatti/events-manager/internal/repository"
	"github.com/shivanand-hulikatti/events-manager/internal/service"
)

// newTestServer assembles the router exactly as cmd/main.go does, on top of
// the in-memory store, with gateway-claims auth.
func newTestServer(t *testing.T) (*httptest.Server, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore()
	resolver := auth.NewResolver("jwt", "test-secret", "X-Authorizer-Claims", "Organizers")
	svc := service.NewEventService(store, nil)
	h := NewEventHandler(svc)

	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Get("/{eventID}", h.GetEvent)
		r.Group(func(r chi.Router) {
			r.Use(resolver.OrganizerOnly)
			r.Post("/", h.CreateEvent)
			r.Put("/{eventID}", h.UpdateEvent)
			r.Delete("/{eventID}", h.DeleteEvent)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func claimsHeader(sub string, groups ...string) string {
	return fmt.Sprintf(`{"sub":%q,"cognito:groups":%q}`, sub, strings.Join(groups, ","))
}

func doRequest(t *testing.T, method, url, claims string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if claims != "" {
		req.Header.Set("X-Authorizer-Claims", claims)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func createEvent(t *testing.T, srv *httptest.Server, organizer string) model.Event {
	t.Helper()
	resp := doRequest(t, http.MethodPost, srv.URL+"/events", claimsHeader(organizer, "Organizers"), map[string]any{
		"eventName": "Go Meetup",
		"eventDate": "2026-10-01T18:00:00Z",
		"location":  "Bengaluru",
		"capacity":  10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create returned %d", resp.StatusCode)
	}
	return decodeBody[model.Event](t, resp)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doRequest(t, http.MethodGet, srv.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health returned %d", resp.StatusCode)
	}
}

func TestCreateRequiresOrganizerRole(t *testing.T) {
	srv, _ := newTestServer(t)
	body := map[string]any{
		"eventName": "Go Meetup",
		"eventDate": "2026-10-01T18:00:00Z",
		"location":  "Bengaluru",
		"capacity":  10,
	}

	// No credentials at all.
	resp := doRequest(t, http.MethodPost, srv.URL+"/events", "", body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create returned %d, want 401", resp.StatusCode)
	}

	// Authenticated but not an organizer.
	resp = doRequest(t, http.MethodPost, srv.URL+"/events", claimsHeader("u1", "Attendees"), body)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-organizer create returned %d, want 403", resp.StatusCode)
	}
}

func TestCreateAndGet(t *testing.T) {
	srv, _ := newTestServer(t)

	created := createEvent(t, srv, "u1")
	if created.OrganizerID != "u1" || created.Status != model.StatusActive {
		t.Fatalf("unexpected created event %+v", created)
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/events/"+created.EventID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get returned %d", resp.StatusCode)
	}
	got := decodeBody[model.Event](t, resp)
	if got.EventID != created.EventID {
		t.Fatalf("get returned %q, want %q", got.EventID, created.EventID)
	}
}

func TestGetUnknownEventReturns404(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doRequest(t, http.MethodGet, srv.URL+"/events/no-such-id", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get returned %d, want 404", resp.StatusCode)
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doRequest(t, http.MethodPost, srv.URL+"/events", claimsHeader("u1", "Organizers"), map[string]any{
		"eventName": "ab",
		"eventDate": "2026-10-01T18:00:00Z",
		"location":  "Bengaluru",
		"capacity":  10,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid draft returned %d, want 400", resp.StatusCode)
	}
}

func TestUpdateStatusMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createEvent(t, srv, "u1")

	// Empty patch.
	resp := doRequest(t, http.MethodPut, srv.URL+"/events/"+created.EventID, claimsHeader("u1", "Organizers"), map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty patch returned %d, want 400", resp.StatusCode)
	}

	// Not the owner.
	resp = doRequest(t, http.MethodPut, srv.URL+"/events/"+created.EventID, claimsHeader("u2", "Organizers"), map[string]any{"capacity": 20})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-owner update returned %d, want 403", resp.StatusCode)
	}

	// Unknown event.
	resp = doRequest(t, http.MethodPut, srv.URL+"/events/no-such-id", claimsHeader("u1", "Organizers"), map[string]any{"capacity": 20})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown-event update returned %d, want 404", resp.StatusCode)
	}

	// Owner succeeds.
	resp = doRequest(t, http.MethodPut, srv.URL+"/events/"+created.EventID, claimsHeader("u1", "Organizers"), map[string]any{"capacity": 20})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner update returned %d, want 200", resp.StatusCode)
	}
	updated := decodeBody[model.Event](t, resp)
	if updated.Capacity != 20 {
		t.Fatalf("capacity = %d, want 20", updated.Capacity)
	}
}

func TestDeleteStatusMapping(t *testing.T) {
	srv, store := newTestServer(t)
	created := createEvent(t, srv, "u1")

	// Not the owner.
	resp := doRequest(t, http.MethodDelete, srv.URL+"/events/"+created.EventID, claimsHeader("u2", "Organizers"), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("non-owner delete returned %d, want 400", resp.StatusCode)
	}

	// Attendees registered.
	store.SetRegisteredAttendees(created.EventID, 2)
	resp = doRequest(t, http.MethodDelete, srv.URL+"/events/"+created.EventID, claimsHeader("u1", "Organizers"), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("delete with attendees returned %d, want 400", resp.StatusCode)
	}

	// Owner with zero attendees.
	store.SetRegisteredAttendees(created.EventID, 0)
	resp = doRequest(t, http.MethodDelete, srv.URL+"/events/"+created.EventID, claimsHeader("u1", "Organizers"), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("owner delete returned %d, want 204", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/events/"+created.EventID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete returned %d, want 404", resp.StatusCode)
	}
}

func TestListEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for i := 0; i < 3; i++ {
		createEvent(t, srv, "u1")
	}
	createEvent(t, srv, "u2")

	// Unfiltered scan is public and paginated.
	resp := doRequest(t, http.MethodGet, srv.URL+"/events?limit=2", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list returned %d", resp.StatusCode)
	}
	page := decodeBody[model.EventListResponse](t, resp)
	if len(page.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(page.Items))
	}
	if page.LastEvaluatedKey == nil {
		t.Fatal("expected a continuation key")
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/events?limit=2&exclusiveStartKey="+*page.LastEvaluatedKey, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second page returned %d", resp.StatusCode)
	}

	// Organizer filter returns only that organizer's events.
	resp = doRequest(t, http.MethodGet, srv.URL+"/events?organizerId=u2", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("organizer list returned %d", resp.StatusCode)
	}
	byOrganizer := decodeBody[model.EventListResponse](t, resp)
	if len(byOrganizer.Items) != 1 || byOrganizer.Items[0].OrganizerID != "u2" {
		t.Fatalf("unexpected organizer list %+v", byOrganizer.Items)
	}
	if byOrganizer.LastEvaluatedKey != nil {
		t.Fatal("organizer list is unpaginated and must not return a key")
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, q := range []string{"limit=0", "limit=-1", "limit=abc"} {
		resp := doRequest(t, http.MethodGet, srv.URL+"/events?"+q, "", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s returned %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestUpdateRejectsUnknownFields(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createEvent(t, srv, "u1")

	resp := doRequest(t, http.MethodPut, srv.URL+"/events/"+created.EventID, claimsHeader("u1", "Organizers"), map[string]any{
		"organizerId": "u2",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("patch with unknown field returned %d, want 400", resp.StatusCode)
	}
}
