package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sadopc/pulse/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, ":0"), s
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}

func TestCreateUser(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), "POST", "/users", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user = %d: %s", rec.Code, rec.Body)
	}
	var u UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatal(err)
	}
	if len(u.SecretKey) != 10 {
		t.Fatalf("secret key = %q", u.SecretKey)
	}
}

func TestEntriesUnknownSecret(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, "GET", "/api/u/nope/entries", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("list with bad secret = %d", rec.Code)
	}
	rec = doJSON(t, h, "POST", "/api/u/nope/entries", EntryRequest{Timestamp: "2025-06-14T12:00:00Z"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("create with bad secret = %d", rec.Code)
	}
}

func TestCreateAndListEntries(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Handler()
	u, _ := st.CreateUser()
	base := fmt.Sprintf("/api/u/%s/entries", u.SecretKey)

	desc := "slow morning"
	energy := 4
	rec := doJSON(t, h, "POST", base, EntryRequest{
		Timestamp:   "2025-06-14T09:00:00Z",
		Description: &desc,
		Energy:      &energy,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body)
	}
	var created EntryResponse
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.ID == 0 || created.Energy == nil || *created.Energy != 4 {
		t.Fatalf("unexpected entry: %+v", created)
	}

	rec = doJSON(t, h, "POST", base, EntryRequest{Timestamp: "2025-06-14T11:00:00Z", Description: &desc})
	if rec.Code != http.StatusCreated {
		t.Fatalf("second create = %d", rec.Code)
	}

	rec = doJSON(t, h, "GET", base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	var entries []EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first
	t0, _ := time.Parse(time.RFC3339, entries[0].Timestamp)
	t1, _ := time.Parse(time.RFC3339, entries[1].Timestamp)
	if t0.Before(t1) {
		t.Fatal("entries not ordered newest first")
	}
}

func TestCreateEntryValidation(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Handler()
	u, _ := st.CreateUser()
	base := fmt.Sprintf("/api/u/%s/entries", u.SecretKey)

	// Unparseable timestamp
	rec := doJSON(t, h, "POST", base, EntryRequest{Timestamp: "yesterdayish"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad timestamp = %d", rec.Code)
	}

	// Neither description nor energy
	rec = doJSON(t, h, "POST", base, EntryRequest{Timestamp: "2025-06-14T12:00:00Z"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty entry = %d", rec.Code)
	}

	// Energy out of range
	bad := 12
	rec = doJSON(t, h, "POST", base, EntryRequest{Timestamp: "2025-06-14T12:00:00Z", Energy: &bad})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("energy 12 = %d", rec.Code)
	}

	// Garbage body
	req := httptest.NewRequest("POST", base, bytes.NewBufferString("{nope"))
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("garbage body = %d", rec2.Code)
	}

	rec = doJSON(t, h, "GET", base, nil)
	var entries []EntryResponse
	json.Unmarshal(rec.Body.Bytes(), &entries)
	if len(entries) != 0 {
		t.Fatalf("rejected requests should not persist, got %d entries", len(entries))
	}
}
