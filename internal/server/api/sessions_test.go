package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// seedSession stores a session with one hand frame and one empty frame.
func seedSession(t *testing.T, s *store.Store) *store.Session {
	t.Helper()

	sess := &store.Session{Name: "demo"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	hand := detector.SpreadLandmarks(0.9)
	if err := s.Sessions().AppendFrame(sess.ID, store.Frame{Sequence: 0, TimestampMs: 0, Hand: &hand}); err != nil {
		t.Fatalf("failed to append frame: %v", err)
	}
	if err := s.Sessions().AppendFrame(sess.ID, store.Frame{Sequence: 1, TimestampMs: 33}); err != nil {
		t.Fatalf("failed to append frame: %v", err)
	}
	return sess
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	t.Run("empty list", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response listSessionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Sessions == nil || len(response.Sessions) != 0 {
			t.Errorf("expected empty non-nil list, got %v", response.Sessions)
		}
	})

	sess := seedSession(t, s)

	t.Run("lists sessions", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions/")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}

		var response listSessionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(response.Sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(response.Sessions))
		}
		got := response.Sessions[0]
		if got.ID != sess.ID || got.Name != "demo" || got.Frames != 2 {
			t.Errorf("unexpected session: %+v", got)
		}
		if got.CreatedAt == "" {
			t.Error("created_at should be set")
		}
	})

	t.Run("rejects POST", func(t *testing.T) {
		rec := serve(handler, http.MethodPost, "/api/sessions")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	sess := seedSession(t, s)

	rec := serve(handler, http.MethodGet, "/api/sessions/"+sess.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var got sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("ID = %q, want %q", got.ID, sess.ID)
	}

	rec = serve(handler, http.MethodGet, "/api/sessions/missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	var errResp errorResponse
	json.NewDecoder(rec.Body).Decode(&errResp)
	if errResp.Error != "Session not found" {
		t.Errorf("error = %q", errResp.Error)
	}
}

func TestSessionHandler_Frames(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	sess := seedSession(t, s)

	rec := serve(handler, http.MethodGet, "/api/sessions/"+sess.ID+"/frames")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response framesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.SessionID != sess.ID {
		t.Errorf("session_id = %q, want %q", response.SessionID, sess.ID)
	}
	if len(response.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(response.Frames))
	}
	if len(response.Frames[0].Landmarks) != detector.NumLandmarks {
		t.Errorf("expected %d landmarks, got %d", detector.NumLandmarks, len(response.Frames[0].Landmarks))
	}
	if response.Frames[1].Landmarks != nil {
		t.Error("frame without a hand should have null landmarks")
	}
	if response.Frames[1].TimestampMs != 33 {
		t.Errorf("timestamp_ms = %d, want 33", response.Frames[1].TimestampMs)
	}

	rec = serve(handler, http.MethodGet, "/api/sessions/missing/frames")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	rec = serve(handler, http.MethodGet, "/api/sessions/"+sess.ID+"/other")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d for unknown sub-resource, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)
	sess := seedSession(t, s)

	rec := serve(handler, http.MethodDelete, "/api/sessions/"+sess.ID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	rec = serve(handler, http.MethodDelete, "/api/sessions/"+sess.ID)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d deleting twice, got %d", http.StatusNotFound, rec.Code)
	}

	rec = serve(handler, http.MethodPut, "/api/sessions/"+sess.ID)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
