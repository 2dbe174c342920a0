package service

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/misaka19683/miga/src/common"
)

func testService(t *testing.T, serveDir string) *Service {
	return NewService("127.0.0.1:0", serveDir, common.NewTestEntry(t))
}

func register(t *testing.T, s *Service, entries ...SharedContent) {
	for _, entry := range entries {
		s.RegisterCh() <- entry
	}

	// Registrations are drained by a background routine.
	deadline := time.Now().Add(2 * time.Second)
	for len(s.Contents()) < len(entries) {
		if time.Now().After(deadline) {
			t.Fatalf("registry holds %d entries, expected %d", len(s.Contents()), len(entries))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRegistrationOrder(t *testing.T) {
	s := testService(t, t.TempDir())

	register(t, s,
		SharedContent{CID: "Qm-first", Path: "/tmp/a.bin"},
		SharedContent{CID: "Qm-second", Path: "/tmp/b.bin"},
		SharedContent{CID: "Qm-third", Path: "/tmp/c.bin"},
	)

	contents := s.Contents()
	for i, cid := range []string{"Qm-first", "Qm-second", "Qm-third"} {
		if contents[i].CID != cid {
			t.Fatalf("entry %d has CID %s, expected %s", i, contents[i].CID, cid)
		}
	}
}

func TestIndex(t *testing.T) {
	s := testService(t, t.TempDir())

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, expected %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "MIGA content sharing") {
		t.Fatal("index page is missing the title")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("CORS header is %q, expected *", got)
	}
}

func TestIndexUnknownPath(t *testing.T) {
	s := testService(t, t.TempDir())

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, expected %d", w.Code, http.StatusNotFound)
	}
}

func TestListEmpty(t *testing.T) {
	s := testService(t, t.TempDir())

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/list", nil))

	if !strings.Contains(w.Body.String(), "Nothing shared yet") {
		t.Fatal("empty registry should render the placeholder message")
	}
}

func TestListEntries(t *testing.T) {
	s := testService(t, t.TempDir())

	register(t, s, SharedContent{
		CID:         "Qm-listed",
		Path:        "/data/shared/listed.bin",
		Description: "a <listed> file",
	})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/list", nil))

	body := w.Body.String()
	if !strings.Contains(body, "Qm-listed") {
		t.Fatal("listing is missing the CID")
	}
	if !strings.Contains(body, "a &lt;listed&gt; file") {
		t.Fatal("description should be HTML-escaped")
	}
	if !strings.Contains(body, `href="/files/listed.bin"`) {
		t.Fatal("listing is missing the download link")
	}
}

func TestServeFile(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("file payload")
	if err := os.WriteFile(filepath.Join(dir, "shared.bin"), payload, 0644); err != nil {
		t.Fatal(err)
	}

	s := testService(t, dir)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/files/shared.bin", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, expected %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != string(payload) {
		t.Fatalf("served %q, expected %q", w.Body.String(), payload)
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/files/missing.bin", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d for a missing file, expected %d", w.Code, http.StatusNotFound)
	}
}
