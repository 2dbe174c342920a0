package service

import (
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// SharedContent is one registry entry of the exposure surface.
type SharedContent struct {
	// CID is the content identifier the entry was retrieved under.
	CID string

	// Path is where the content is stored locally.
	Path string

	// Description is optional human-readable context.
	Description string
}

// Service is the HTTP exposure surface. It owns the registry of shared
// content: a background routine drains the registration channel into an
// append-only slice, and the handlers render it. Listing order is exactly
// registration order.
type Service struct {
	sync.Mutex

	bindAddress string
	serveDir    string
	contents    []SharedContent
	registerCh  chan SharedContent
	mux         *http.ServeMux
	logger      *logrus.Entry
}

// NewService creates the service and starts draining registrations. Serve
// must be called separately to bind the listener.
func NewService(bindAddress string, serveDir string, logger *logrus.Entry) *Service {
	service := &Service{
		bindAddress: bindAddress,
		serveDir:    serveDir,
		registerCh:  make(chan SharedContent, 100),
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	go service.drainRegistrations()

	return service
}

// RegisterCh returns the channel on which content is handed to the service.
func (s *Service) RegisterCh() chan<- SharedContent {
	return s.registerCh
}

// Contents returns a snapshot of the registry in registration order.
func (s *Service) Contents() []SharedContent {
	s.Lock()
	defer s.Unlock()

	snapshot := make([]SharedContent, len(s.contents))
	copy(snapshot, s.contents)
	return snapshot
}

// Handler exposes the service's routes without binding a listener.
func (s *Service) Handler() http.Handler {
	return s.mux
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering exposure API handlers")
	s.mux.HandleFunc("/", s.makeHandler(s.Index))
	s.mux.HandleFunc("/list", s.makeHandler(s.List))
	s.mux.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(s.serveDir))))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// drainRegistrations appends incoming entries to the registry. It is the only
// writer, so listing order equals registration order.
func (s *Service) drainRegistrations() {
	for content := range s.registerCh {
		s.logger.WithField("cid", content.CID).Info("New shared content")
		s.Lock()
		s.contents = append(s.contents, content)
		s.Unlock()
	}
}

// Serve calls ListenAndServe. This is a blocking call. A bind failure is
// logged; the retrieval loop does not depend on the exposure surface.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Info("Serving shared content")

	err := http.ListenAndServe(s.bindAddress, s.mux)
	if err != nil {
		s.logger.Error(err)
	}
}

// Index renders a static informational page.
func (s *Service) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>MIGA content sharing</title>
</head>
<body>
	<h1>MIGA content sharing</h1>
	<div class="info">
		<p>This service lets you download content held by this node.</p>
		<p><a href="/list">See the list of available content</a></p>
	</div>
</body>
</html>
`)
}

// List renders the current registry: index, CID, optional description,
// filename, and a download link per entry.
func (s *Service) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(s.contents) == 0 {
		fmt.Fprint(w, `<h1>Nothing shared yet</h1><p>No content is currently available.</p><p><a href="/">Back</a></p>`)
		return
	}

	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>MIGA content list</title>
</head>
<body>
	<h1>Available content</h1>
	<div class="content-list">
`)

	for index, content := range s.contents {
		fileName := filepath.Base(content.Path)
		fmt.Fprintf(w, `		<div class="content-item">
			<div class="content-title">Content #%d</div>
			<div class="content-cid">CID: %s</div>
`, index+1, html.EscapeString(content.CID))
		if content.Description != "" {
			fmt.Fprintf(w, "\t\t\t<div class=\"content-description\">Description: %s</div>\n", html.EscapeString(content.Description))
		}
		fmt.Fprintf(w, `			<div>File: %s</div>
			<a href="/files/%s" class="download-link">Download</a>
		</div>
`, html.EscapeString(fileName), html.EscapeString(fileName))
	}

	fmt.Fprint(w, `	</div>
	<a href="/" class="back-link">Back</a>
</body>
</html>
`)
}
