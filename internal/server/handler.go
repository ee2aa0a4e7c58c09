package server

import (
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"jasmined/internal/log"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// RequestHandler is one link of the handler chain. Handle reports whether
// it produced the response; a false return lets the next handler try.
type RequestHandler interface {
	Handle(w http.ResponseWriter, r *http.Request) bool
}

// HandlerList is the fixed two-link chain installed on the server: the
// static resource handler first, the not-found fallback second.
type HandlerList [2]RequestHandler

// ServeHTTP dispatches r through the chain in order.
func (l HandlerList) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-Id", id)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	handledBy := -1
	for i, h := range l {
		if h != nil && h.Handle(rec, r) {
			handledBy = i
			break
		}
	}
	if handledBy < 0 {
		http.NotFound(rec, r)
	}

	log.LogWithFields(
		log.F("request_id", id),
		log.F("method", r.Method),
		log.F("path", r.URL.Path),
		log.F("status", rec.status),
		log.F("handler", handledBy),
	).Debug("Handled request")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ResourceHandler serves files from ResourceBase. Requests for missing
// resources are declined so the next handler can answer them.
type ResourceHandler struct {
	ResourceBase      string   // Absolute directory served at "/"
	DirectoriesListed bool     // Render an index for directories without a welcome file
	WelcomeFiles      []string // Tried in order, relative to the requested directory
}

// Handle implements RequestHandler.
func (h *ResourceHandler) Handle(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	name := h.resolve(r.URL.Path)
	info, err := os.Stat(name)
	if err != nil {
		return false
	}

	if info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			target := url.URL{Path: r.URL.Path + "/", RawQuery: r.URL.RawQuery}
			noStore(w)
			http.Redirect(w, r, target.String(), http.StatusMovedPermanently)
			return true
		}
		if welcome, welcomeInfo := h.welcome(name); welcome != "" {
			serveFile(w, r, welcome, welcomeInfo)
			return true
		}
		if !h.DirectoriesListed {
			return false
		}
		noStore(w)
		listDirectory(w, r, name)
		return true
	}

	serveFile(w, r, name, info)
	return true
}

// resolve maps a URL path onto the resource base. Cleaning a rooted path
// removes every "..", so the result cannot leave the base.
func (h *ResourceHandler) resolve(urlPath string) string {
	clean := path.Clean("/" + urlPath)
	return filepath.Join(h.ResourceBase, filepath.FromSlash(clean))
}

func (h *ResourceHandler) welcome(dir string) (string, os.FileInfo) {
	for _, wf := range h.WelcomeFiles {
		candidate := filepath.Join(dir, wf)
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, info
		}
	}
	return "", nil
}

// Browsers must re-fetch everything so a refresh re-runs the latest specs.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

func serveFile(w http.ResponseWriter, r *http.Request, name string, info os.FileInfo) {
	f, err := os.Open(name)
	if err != nil {
		log.LogWithError(err).Warn("Cannot open resource")
		http.Error(w, "403 Forbidden", http.StatusForbidden)
		return
	}
	defer f.Close()

	noStore(w)
	if ctype := contentType(name, f); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// contentType prefers the extension and falls back to sniffing. f is
// rewound after sniffing.
func contentType(name string, f io.ReadSeeker) string {
	if ctype := mime.TypeByExtension(filepath.Ext(name)); ctype != "" {
		return ctype
	}
	mt, err := mimetype.DetectReader(f)
	if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil || err != nil {
		return ""
	}
	return mt.String()
}

// DefaultHandler answers every request it sees with 404 Not Found.
type DefaultHandler struct{}

// Handle implements RequestHandler.
func (DefaultHandler) Handle(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusNotFound)
		return true
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><title>Error 404 Not Found</title></head>\n"+
		"<body><h2>HTTP ERROR 404</h2>\n<p>Problem accessing %s. Reason: Not Found</p></body></html>\n",
		html.EscapeString(r.URL.Path))
	return true
}
