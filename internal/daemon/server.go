package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/lkaiser/livecap/internal/backend"
	"github.com/lkaiser/livecap/internal/db"
	"github.com/lkaiser/livecap/internal/subtitle"
)

// allowedExtensions are the media types accepted by the upload endpoint.
var allowedExtensions = map[string]bool{
	".mp4": true,
	".mp3": true,
	".wav": true,
}

// Server wires the HTTP endpoints to the cache store, the event hub and
// the background transcription jobs.
type Server struct {
	DataDir     string
	Store       *db.Store
	Hub         *Hub
	Transcriber Transcriber
	Summarizer  Summarizer

	mu   sync.Mutex
	jobs map[string]bool // filenames currently transcribing
}

func NewServer(dataDir string, store *db.Store, hub *Hub, tr Transcriber, sum Summarizer) *Server {
	return &Server{
		DataDir:     dataDir,
		Store:       store,
		Hub:         hub,
		Transcriber: tr,
		Summarizer:  sum,
		jobs:        make(map[string]bool),
	}
}

// Router builds the HTTP surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/pre-upload", s.handlePreUpload)
	r.Post("/upload", s.handleUpload)
	r.Post("/summary", s.handleSummary)
	r.Get("/status", s.handleStatus)
	return r
}

type filenameRequest struct {
	Filename string `json:"filename"`
}

// handlePreUpload answers whether a compiled subtitle document already
// exists: 200 with the document, or 204 when the client should upload.
func (s *Server) handlePreUpload(w http.ResponseWriter, r *http.Request) {
	var req filenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeJSON(w, http.StatusBadRequest, backend.PreCheckResponse{Error: "missing filename"})
		return
	}

	entry, err := s.Store.Lookup(sanitizeFilename(req.Filename))
	if err != nil {
		log.Printf("pre-upload: lookup %s: %v", req.Filename, err)
		writeJSON(w, http.StatusInternalServerError, backend.PreCheckResponse{Error: "cache lookup failed"})
		return
	}
	if !entry.HasSubtitles() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, backend.PreCheckResponse{
		Message:   "subtitles already generated",
		Subtitles: entry.Subtitles,
	})
}

// handleUpload receives the media file and starts a background
// transcription job. It answers 202 before any subtitles exist; results
// arrive on the event socket.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, backend.UploadResponse{Error: "no file in request"})
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, backend.UploadResponse{Error: "invalid filename"})
		return
	}
	if ext := strings.ToLower(filepath.Ext(filename)); !allowedExtensions[ext] {
		writeJSON(w, http.StatusBadRequest, backend.UploadResponse{
			Error: fmt.Sprintf("unsupported file type %q", ext),
		})
		return
	}

	uploadDir := filepath.Join(s.DataDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Printf("upload: create dir: %v", err)
		writeJSON(w, http.StatusInternalServerError, backend.UploadResponse{Error: "could not store upload"})
		return
	}

	dst := filepath.Join(uploadDir, filename)
	out, err := os.Create(dst)
	if err != nil {
		log.Printf("upload: create %s: %v", dst, err)
		writeJSON(w, http.StatusInternalServerError, backend.UploadResponse{Error: "could not store upload"})
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dst)
		log.Printf("upload: write %s: %v", dst, err)
		writeJSON(w, http.StatusInternalServerError, backend.UploadResponse{Error: "could not store upload"})
		return
	}
	out.Close()

	s.mu.Lock()
	running := s.jobs[filename]
	if !running {
		s.jobs[filename] = true
	}
	s.mu.Unlock()

	if running {
		writeJSON(w, http.StatusAccepted, backend.UploadResponse{
			Message:  "transcription already in progress",
			Filename: filename,
		})
		return
	}

	go s.transcribeJob(filename, dst)

	writeJSON(w, http.StatusAccepted, backend.UploadResponse{
		Message:  "transcription started",
		Filename: filename,
	})
}

// transcribeJob runs one file through the transcriber, broadcasting
// every batch as it lands and caching the compiled document at the end.
func (s *Server) transcribeJob(filename, path string) {
	jobID := uuid.NewString()
	log.Printf("job %s: transcribing %s", jobID, filename)

	defer func() {
		s.mu.Lock()
		delete(s.jobs, filename)
		s.mu.Unlock()
	}()

	// Announce the job before the first chunk so clients switch to the
	// streaming view immediately.
	s.Hub.Broadcast(backend.Event{
		Event:            backend.EventSubtitleChunk,
		OriginalFilename: filename,
		Segments:         []subtitle.Segment{},
	})

	store := subtitle.NewStore()
	duration, err := s.Transcriber.Transcribe(context.Background(), path, func(batch []subtitle.Segment) {
		store.Ingest(batch)
		s.Hub.Broadcast(backend.Event{
			Event:            backend.EventSubtitleChunk,
			OriginalFilename: filename,
			Segments:         batch,
		})
	})
	if err != nil {
		log.Printf("job %s: %v", jobID, err)
		s.Hub.Broadcast(backend.Event{
			Event:            backend.EventTranscriptionError,
			OriginalFilename: filename,
			Message:          fmt.Sprintf("transcription failed: %v", err),
		})
		return
	}

	doc := subtitle.FormatWebVTT(store.Segments())
	if err := s.Store.SaveSubtitles(filename, doc, duration); err != nil {
		log.Printf("job %s: cache: %v", jobID, err)
	}

	log.Printf("job %s: done, %d segments", jobID, store.Len())
	s.Hub.Broadcast(backend.Event{
		Event:            backend.EventTranscriptionDone,
		OriginalFilename: filename,
	})
}

// handleSummary returns the cached summary or generates one from the
// finished transcription.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req filenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeJSON(w, http.StatusBadRequest, backend.SummaryResponse{Error: "missing filename"})
		return
	}

	filename := sanitizeFilename(req.Filename)
	entry, err := s.Store.Lookup(filename)
	if err != nil {
		log.Printf("summary: lookup %s: %v", filename, err)
		writeJSON(w, http.StatusInternalServerError, backend.SummaryResponse{Error: "cache lookup failed"})
		return
	}
	if entry.HasSummary() {
		writeJSON(w, http.StatusOK, backend.SummaryResponse{Summary: entry.Summary})
		return
	}
	if !entry.HasSubtitles() {
		writeJSON(w, http.StatusNotFound, backend.SummaryResponse{
			Error: fmt.Sprintf("no transcription for %s", filename),
		})
		return
	}

	summary, err := s.Summarizer.Summarize(r.Context(), entry.Subtitles)
	if err != nil {
		log.Printf("summary: generate %s: %v", filename, err)
		writeJSON(w, http.StatusInternalServerError, backend.SummaryResponse{
			Error: fmt.Sprintf("summary generation failed: %v", err),
		})
		return
	}
	if err := s.Store.SaveSummary(filename, summary); err != nil {
		log.Printf("summary: cache %s: %v", filename, err)
	}

	writeJSON(w, http.StatusOK, backend.SummaryResponse{Summary: summary})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cached, err := s.Store.Count()
	if err != nil {
		log.Printf("status: count: %v", err)
	}

	s.mu.Lock()
	active := len(s.jobs)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, backend.StatusResponse{
		Status: "ok",
		Message: fmt.Sprintf("%d cached, %d transcribing, %d subscribers",
			cached, active, s.Hub.Subscribers()),
	})
}

// sanitizeFilename reduces a client-supplied name to a safe base name.
// Path separators and hidden-file prefixes are rejected.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
