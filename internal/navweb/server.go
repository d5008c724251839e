// Package navweb exposes the processing pipeline over HTTP: log upload,
// background processing jobs, alignment results, and debug charts.
package navweb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/navsync/internal/monitoring"
	"github.com/banshee-data/navsync/internal/nav/pipeline"
	"github.com/banshee-data/navsync/internal/navdb"
	"github.com/banshee-data/navsync/internal/security"
	"github.com/banshee-data/navsync/internal/version"
)

// Server handles the HTTP interface around upload/process jobs.
type Server struct {
	address string
	db      *navdb.DB
	dataDir string
	server  *http.Server

	mu      sync.Mutex
	results map[string]*pipeline.Results
}

// ServerConfig contains configuration options for the web server.
type ServerConfig struct {
	Address string
	DB      *navdb.DB
	DataDir string
}

// NewServer creates a new web server with the provided configuration.
func NewServer(config ServerConfig) *Server {
	s := &Server{
		address: config.Address,
		db:      config.DB,
		dataDir: config.DataDir,
		results: make(map[string]*pipeline.Results),
	}

	s.server = &http.Server{
		Addr:    s.address,
		Handler: s.ServeMux(),
	}

	return s
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/process", s.handleProcess)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/results", s.handleResults)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/charts/alignment", s.handleAlignmentChart)
	mux.HandleFunc("/charts/resample", s.handleResampleChart)
	mux.HandleFunc("/charts/trajectory", s.handleTrajectoryChart)

	return mux
}

// Start begins the HTTP server in a goroutine and shuts it down when the
// context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("starting HTTP server on %s", s.address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := s.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	return nil
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("failed to encode response: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok", "version": version.String()})
}

// handleUpload accepts a multipart form with "position" and "inertial" log
// files (and an optional "fused" file), stores them under a fresh job
// directory, and records the job.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("bad multipart form: %v", err))
		return
	}

	jobDir := filepath.Join(s.dataDir, uuid.NewString())
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create job dir: %v", err))
		return
	}

	saved := map[string]string{}
	for _, field := range []string{"position", "inertial", "fused"} {
		path, err := s.saveUpload(r, field, jobDir)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("failed to save %s file: %v", field, err))
			return
		}
		saved[field] = path
	}

	if saved["position"] == "" || saved["inertial"] == "" {
		os.RemoveAll(jobDir)
		s.writeJSONError(w, http.StatusBadRequest, "position and inertial files are required")
		return
	}

	jobID, err := s.db.CreateJob(saved["position"], saved["inertial"], saved["fused"])
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create job: %v", err))
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"job_id": jobID,
		"status": navdb.StatusUploaded,
		"files":  saved,
	})
}

func (s *Server) saveUpload(r *http.Request, field, dir string) (string, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	path := filepath.Join(dir, field+".log")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", err
	}
	return path, nil
}

// handleProcess kicks off pipeline processing for an uploaded job in the
// background. Tuning values come from form fields and fall back to defaults.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobID := r.FormValue("job_id")
	if jobID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing 'job_id' parameter")
		return
	}

	job, err := s.db.GetJob(jobID)
	if errors.Is(err, navdb.ErrNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load job: %v", err))
		return
	}
	if job.Status == navdb.StatusProcessing {
		s.writeJSONError(w, http.StatusConflict, "job is already processing")
		return
	}

	cfg, err := s.jobConfig(job, r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid configuration: %v", err))
		return
	}

	if err := s.db.SetJobStatus(jobID, navdb.StatusProcessing, ""); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update job: %v", err))
		return
	}

	go s.runJob(jobID, p, cfg)

	s.writeJSON(w, map[string]string{"job_id": jobID, "status": navdb.StatusProcessing})
}

func (s *Server) jobConfig(job *navdb.Job, r *http.Request) (*pipeline.Config, error) {
	cfg := &pipeline.Config{}

	if job.PositionFile == "" {
		return nil, fmt.Errorf("job has no position file")
	}
	if err := security.ValidatePathWithinDirectory(job.PositionFile, s.dataDir); err != nil {
		return nil, err
	}
	pos := job.PositionFile
	cfg.PositionFile = &pos

	if job.InertialFile == "" {
		return nil, fmt.Errorf("job has no inertial file")
	}
	if err := security.ValidatePathWithinDirectory(job.InertialFile, s.dataDir); err != nil {
		return nil, err
	}
	inertial := job.InertialFile
	cfg.InertialFile = &inertial

	if job.FusedFile != "" {
		if err := security.ValidatePathWithinDirectory(job.FusedFile, s.dataDir); err != nil {
			return nil, err
		}
		fused := job.FusedFile
		cfg.FusedFile = &fused
	}

	if m := r.FormValue("method"); m != "" {
		cfg.Method = &m
	}
	if b := r.FormValue("boundary"); b != "" {
		cfg.Boundary = &b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Server) runJob(jobID string, p *pipeline.Pipeline, cfg *pipeline.Config) {
	results, err := p.Run()
	if err != nil {
		monitoring.Logf("job %s failed: %v", jobID, err)
		if dbErr := s.db.SetJobStatus(jobID, navdb.StatusFailed, err.Error()); dbErr != nil {
			monitoring.Logf("job %s: failed to record failure: %v", jobID, dbErr)
		}
		return
	}

	s.mu.Lock()
	s.results[jobID] = results
	s.mu.Unlock()

	if err := s.db.SaveReport(jobID, cfg.GetMethod(), len(results.Resampled), results.Report); err != nil {
		monitoring.Logf("job %s: failed to save report: %v", jobID, err)
		if dbErr := s.db.SetJobStatus(jobID, navdb.StatusFailed, err.Error()); dbErr != nil {
			monitoring.Logf("job %s: failed to record failure: %v", jobID, dbErr)
		}
		return
	}
	if err := s.db.SetJobStatus(jobID, navdb.StatusCompleted, ""); err != nil {
		monitoring.Logf("job %s: failed to mark completed: %v", jobID, err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing 'job_id' parameter")
		return
	}

	job, err := s.db.GetJob(jobID)
	if errors.Is(err, navdb.ErrNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load job: %v", err))
		return
	}

	s.writeJSON(w, job)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing 'job_id' parameter")
		return
	}

	report, method, resampledCount, err := s.db.GetReport(jobID)
	if errors.Is(err, navdb.ErrNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "no results for job")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load report: %v", err))
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"job_id":          jobID,
		"method":          method,
		"resampled_count": resampledCount,
		"report":          report,
	})
}

// handleJobs lists jobs on GET and removes one on DELETE.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jobs, err := s.db.ListJobs()
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list jobs: %v", err))
			return
		}
		s.writeJSON(w, map[string]interface{}{"jobs": jobs})

	case http.MethodDelete:
		jobID := r.URL.Query().Get("job_id")
		if jobID == "" {
			s.writeJSONError(w, http.StatusBadRequest, "missing 'job_id' parameter")
			return
		}
		job, err := s.db.GetJob(jobID)
		if errors.Is(err, navdb.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load job: %v", err))
			return
		}
		if err := s.db.DeleteJob(jobID); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete job: %v", err))
			return
		}
		s.mu.Lock()
		delete(s.results, jobID)
		s.mu.Unlock()
		if job.PositionFile != "" {
			if err := os.RemoveAll(filepath.Dir(job.PositionFile)); err != nil {
				monitoring.Logf("job %s: failed to remove data dir: %v", jobID, err)
			}
		}
		s.writeJSON(w, map[string]string{"job_id": jobID, "status": "deleted"})

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) jobResults(jobID string) *pipeline.Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[jobID]
}
