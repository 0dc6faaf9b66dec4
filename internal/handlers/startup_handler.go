package handlers

import (
	"net/http"
	"strings"
	"sync"
)

// Startup step names
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepRules      = "Loading stage rules"
	StepHandoffs   = "Connecting handoff store"
	StepServices   = "Initializing services"
	StepReady      = "Server ready"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a status with the given steps, none completed
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{Current: "Initializing..."}
	for _, name := range steps {
		s.Steps = append(s.Steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.Steps {
		if s.Steps[i].Name == stepName {
			s.Steps[i].Completed = true
			break
		}
	}

	completed := 0
	for _, step := range s.Steps {
		if step.Completed {
			completed++
		}
	}
	if len(s.Steps) > 0 {
		s.Progress = (completed * 100) / len(s.Steps)
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ready = true
	s.Current = StepReady
	s.Progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Ready
}

// ShowStatus reports the startup progress. It answers 503 until ready.
func (s *StartupStatus) ShowStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snapshot := StartupStatus{
		Ready:    s.Ready,
		Current:  s.Current,
		Progress: s.Progress,
		Steps:    append([]StartupStep(nil), s.Steps...),
	}
	s.mu.RUnlock()

	status := http.StatusOK
	if !snapshot.Ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, &snapshot)
}

// Gate rejects API requests with 503 until the server is ready. The health
// endpoint stays reachable.
func (s *StartupStatus) Gate(healthPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.IsReady() && r.URL.Path != healthPath && strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Retry-After", "1")
			respondWithError(w, http.StatusServiceUnavailable, "Server is starting up", "", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
