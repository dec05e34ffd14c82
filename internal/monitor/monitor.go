package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gymjs/muscle-selector/internal/handlers"
	"github.com/gymjs/muscle-selector/internal/logging"
)

// StatusFileName is the file rewritten on every tick inside Dependencies.Dir.
const StatusFileName = "status.txt"

// RecorderStats reports the interaction metrics buffer.
type RecorderStats interface {
	Pending() int
	Dropped() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	Service    *handlers.Service
	Recorder   RecorderStats
	Dir        string
	Interval   time.Duration
}

// SessionStatus is the editor side of a status snapshot.
type SessionStatus struct {
	Active  int      `json:"active"`
	IDs     []string `json:"ids"`
	Handled int      `json:"handled"`
}

// MetricsStatus is the interaction recorder side of a status snapshot.
type MetricsStatus struct {
	Pending int `json:"pending"`
	Dropped int `json:"dropped"`
}

// Status is one snapshot written to the status file.
type Status struct {
	Time     time.Time     `json:"time"`
	Layout   string        `json:"layout"`
	Sessions SessionStatus `json:"sessions"`
	Metrics  MetricsStatus `json:"metrics"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// StatusPath is where the status file is written.
func (s *Service) StatusPath() string {
	return filepath.Join(s.deps.Dir, StatusFileName)
}

// GetProgramStatus returns the current snapshot and its rendered sections.
func (s *Service) GetProgramStatus(sessions, metrics bool) (output []string, status Status) {
	status = Status{
		Time:   time.Now(),
		Layout: s.deps.Service.Gateway().Key(),
		Sessions: SessionStatus{
			Active:  s.deps.Service.Sessions().Len(),
			IDs:     s.deps.Service.Sessions().IDs(),
			Handled: s.deps.Service.Handled(),
		},
	}
	if s.deps.Recorder != nil {
		status.Metrics = MetricsStatus{
			Pending: s.deps.Recorder.Pending(),
			Dropped: s.deps.Recorder.Dropped(),
		}
	}

	if sessions {
		output = append(output, render(status.Sessions))
	}
	if metrics {
		output = append(output, render(status.Metrics))
	}
	return output, status
}

func render(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "%s"}`, err)
	}
	return string(b)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	statusFile, err := os.Create(s.StatusPath())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create status file: %w", err)
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	logger := s.deps.LogManager.Logger()
	logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor", "path", s.StatusPath())

	go func() {
		defer close(done)
		defer statusFile.Close()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		s.writeStatus(statusFile)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.writeStatus(statusFile)
			}
		}
	}()

	return nil
}

func (s *Service) writeStatus(f *os.File) {
	lines, _ := s.GetProgramStatus(true, true)
	if err := f.Truncate(0); err != nil {
		s.deps.LogManager.WriteLog("writeStatus", fmt.Sprintf("Error truncating status file: %v", err), "ERROR")
		return
	}
	if _, err := f.Seek(0, 0); err != nil {
		return
	}
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			s.deps.LogManager.WriteLog("writeStatus", fmt.Sprintf("Error writing status file: %v", err), "ERROR")
			return
		}
	}
}

// Stop stops the status monitor and waits for the final write to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
