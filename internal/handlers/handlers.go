package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gymjs/muscle-selector/internal/cache"
	"github.com/gymjs/muscle-selector/internal/exercises"
	"github.com/gymjs/muscle-selector/internal/logging"
	"github.com/gymjs/muscle-selector/internal/parser"
	"github.com/gymjs/muscle-selector/internal/persistence"
	"github.com/gymjs/muscle-selector/internal/profile"
	"github.com/gymjs/muscle-selector/internal/selection"
	"github.com/gymjs/muscle-selector/internal/session"
	"github.com/gymjs/muscle-selector/internal/storage"
	"github.com/gymjs/muscle-selector/pkg/core"
)

// MetricsRecorder receives interaction metrics. influx.Recorder implements it.
type MetricsRecorder interface {
	RecordDrag(sessionID string, labelID core.LabelID, from, to core.Position)
	RecordSave(sessionID string, labels int, err error)
	RecordCommand(command, sessionID string, took time.Duration, err error)
}

// ErrorReporter receives failures worth alerting on. sentry.Reporter
// implements it.
type ErrorReporter interface {
	CaptureException(err error, tags map[string]string)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Sessions      *cache.SessionCache
	Storage       storage.Backend
	Parser        *parser.Parser
	Exercises     *exercises.Catalog
	Profiles      *profile.Service
	Metrics       MetricsRecorder
	Reporter      ErrorReporter
	LogManager    *logging.SlogManager
	SessionConfig session.Config
	Layout        persistence.Config
}

// Service owns editor sessions and answers the commands sent to them.
type Service struct {
	deps         Dependencies
	gateway      *persistence.Gateway
	handled      cache.SafeCounter
	writeLogFunc func(functionName, data, level string)
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Sessions == nil {
		deps.Sessions = cache.NewSessionCache()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(nil)
	}
	s := &Service{deps: deps}
	// Default writeLog function uses the logging manager
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	s.gateway = persistence.New(deps.Storage, deps.Layout, s.logger())
	return s
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

func (s *Service) logger() *slog.Logger {
	if s.deps.LogManager != nil {
		return s.deps.LogManager.Logger()
	}
	return slog.Default()
}

// Gateway exposes the layout slot for maintenance commands.
func (s *Service) Gateway() *persistence.Gateway {
	return s.gateway
}

// Sessions returns the session registry.
func (s *Service) Sessions() *cache.SessionCache {
	return s.deps.Sessions
}

// Handled returns how many commands have been answered.
func (s *Service) Handled() int {
	return s.handled.Value()
}

// CreateSession opens a session on the stored layout.
func (s *Service) CreateSession() *session.Session {
	id := uuid.NewString()
	var lookup selection.ExerciseLookup
	if s.deps.Exercises != nil {
		lookup = s.deps.Exercises
	}
	sess := session.New(id, s.deps.SessionConfig, s.gateway, lookup)
	s.deps.Sessions.Add(sess)
	s.writeLog("CreateSession", fmt.Sprintf("Opened session %s (restored=%t)", id, sess.State().Restored), "INFO")
	return sess
}

// Session looks a session up by id.
func (s *Service) Session(id string) (*session.Session, error) {
	return s.deps.Sessions.Lookup(id)
}

// CloseSession forgets a session. Unsaved edits are discarded.
func (s *Service) CloseSession(id string) error {
	if !s.deps.Sessions.Delete(id) {
		return session.ErrUnknownSession
	}
	s.writeLog("CloseSession", fmt.Sprintf("Closed session %s", id), "INFO")
	return nil
}

// Exercises returns the exercises for a muscle name.
func (s *Service) Exercises(muscle string) []string {
	if s.deps.Exercises == nil {
		return []string{}
	}
	return s.deps.Exercises.Lookup(muscle)
}

// Muscles lists the catalogue's muscle names.
func (s *Service) Muscles() []string {
	if s.deps.Exercises == nil {
		return []string{}
	}
	return s.deps.Exercises.Muscles()
}

// Profiles returns the profile service, or nil when none is configured.
func (s *Service) Profiles() *profile.Service {
	return s.deps.Profiles
}
