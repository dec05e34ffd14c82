// Package sqlitestorage keeps layout slots in SQLite. A file path gives a
// durable database; without one the database lives in memory and is
// snapshotted to DumpPath on an interval and on Close.
package sqlitestorage

import (
	"fmt"
	"sync"
	"time"

	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/database"
	"github.com/gymjs/muscle-selector/internal/logging"
	gormstorage "github.com/gymjs/muscle-selector/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend is the gorm backend plus the snapshot loop.
type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	cfg config.SQLiteConfig
	log *logging.SlogManager

	stop      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// New opens the database described by cfg. logManager may be nil.
func New(cfg config.SQLiteConfig, logManager *logging.SlogManager) (*Backend, error) {
	db, err := database.OpenSQLite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, LogManager: logManager}),
		db:      db,
		cfg:     cfg,
		log:     logManager,
		stop:    make(chan struct{}),
	}, nil
}

func (b *Backend) Describe() string {
	if b.cfg.Path != "" {
		return "sqlite:" + b.cfg.Path
	}
	return "sqlite:memory->" + b.cfg.DumpPath
}

// Init migrates the schema and, for an in-memory database with a dump
// target, starts the snapshot loop.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.snapshots() {
		b.loopDone = make(chan struct{})
		go b.snapshotLoop()
	}
	return nil
}

// Close stops the loop, takes a last snapshot and closes the database.
// Calls after the first are no-ops.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stop)
		if b.loopDone != nil {
			<-b.loopDone
			b.snapshot("sqlite:Close")
		}
		err = b.Backend.Close()
	})
	return err
}

func (b *Backend) snapshots() bool {
	return b.cfg.Path == "" && b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0
}

func (b *Backend) snapshotLoop() {
	defer close(b.loopDone)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.snapshot("sqlite:snapshotLoop")
		}
	}
}

// snapshot writes the database to DumpPath. VACUUM INTO reads a consistent
// view, so writers keep going while it runs.
func (b *Backend) snapshot(caller string) {
	start := time.Now()
	if err := database.DumpToFile(b.db, b.cfg.DumpPath); err != nil {
		b.writeLog(caller, fmt.Sprintf("Error dumping to %s: %v", b.cfg.DumpPath, err), "ERROR")
		return
	}
	b.writeLog(caller, fmt.Sprintf("Dumped to %s in %s", b.cfg.DumpPath, time.Since(start)), "DEBUG")
}

func (b *Backend) writeLog(functionName, data, level string) {
	if b.log != nil {
		b.log.WriteLog(functionName, data, level)
	}
}
