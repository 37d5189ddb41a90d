// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/felicity-events/felicity-api/internal/notify"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

// NewDB opens a migrated in-memory database that lives as long as the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, dao.InitTables(db))

	return db
}

// Dispatcher records dispatched jobs instead of running them.
type Dispatcher struct {
	mu   sync.Mutex
	jobs []notify.Job
}

func (d *Dispatcher) Dispatch(_ context.Context, job notify.Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
}

func (d *Dispatcher) Jobs() []notify.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Job(nil), d.jobs...)
}

type Broadcast struct {
	Room string
	Type string
	Data interface{}
}

// Broadcaster records broadcasts instead of sending them.
type Broadcaster struct {
	mu   sync.Mutex
	sent []Broadcast
}

func (b *Broadcaster) Broadcast(room, frameType string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, Broadcast{Room: room, Type: frameType, Data: data})
}

func (b *Broadcaster) Sent() []Broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Broadcast(nil), b.sent...)
}
