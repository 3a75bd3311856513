// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/internal/database"
	"github.com/Additional-Code/sketchbook/internal/migration"
	"github.com/Additional-Code/sketchbook/internal/model"
)

var dbSeq atomic.Int64

// SetupTestDB opens an isolated in-memory sqlite database with the sketches
// schema applied. It is closed when the test finishes.
func SetupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.Open("sqlite", dsn, config.Database{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mig, err := migration.NewForDB("sqlite", db, zap.NewNop())
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	if err := mig.Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Connections wraps a single handle as both writer and reader.
func Connections(db *bun.DB) *database.Connections {
	return &database.Connections{Writer: db, Reader: db, Driver: "sqlite"}
}

// Config returns a configuration suitable for wiring components in tests.
func Config() config.Config {
	return config.Config{
		Cache:    config.Cache{Enabled: false, Driver: "noop"},
		Database: config.Database{Driver: "sqlite"},
		Store:    config.Store{PageSize: 7},
		Feed:     config.Feed{Driver: "local", Channel: "sketches_changes", Buffer: 16},
		Auth:     config.Auth{Passcode: "letmein"},
	}
}

// Sketch builds a valid sketch with the given identity and creation time.
func Sketch(id, orderNumber string, createdAt int64) model.Sketch {
	return model.Sketch{
		ID:             id,
		OrderNumber:    orderNumber,
		Gender:         model.GenderGents,
		Status:         model.StatusProcessing,
		DesignerName:   "Bilal",
		PaymentStatus:  model.PaymentPending,
		ProductionUnit: model.UnitMNRProduction,
		CreatedAt:      createdAt,
	}
}
