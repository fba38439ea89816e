// Package wire provides dependency injection for the loom application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"

	"github.com/example/loom/internal/adapters/sqlite"
	"github.com/example/loom/internal/app"
	"github.com/example/loom/internal/config"
	"github.com/example/loom/internal/db"
	"github.com/example/loom/internal/ports/primary"
)

var (
	planService  primary.PlanService
	queryService primary.QueryService
	once         sync.Once
)

// PlanService returns the singleton PlanService instance.
func PlanService() primary.PlanService {
	once.Do(initServices)
	return planService
}

// QueryService returns the singleton QueryService instance.
func QueryService() primary.QueryService {
	once.Do(initServices)
	return queryService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	// A local config may relocate the database
	if cfg, err := config.LoadConfig("."); err == nil && cfg.DatabasePath != "" {
		db.SetPath(cfg.DatabasePath)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	logWriter := sqlite.NewOperationLog(database)
	store := sqlite.NewPlanStore(database, logWriter)

	planService = app.NewPlanService(store)
	queryService = app.NewQueryService(store)
}
