// Package db wires up the PostGIS-backed spatial store connection: spots,
// facilities, access points live in Postgres with PostGIS geometry columns;
// job_run lives in the same database.
package db

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
	"github.com/takahashiJe/navpack-orchestrator/internal/platform/config"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger, cfg config.Config) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.SpatialDBUser,
		cfg.SpatialDBPassword,
		cfg.SpatialDBHost,
		cfg.SpatialDBPort,
		cfg.SpatialDBName,
	)

	gormLog := gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}
	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS postgis;`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable postgis extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

// AutoMigrateAll creates/updates the job_run table. The spots, facilities,
// and access_points tables are owned by the offline knowledge-base
// bootstrap scripts (§1 Non-goals); this service only migrates the table
// it writes.
func (s *PostgresService) AutoMigrateAll() error {
	return s.db.AutoMigrate(&navpack.JobRun{})
}
