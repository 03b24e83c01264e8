package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/securepath-labs/compliance-service/internal/config"
	"github.com/securepath-labs/compliance-service/internal/models"
)

// InitDatabase opens the Postgres connection, tunes the pool and runs
// schema migrations.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.RoleAuditLog{},
		&models.TrainingModule{},
		&models.Quiz{},
		&models.Question{},
		&models.QuizResult{},
		&models.UserProgress{},
		&models.CertificationTemplate{},
		&models.Certification{},
	); err != nil {
		return err
	}

	// AutoMigrate cannot express partial indexes. This one backstops the
	// transactional duplicate check: at most one active certification per
	// (user, title).
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_cert
		ON certifications (user_id, title)
		WHERE status = 'active'
	`).Error
}
