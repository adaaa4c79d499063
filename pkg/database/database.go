package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vetlink/vetlink/internal/config"
	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/appointment"
	"github.com/vetlink/vetlink/internal/domain/pet"
	"github.com/vetlink/vetlink/internal/domain/pharmacy"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt: true,
		// TranslateError maps driver unique-violation errors to
		// gorm.ErrDuplicatedKey, which the repositories rely on to
		// detect double-booked slots and taken usernames.
		TranslateError:       true,
		DisableAutomaticPing: false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	models := []any{
		&domain.User{},
		&domain.PasswordResetToken{},
		&pet.Pet{},
		&pet.SkinScan{},
		&pet.GaitAnalysis{},
		&appointment.Appointment{},
		&pharmacy.Pharmacy{},
		&pharmacy.InventoryItem{},
		&pharmacy.MedicationSale{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// The partial unique index is the authoritative guard against two
		// requests booking the same slot: only pending and accepted
		// appointments occupy a slot, so cancelled or rejected ones free
		// it for rebooking.
		{
			name:  "uq_appointments_active_slot",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS uq_appointments_active_slot ON appointments (veterinarian_id, appointment_date, appointment_time) WHERE status IN ('pending', 'accepted')`,
		},
		{
			name:  "idx_appointments_vet_date",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_vet_date ON appointments (veterinarian_id, appointment_date, status)`,
		},
		{
			name:  "idx_sales_pharmacy_sold_at",
			query: `CREATE INDEX IF NOT EXISTS idx_sales_pharmacy_sold_at ON medication_sales (pharmacy_id, sold_at)`,
		},
		{
			name:  "idx_inventory_expiry",
			query: `CREATE INDEX IF NOT EXISTS idx_inventory_expiry ON inventory_items (pharmacy_id, expiry_date)`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
