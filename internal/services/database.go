package services

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"clubsphere/internal/logger"
	"clubsphere/internal/models"
)

// GormConfig is shared by the postgres connection and the sqlite test databases.
// TranslateError turns unique index violations into gorm.ErrDuplicatedKey.
func GormConfig(debug bool) *gorm.Config {
	level := gormLogger.Warn
	if debug {
		level = gormLogger.Info
	}
	return &gorm.Config{
		Logger:                                   gormLogger.Default.LogMode(level),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// InitDB initializes the database connection with connection pooling
func InitDB(dsn string, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig(debug))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Named("database").Info("Database connection established")
	return db, nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	log := logger.Named("database")
	log.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Club{},
		&models.Event{},
		&models.Membership{},
		&models.EventRegistration{},
		&models.Payment{},
		&models.ScheduledTask{},
		&models.ScheduledTaskHistory{},
	)
	if err != nil {
		return err
	}

	log.Info("Database migrations completed")
	return nil
}
