package database

import (
	"fmt"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/config"
	logging "github.com/AndriiKulakovskyi/efondamental-sub001/internal/logging"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	// Create our custom GORM logger
	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})

	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")
	runMigrations(log)
}

func runMigrations(log *zap.Logger) {
	// GORM's AutoMigrate will create tables, columns, and foreign keys.
	// It will NOT create custom indexes, so we handle that separately.
	err := DB.AutoMigrate(
		&models.User{},
		&models.Patient{},
		&models.ResponseRecord{},
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	// The follow-up timeline reads one patient's scores for one instrument
	// in chronological order; index for exactly that access path.
	timelineIndex := `CREATE INDEX IF NOT EXISTS idx_responses_timeline ON response_records (patient_id, instrument_code, created_at);`
	if err := DB.Exec(timelineIndex).Error; err != nil {
		log.Fatal("Failed to create timeline index", zap.Error(err))
	}
}
