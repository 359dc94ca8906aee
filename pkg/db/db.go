package db

import (
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hanbit-edu/hanbit-server/pkg/config"
	"github.com/hanbit-edu/hanbit-server/pkg/logger"
)

// Export DB variable
var DB *gorm.DB

func InitDB(cfg config.DatabaseConfig) error {
	var err error
	dsn := "host=" + cfg.Host +
		" user=" + cfg.User +
		" password=" + cfg.Password +
		" dbname=" + cfg.DBName +
		" port=" + strconv.Itoa(cfg.Port) +
		" sslmode=" + cfg.SSLMode
	gormLogger, gormErr := newGormLogger(config.AppConfig.Logging.GormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", config.AppConfig.Logging.GormLevel, "error", gormErr)
	}
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	if err := Migrate(DB); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return err
	}
	return nil
}

// Migrate creates or updates the schema for all scheduler tables.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&Vocabulary{}, &ProgressRecord{}, &ReviewLog{})
}
