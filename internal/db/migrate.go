package db

import (
	"fmt"

	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/models"
	"gorm.io/gorm"
)

// Migrate applies schema migrations for all application models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.WalletNonce{},
		&models.WalletLink{},
		&models.LoginToken{},
		&models.Setting{},
	)
}
