package database

import (
	"github.com/chachabrian/carmitra-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Car{},
		&models.CarImage{},
		&models.BookingRequest{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}

	// At most one pending request per car, driver, and direction. The
	// partial index leaves terminal rows free to pile up as history, so a
	// cancelled or expired request never blocks a fresh one.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_requests_unique_pending
		ON booking_requests (car_id, driver_id, initiated_by)
		WHERE status = 'PENDING'`).Error; err != nil {
		return err
	}

	// Lookup paths used by the sweeps and listing queries.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_booking_requests_status_expires
		ON booking_requests (status, expires_at)`).Error; err != nil {
		return err
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cars_active_last_active
		ON cars (is_active, last_active_at)`).Error; err != nil {
		return err
	}

	return nil
}
