package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Limits carries the booking policy knobs. All values come from the
// environment with the documented defaults; main loads .env first via
// godotenv.
type Limits struct {
	DriverDailyRequestLimit      int `envconfig:"DRIVER_DAILY_REQUEST_LIMIT" default:"5"`
	OperatorDailyInvitationLimit int `envconfig:"OPERATOR_DAILY_INVITATION_LIMIT" default:"5"`
	BookingRequestExpiryDays     int `envconfig:"BOOKING_REQUEST_EXPIRY_DAYS" default:"3"`
	CarInactivityDays            int `envconfig:"CAR_INACTIVITY_DAYS" default:"7"`
	NotificationRetentionDays    int `envconfig:"NOTIFICATION_RETENTION_DAYS" default:"7"`
	SweepIntervalMinutes         int `envconfig:"SWEEP_INTERVAL_MINUTES" default:"60"`
}

// LoadLimits reads the limits from the environment.
func LoadLimits() (Limits, error) {
	var l Limits
	err := envconfig.Process("", &l)
	return l, err
}

// DefaultLimits returns the documented defaults without touching the
// environment. Used by tests.
func DefaultLimits() Limits {
	return Limits{
		DriverDailyRequestLimit:      5,
		OperatorDailyInvitationLimit: 5,
		BookingRequestExpiryDays:     3,
		CarInactivityDays:            7,
		NotificationRetentionDays:    7,
		SweepIntervalMinutes:         60,
	}
}

// RequestTTL is the lifetime of a pending request.
func (l Limits) RequestTTL() time.Duration {
	return time.Duration(l.BookingRequestExpiryDays) * 24 * time.Hour
}

// InactivityWindow is how long a car may sit unedited before it is
// auto-deactivated.
func (l Limits) InactivityWindow() time.Duration {
	return time.Duration(l.CarInactivityDays) * 24 * time.Hour
}

// NotificationRetention is how long notification history is kept.
func (l Limits) NotificationRetention() time.Duration {
	return time.Duration(l.NotificationRetentionDays) * 24 * time.Hour
}

// SweepInterval is the period of the background expiry sweep.
func (l Limits) SweepInterval() time.Duration {
	return time.Duration(l.SweepIntervalMinutes) * time.Minute
}
