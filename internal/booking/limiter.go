package booking

import (
	"context"
	"time"

	"github.com/chachabrian/carmitra-backend/internal/config"
	"github.com/chachabrian/carmitra-backend/internal/models"
	"gorm.io/gorm"
)

// RateLimiter caps how many requests or invitations an actor may initiate
// per calendar day. Counts are derived from booking_request rows rather than
// a separate counter, at the cost of one count query per create. Day
// boundaries are UTC midnight.
type RateLimiter struct {
	db     *gorm.DB
	limits config.Limits
	now    Clock
}

// LimitStatus is the result of a daily-cap check.
type LimitStatus struct {
	Allowed   bool `json:"allowed"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
}

func NewRateLimiter(db *gorm.DB, limits config.Limits, now Clock) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{db: db, limits: limits, now: now}
}

// LimitFor returns the configured daily cap for a role.
func (l *RateLimiter) LimitFor(role models.Role) int {
	if role == models.RoleOperator {
		return l.limits.OperatorDailyInvitationLimit
	}
	return l.limits.DriverDailyRequestLimit
}

// CountInitiatedToday counts the requests the actor initiated since UTC
// midnight. Cancelled rows do not count toward the cap: a cancelled ask
// frees its slot, matching the behavior when cancellation removed the row
// outright.
func (l *RateLimiter) CountInitiatedToday(ctx context.Context, actorID uint, role models.Role) (int64, error) {
	now := l.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	q := l.db.WithContext(ctx).Model(&models.BookingRequest{}).
		Where("initiated_by = ?", role).
		Where("created_at >= ?", dayStart).
		Where("status <> ?", models.RequestStatusCancelled)

	if role == models.RoleOperator {
		q = q.Where("operator_id = ?", actorID)
	} else {
		q = q.Where("driver_id = ?", actorID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CheckLimit reports whether the actor may initiate another request today.
func (l *RateLimiter) CheckLimit(ctx context.Context, actorID uint, role models.Role) (LimitStatus, error) {
	limit := l.LimitFor(role)

	count, err := l.CountInitiatedToday(ctx, actorID, role)
	if err != nil {
		return LimitStatus{}, err
	}

	used := int(count)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return LimitStatus{
		Allowed:   used < limit,
		Used:      used,
		Remaining: remaining,
		Limit:     limit,
	}, nil
}
