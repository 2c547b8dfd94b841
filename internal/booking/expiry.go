package booking

import (
	"time"

	"github.com/chachabrian/carmitra-backend/internal/config"
	"github.com/chachabrian/carmitra-backend/internal/models"
)

// Clock supplies the current time. Production uses time.Now; tests pin it.
type Clock func() time.Time

// ExpiryEvaluator holds the pure time predicates shared by every expiry
// path. The lazy read-time checks and the background sweep both go through
// this type so the two paths cannot disagree.
type ExpiryEvaluator struct {
	requestTTL       time.Duration
	inactivityWindow time.Duration
	now              Clock
}

func NewExpiryEvaluator(limits config.Limits, now Clock) *ExpiryEvaluator {
	if now == nil {
		now = time.Now
	}
	return &ExpiryEvaluator{
		requestTTL:       limits.RequestTTL(),
		inactivityWindow: limits.InactivityWindow(),
		now:              now,
	}
}

// RequestExpiry computes the expires_at for a request created at createdAt.
func (e *ExpiryEvaluator) RequestExpiry(createdAt time.Time) time.Time {
	return createdAt.Add(e.requestTTL)
}

// IsRequestExpired reports whether a pending request has outlived its TTL.
// Terminal requests never expire.
func (e *ExpiryEvaluator) IsRequestExpired(req *models.BookingRequest) bool {
	if req == nil || req.Status != models.RequestStatusPending {
		return false
	}
	if req.ExpiresAt.IsZero() {
		return false
	}
	return e.now().After(req.ExpiresAt)
}

// IsCarInactive reports whether an active car has sat unedited past the
// inactivity window. Already-deactivated cars are not "inactive"; they are
// simply off.
func (e *ExpiryEvaluator) IsCarInactive(car *models.Car) bool {
	if car == nil || !car.IsActive {
		return false
	}
	if car.LastActiveAt.IsZero() {
		return false
	}
	return car.LastActiveAt.Before(e.InactivityThreshold())
}

// InactivityThreshold returns the cutoff before which last_active_at marks a
// car stale. Listing queries use it to pre-filter without a round trip per
// car.
func (e *ExpiryEvaluator) InactivityThreshold() time.Time {
	return e.now().Add(-e.inactivityWindow)
}

// Now reports the evaluator's clock so callers stamping activity use the
// same time source as the predicates.
func (e *ExpiryEvaluator) Now() time.Time {
	return e.now()
}
