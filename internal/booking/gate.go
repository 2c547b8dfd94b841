package booking

import (
	"context"
	"time"

	"github.com/chachabrian/carmitra-backend/internal/models"
	"gorm.io/gorm"
)

// RequestExpirer expires every pending request referencing a car. The
// engine provides the implementation; the gate depends on the interface so
// the car side never imports booking-request internals.
type RequestExpirer interface {
	ExpireRequestsForCar(ctx context.Context, carID uint, carName string) (int64, error)
}

// AvailabilityGate is the single authority on whether a car may participate
// in a booking action, and the only place that performs the auto-deactivation
// side effect. Staleness is detected lazily on access; the background sweep
// reuses the same predicates.
type AvailabilityGate struct {
	db       *gorm.DB
	eval     *ExpiryEvaluator
	notifier Notifier
	expirer  RequestExpirer
	now      Clock
}

func NewAvailabilityGate(db *gorm.DB, eval *ExpiryEvaluator, notifier Notifier, expirer RequestExpirer, now Clock) *AvailabilityGate {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityGate{db: db, eval: eval, notifier: notifier, expirer: expirer, now: now}
}

// IsBookable reports whether the car may receive booking actions right now.
func (g *AvailabilityGate) IsBookable(car *models.Car) bool {
	return car != nil && car.IsActive && !g.eval.IsCarInactive(car)
}

// EnsureBookable verifies the car can participate in a booking action,
// deactivating it first if it has gone stale. Returns ErrCarNotAvailable
// when the car is (or just became) inactive.
func (g *AvailabilityGate) EnsureBookable(ctx context.Context, car *models.Car) error {
	if car == nil {
		return ErrCarNotFound
	}
	if car.IsActive && g.eval.IsCarInactive(car) {
		if _, err := g.Deactivate(ctx, car); err != nil {
			return err
		}
		return ErrCarNotAvailable
	}
	if !car.IsActive {
		return ErrCarNotAvailable
	}
	return nil
}

// Deactivate flips the car off, notifies the operator, and cascades the
// expiry into every pending request referencing it. Used by the lazy gate
// checks, the sweep, and explicit operator deactivation.
func (g *AvailabilityGate) Deactivate(ctx context.Context, car *models.Car) (int64, error) {
	res := g.db.WithContext(ctx).Model(&models.Car{}).
		Where("id = ? AND is_active = ?", car.ID, true).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Someone else already deactivated it; the cascade ran there.
		car.IsActive = false
		return 0, nil
	}
	car.IsActive = false

	g.notifier.CarAutoDeactivated(ctx, car.OperatorID, car.CarName, car.ID)

	return g.expirer.ExpireRequestsForCar(ctx, car.ID, car.CarName)
}

// FilterBookable drops stale cars from a listing result, deactivating each
// one it drops. Cars already inactive are filtered out as well.
func (g *AvailabilityGate) FilterBookable(ctx context.Context, cars []models.Car) ([]models.Car, error) {
	bookable := make([]models.Car, 0, len(cars))
	for i := range cars {
		car := &cars[i]
		if car.IsActive && g.eval.IsCarInactive(car) {
			if _, err := g.Deactivate(ctx, car); err != nil {
				return nil, err
			}
			continue
		}
		if car.IsActive {
			bookable = append(bookable, *car)
		}
	}
	return bookable, nil
}

// Touch refreshes last_active_at. Called on car create and update only;
// booking activity against the car deliberately does not count as owner
// engagement.
func (g *AvailabilityGate) Touch(ctx context.Context, car *models.Car) error {
	ts := g.now()
	if err := g.db.WithContext(ctx).Model(&models.Car{}).
		Where("id = ?", car.ID).
		Update("last_active_at", ts).Error; err != nil {
		return err
	}
	car.LastActiveAt = ts
	return nil
}
