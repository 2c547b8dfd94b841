package booking

import (
	"context"
	"testing"
	"time"

	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureBookable(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	gate := f.engine.Gate()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	require.NoError(t, gate.EnsureBookable(ctx, car))

	// Explicitly deactivated car.
	require.NoError(t, f.db.Model(car).Update("is_active", false).Error)
	car.IsActive = false
	assert.ErrorIs(t, gate.EnsureBookable(ctx, car), ErrCarNotAvailable)

	assert.ErrorIs(t, gate.EnsureBookable(ctx, nil), ErrCarNotFound)
}

func TestEnsureBookableDeactivatesStale(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	gate := f.engine.Gate()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	f.clock.Advance(7*24*time.Hour + time.Minute)

	assert.ErrorIs(t, gate.EnsureBookable(ctx, car), ErrCarNotAvailable)
	assert.False(t, f.reloadCar(t, car.ID).IsActive)
	assert.Len(t, f.notifier.byMethod("CarAutoDeactivated"), 1)
}

func TestDeactivateIsIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	gate := f.engine.Gate()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	_, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)
	f.notifier.reset()

	n, err := gate.Deactivate(ctx, car)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Len(t, f.notifier.byMethod("CarAutoDeactivated"), 1)

	// The conditional update makes the second call a no-op: no second
	// notification, no cascade.
	fresh := f.reloadCar(t, car.ID)
	n, err = gate.Deactivate(ctx, fresh)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.notifier.byMethod("CarAutoDeactivated"), 1)
	assert.Len(t, f.notifier.byMethod("RequestExpired"), 1)
}

func TestFilterBookable(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	gate := f.engine.Gate()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	good := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")
	stale := f.createCar(t, operator.ID, "Honda City", "MH12CD5678")
	require.NoError(t, f.db.Model(stale).
		Update("last_active_at", testBase.Add(-8*24*time.Hour)).Error)
	stale.LastActiveAt = testBase.Add(-8 * 24 * time.Hour)
	off := f.createCar(t, operator.ID, "Ertiga", "MH12EF9012")
	require.NoError(t, f.db.Model(off).Update("is_active", false).Error)
	off.IsActive = false

	bookable, err := gate.FilterBookable(ctx, []models.Car{*good, *stale, *off})
	require.NoError(t, err)
	require.Len(t, bookable, 1)
	assert.Equal(t, good.ID, bookable[0].ID)

	// The stale car was deactivated as a side effect.
	assert.False(t, f.reloadCar(t, stale.ID).IsActive)
}

func TestTouch(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	gate := f.engine.Gate()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	f.clock.Advance(5 * 24 * time.Hour)
	require.NoError(t, gate.Touch(ctx, car))

	assert.Equal(t, f.clock.Now(), car.LastActiveAt)
	got := f.reloadCar(t, car.ID)
	assert.WithinDuration(t, f.clock.Now(), got.LastActiveAt, time.Second)
}
