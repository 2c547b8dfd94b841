package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequest(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "Need it for the weekend")
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, models.RoleDriver, req.InitiatedBy)
	assert.Equal(t, driver.ID, req.DriverID)
	assert.Equal(t, operator.ID, req.OperatorID)
	assert.Equal(t, testBase.Add(3*24*time.Hour), req.ExpiresAt)

	created := f.notifier.byMethod("RequestCreated")
	require.Len(t, created, 1)
	assert.Equal(t, operator.ID, created[0].Event.RecipientID)
	assert.Equal(t, "Ravi Kumar", created[0].Event.ActorName)
	assert.Equal(t, "Swift Dzire", created[0].Event.CarName)
}

func TestCreateRequestOwnCar(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	// An operator holding a driver token for their own car is the closest
	// real case; the engine rejects on ownership before role.
	driverSide := Actor{ID: operator.ID, Role: models.RoleDriver, KYCStatus: models.KYCApproved}
	_, err := f.engine.Create(ctx, driverSide, car.ID, "")
	assert.ErrorIs(t, err, ErrCannotBookOwnCar)
}

func TestCreateRequestRoleAndKYC(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	_, err := f.engine.Create(ctx, actorFor(operator), car.ID, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	pendingKYC := f.createUser(t, "New Driver", models.RoleDriver, models.KYCPending, "+913333333333")
	_, err = f.engine.Create(ctx, actorFor(pendingKYC), car.ID, "")
	assert.ErrorIs(t, err, ErrKYCNotApproved)
}

func TestCreateRequestMissingCar(t *testing.T) {
	f := newEngineFixture(t)
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")

	_, err := f.engine.Create(context.Background(), actorFor(driver), 999, "")
	assert.ErrorIs(t, err, ErrCarNotFound)
}

func TestCreateRequestDuplicatePending(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	first, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)

	_, err = f.engine.Create(ctx, actorFor(driver), car.ID, "")
	assert.ErrorIs(t, err, ErrRequestExists)

	// Cancelling frees the slot for a fresh request.
	require.NoError(t, f.engine.Cancel(ctx, actorFor(driver), first.ID))
	_, err = f.engine.Create(ctx, actorFor(driver), car.ID, "")
	assert.NoError(t, err)
}

func TestDirectionsAreIndependent(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	// A driver request and an operator invitation for the same pair may
	// both be pending at once.
	_, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)

	_, err = f.engine.Invite(ctx, actorFor(operator), car.ID, driver.ID, "")
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.BookingRequest{}).
		Where("car_id = ? AND driver_id = ? AND status = ?", car.ID, driver.ID, models.RequestStatusPending).
		Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestInvite(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Invite(ctx, actorFor(operator), car.ID, driver.ID, "Weekend duty")
	require.NoError(t, err)

	assert.Equal(t, models.RoleOperator, req.InitiatedBy)
	assert.Equal(t, driver.ID, req.DriverID)
	assert.Equal(t, operator.ID, req.OperatorID)

	created := f.notifier.byMethod("RequestCreated")
	require.Len(t, created, 1)
	assert.Equal(t, driver.ID, created[0].Event.RecipientID)

	_, err = f.engine.Invite(ctx, actorFor(operator), car.ID, driver.ID, "")
	assert.ErrorIs(t, err, ErrInvitationExists)
}

func TestInviteValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	other := f.createOperator(t, "Sharma Cabs", "+914444444444")
	unverified := f.createUser(t, "New Driver", models.RoleDriver, models.KYCPending, "+915555555555")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	_, err := f.engine.Invite(ctx, actorFor(other), car.ID, 999, "")
	assert.ErrorIs(t, err, ErrNotCarOwner)

	_, err = f.engine.Invite(ctx, actorFor(operator), car.ID, operator.ID, "")
	assert.ErrorIs(t, err, ErrCannotInviteSelf)

	_, err = f.engine.Invite(ctx, actorFor(operator), car.ID, 999, "")
	assert.ErrorIs(t, err, ErrDriverNotFound)

	_, err = f.engine.Invite(ctx, actorFor(operator), car.ID, other.ID, "")
	assert.ErrorIs(t, err, ErrNotADriver)

	_, err = f.engine.Invite(ctx, actorFor(operator), car.ID, unverified.ID, "")
	assert.ErrorIs(t, err, ErrDriverNotVerified)
}

func TestUpdateStatusAccept(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)
	f.notifier.reset()

	updated, err := f.engine.UpdateStatus(ctx, actorFor(operator), req.ID, models.RequestStatusAccepted, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, updated.Status)

	// Acceptance shares the accepting party's phone with the initiator.
	accepted := f.notifier.byMethod("RequestAccepted")
	require.Len(t, accepted, 1)
	assert.Equal(t, driver.ID, accepted[0].Event.RecipientID)
	assert.Equal(t, "+911111111111", accepted[0].Event.ActorPhone)

	// A terminal request admits no further transitions.
	_, err = f.engine.UpdateStatus(ctx, actorFor(operator), req.ID, models.RequestStatusRejected, "")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestUpdateStatusReject(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Invite(ctx, actorFor(operator), car.ID, driver.ID, "")
	require.NoError(t, err)
	f.notifier.reset()

	updated, err := f.engine.UpdateStatus(ctx, actorFor(driver), req.ID, models.RequestStatusRejected, "Out of town")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, updated.Status)
	assert.Equal(t, "Out of town", updated.RejectReason)

	rejected := f.notifier.byMethod("RequestRejected")
	require.Len(t, rejected, 1)
	assert.Equal(t, operator.ID, rejected[0].Event.RecipientID)
	assert.Equal(t, "Out of town", rejected[0].Event.Reason)
}

func TestUpdateStatusReceiverOnly(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	stranger := f.createDriver(t, "Someone Else", "+916666666666")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)

	// The initiator cannot decide their own request.
	_, err = f.engine.UpdateStatus(ctx, actorFor(driver), req.ID, models.RequestStatusAccepted, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.engine.UpdateStatus(ctx, actorFor(stranger), req.ID, models.RequestStatusAccepted, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.engine.UpdateStatus(ctx, actorFor(operator), req.ID, models.RequestStatusCancelled, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusExpiredWins(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)
	f.notifier.reset()

	f.clock.Advance(3*24*time.Hour + time.Minute)

	_, err = f.engine.UpdateStatus(ctx, actorFor(operator), req.ID, models.RequestStatusAccepted, "")
	assert.ErrorIs(t, err, ErrRequestExpired)

	assert.Equal(t, models.RequestStatusExpired, f.reloadRequest(t, req.ID).Status)

	expired := f.notifier.byMethod("RequestExpired")
	require.Len(t, expired, 1)
	assert.Equal(t, driver.ID, expired[0].Event.RecipientID)
}

func TestCancel(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)
	f.notifier.reset()

	// Only the initiator may cancel.
	err = f.engine.Cancel(ctx, actorFor(operator), req.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, f.engine.Cancel(ctx, actorFor(driver), req.ID))

	// The row is kept as history with a terminal status.
	assert.Equal(t, models.RequestStatusCancelled, f.reloadRequest(t, req.ID).Status)

	cancelled := f.notifier.byMethod("RequestCancelled")
	require.Len(t, cancelled, 1)
	assert.Equal(t, operator.ID, cancelled[0].Event.RecipientID)

	err = f.engine.Cancel(ctx, actorFor(driver), req.ID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestDailyRequestLimit(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")

	var lastID uint
	for i := 0; i < 5; i++ {
		car := f.createCar(t, operator.ID, fmt.Sprintf("Car %d", i), fmt.Sprintf("MH12AB%04d", i))
		req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
		require.NoError(t, err)
		lastID = req.ID
	}

	extra := f.createCar(t, operator.ID, "Extra Car", "MH12XX9999")
	_, err := f.engine.Create(ctx, actorFor(driver), extra.ID, "")
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.Equal(t, "DAILY_LIMIT_REACHED", CodeOf(err))

	limited := f.notifier.byMethod("DailyLimitReached")
	require.Len(t, limited, 1)
	assert.Equal(t, driver.ID, limited[0].UserID)
	assert.Equal(t, 5, limited[0].Limit)

	// Cancelling frees the slot the same day.
	require.NoError(t, f.engine.Cancel(ctx, actorFor(driver), lastID))
	_, err = f.engine.Create(ctx, actorFor(driver), extra.ID, "")
	assert.NoError(t, err)
}

func TestDailyLimitResetsNextDay(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")

	for i := 0; i < 5; i++ {
		car := f.createCar(t, operator.ID, fmt.Sprintf("Car %d", i), fmt.Sprintf("MH12AB%04d", i))
		req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
		require.NoError(t, err)
		// Push the row to yesterday.
		f.backdate(t, req.ID, testBase.Add(-24*time.Hour))
	}

	status, err := f.engine.DailyLimits(ctx, actorFor(driver))
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 0, status.Used)

	extra := f.createCar(t, operator.ID, "Extra Car", "MH12XX9999")
	_, err = f.engine.Create(ctx, actorFor(driver), extra.ID, "")
	assert.NoError(t, err)
}

func TestExpireRequestsForCarIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	first := f.createDriver(t, "Ravi Kumar", "+912222222222")
	second := f.createDriver(t, "Arjun Singh", "+917777777777")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	_, err := f.engine.Create(ctx, actorFor(first), car.ID, "")
	require.NoError(t, err)
	_, err = f.engine.Create(ctx, actorFor(second), car.ID, "")
	require.NoError(t, err)
	f.notifier.reset()

	n, err := f.engine.ExpireRequestsForCar(ctx, car.ID, car.CarName)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	expired := f.notifier.byMethod("RequestExpired")
	require.Len(t, expired, 2)
	for _, ev := range expired {
		assert.True(t, ev.Event.CarUnavailable)
	}

	// A second pass finds nothing and notifies no one.
	n, err = f.engine.ExpireRequestsForCar(ctx, car.ID, car.CarName)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.notifier.byMethod("RequestExpired"), 2)
}

func TestLazyCarDeactivationOnCreate(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	first := f.createDriver(t, "Ravi Kumar", "+912222222222")
	second := f.createDriver(t, "Arjun Singh", "+917777777777")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	// A pending request exists, then the operator goes quiet past the
	// inactivity window.
	_, err := f.engine.Create(ctx, actorFor(first), car.ID, "")
	require.NoError(t, err)
	f.notifier.reset()

	f.clock.Advance(7*24*time.Hour + time.Minute)

	_, err = f.engine.Create(ctx, actorFor(second), car.ID, "")
	assert.ErrorIs(t, err, ErrCarNotAvailable)

	assert.False(t, f.reloadCar(t, car.ID).IsActive)

	deactivated := f.notifier.byMethod("CarAutoDeactivated")
	require.Len(t, deactivated, 1)
	assert.Equal(t, operator.ID, deactivated[0].UserID)

	// The cascade expired the first driver's pending request.
	expired := f.notifier.byMethod("RequestExpired")
	require.Len(t, expired, 1)
	assert.Equal(t, first.ID, expired[0].Event.RecipientID)
	assert.True(t, expired[0].Event.CarUnavailable)
}

func TestSweepExpiredRequests(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	carA := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")
	carB := f.createCar(t, operator.ID, "Honda City", "MH12CD5678")

	_, err := f.engine.Create(ctx, actorFor(driver), carA.ID, "")
	require.NoError(t, err)

	f.clock.Advance(2 * 24 * time.Hour)
	fresh, err := f.engine.Create(ctx, actorFor(driver), carB.ID, "")
	require.NoError(t, err)
	f.notifier.reset()

	// Past the first request's TTL, short of the second's.
	f.clock.Advance(24*time.Hour + time.Minute)

	n, err := f.engine.SweepExpiredRequests(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, models.RequestStatusPending, f.reloadRequest(t, fresh.ID).Status)

	expired := f.notifier.byMethod("RequestExpired")
	require.Len(t, expired, 1)
	assert.False(t, expired[0].Event.CarUnavailable)
}

func TestSweepInactiveCars(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	stale := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")
	require.NoError(t, f.db.Model(stale).
		Update("last_active_at", testBase.Add(-8*24*time.Hour)).Error)
	fresh := f.createCar(t, operator.ID, "Honda City", "MH12CD5678")

	n, err := f.engine.SweepInactiveCars(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.False(t, f.reloadCar(t, stale.ID).IsActive)
	assert.True(t, f.reloadCar(t, fresh.ID).IsActive)
}

func TestListSentAndReceived(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)
	_, err = f.engine.Invite(ctx, actorFor(operator), car.ID, driver.ID, "")
	require.NoError(t, err)

	sent, total, err := f.engine.ListSent(ctx, actorFor(driver), ListFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, sent, 1)
	assert.Equal(t, req.ID, sent[0].ID)
	assert.Equal(t, models.RoleDriver, sent[0].InitiatedBy)

	received, total, err := f.engine.ListReceived(ctx, actorFor(driver), ListFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, received, 1)
	assert.Equal(t, models.RoleOperator, received[0].InitiatedBy)

	// The operator's sent list is the driver's received list.
	opSent, _, err := f.engine.ListSent(ctx, actorFor(operator), ListFilters{})
	require.NoError(t, err)
	require.Len(t, opSent, 1)
	assert.Equal(t, received[0].ID, opSent[0].ID)
}

func TestListLazyExpiry(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)
	f.notifier.reset()

	f.clock.Advance(3*24*time.Hour + time.Minute)

	sent, _, err := f.engine.ListSent(ctx, actorFor(driver), ListFilters{})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, models.RequestStatusExpired, sent[0].Status)
	assert.Equal(t, models.RequestStatusExpired, f.reloadRequest(t, req.ID).Status)
	assert.Len(t, f.notifier.byMethod("RequestExpired"), 1)
}

func TestGetByID(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	stranger := f.createDriver(t, "Someone Else", "+916666666666")
	car := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")

	req, err := f.engine.Create(ctx, actorFor(driver), car.ID, "")
	require.NoError(t, err)

	got, err := f.engine.GetByID(ctx, actorFor(operator), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	_, err = f.engine.GetByID(ctx, actorFor(stranger), req.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.engine.GetByID(ctx, actorFor(driver), 999)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestCounts(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	operator := f.createOperator(t, "Asha Travels", "+911111111111")
	driver := f.createDriver(t, "Ravi Kumar", "+912222222222")
	carA := f.createCar(t, operator.ID, "Swift Dzire", "MH12AB1234")
	carB := f.createCar(t, operator.ID, "Honda City", "MH12CD5678")

	reqA, err := f.engine.Create(ctx, actorFor(driver), carA.ID, "")
	require.NoError(t, err)
	_, err = f.engine.UpdateStatus(ctx, actorFor(operator), reqA.ID, models.RequestStatusAccepted, "")
	require.NoError(t, err)

	_, err = f.engine.Create(ctx, actorFor(driver), carB.ID, "")
	require.NoError(t, err)
	_, err = f.engine.Invite(ctx, actorFor(operator), carA.ID, driver.ID, "")
	require.NoError(t, err)

	counts, err := f.engine.Counts(ctx, actorFor(driver))
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.PendingSent)
	assert.EqualValues(t, 1, counts.PendingReceived)
	assert.EqualValues(t, 1, counts.Accepted)
	assert.EqualValues(t, 0, counts.Rejected)

	counts, err = f.engine.Counts(ctx, actorFor(operator))
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.PendingSent)
	assert.EqualValues(t, 1, counts.PendingReceived)
	assert.EqualValues(t, 1, counts.Accepted)
}
