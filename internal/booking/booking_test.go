package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chachabrian/carmitra-backend/internal/config"
	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory schema alive.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Car{},
		&models.CarImage{},
		&models.BookingRequest{},
		&models.Notification{},
	))

	require.NoError(t, db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_requests_unique_pending
		ON booking_requests (car_id, driver_id, initiated_by)
		WHERE status = 'PENDING'`).Error)

	return db
}

// recordedEvent is one notifier call captured by the fake.
type recordedEvent struct {
	Method string
	Event  RequestEvent

	// CarAutoDeactivated / DailyLimitReached fields
	UserID  uint
	CarID   uint
	CarName string
	Role    models.Role
	Limit   int
}

// fakeNotifier records every dispatch for assertions.
type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeNotifier) record(ev recordedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeNotifier) RequestCreated(_ context.Context, ev RequestEvent) {
	f.record(recordedEvent{Method: "RequestCreated", Event: ev})
}

func (f *fakeNotifier) RequestAccepted(_ context.Context, ev RequestEvent) {
	f.record(recordedEvent{Method: "RequestAccepted", Event: ev})
}

func (f *fakeNotifier) RequestRejected(_ context.Context, ev RequestEvent) {
	f.record(recordedEvent{Method: "RequestRejected", Event: ev})
}

func (f *fakeNotifier) RequestCancelled(_ context.Context, ev RequestEvent) {
	f.record(recordedEvent{Method: "RequestCancelled", Event: ev})
}

func (f *fakeNotifier) RequestExpired(_ context.Context, ev RequestEvent) {
	f.record(recordedEvent{Method: "RequestExpired", Event: ev})
}

func (f *fakeNotifier) CarAutoDeactivated(_ context.Context, operatorID uint, carName string, carID uint) {
	f.record(recordedEvent{Method: "CarAutoDeactivated", UserID: operatorID, CarName: carName, CarID: carID})
}

func (f *fakeNotifier) DailyLimitReached(_ context.Context, userID uint, role models.Role, limit int) {
	f.record(recordedEvent{Method: "DailyLimitReached", UserID: userID, Role: role, Limit: limit})
}

func (f *fakeNotifier) byMethod(method string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, ev := range f.events {
		if ev.Method == method {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// testClock is an adjustable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(at time.Time) *testClock {
	return &testClock{now: at}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testBase is mid-day UTC so advancing a few hours never crosses the day
// boundary by accident.
var testBase = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type engineFixture struct {
	db       *gorm.DB
	clock    *testClock
	notifier *fakeNotifier
	engine   *Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	db := newTestDB(t)
	clock := newTestClock(testBase)
	notifier := &fakeNotifier{}
	engine := NewEngine(db, config.DefaultLimits(), notifier, clock.Now)
	return &engineFixture{db: db, clock: clock, notifier: notifier, engine: engine}
}

func (f *engineFixture) createUser(t *testing.T, name string, role models.Role, kyc models.KYCStatus, phone string) *models.User {
	t.Helper()
	user := models.User{
		FullName:    name,
		PhoneNumber: phone,
		Role:        role,
		KYCStatus:   kyc,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return &user
}

func (f *engineFixture) createDriver(t *testing.T, name, phone string) *models.User {
	return f.createUser(t, name, models.RoleDriver, models.KYCApproved, phone)
}

func (f *engineFixture) createOperator(t *testing.T, name, phone string) *models.User {
	return f.createUser(t, name, models.RoleOperator, models.KYCApproved, phone)
}

func (f *engineFixture) createCar(t *testing.T, operatorID uint, name, number string) *models.Car {
	t.Helper()
	car := models.Car{
		OperatorID:   operatorID,
		CarNumber:    number,
		CarName:      name,
		City:         "Pune",
		Category:     "SUV",
		Transmission: "MANUAL",
		FuelType:     "PETROL",
		RateType:     "DAILY",
		RateAmount:   2400,
		IsActive:     true,
		LastActiveAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&car).Error)
	return &car
}

func actorFor(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, KYCStatus: u.KYCStatus}
}

// backdate rewrites created_at on a request, used to push rows across the
// daily-limit day boundary.
func (f *engineFixture) backdate(t *testing.T, requestID uint, to time.Time) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.BookingRequest{}).
		Where("id = ?", requestID).
		Update("created_at", to).Error)
}

func (f *engineFixture) reloadRequest(t *testing.T, id uint) *models.BookingRequest {
	t.Helper()
	var req models.BookingRequest
	require.NoError(t, f.db.First(&req, id).Error)
	return &req
}

func (f *engineFixture) reloadCar(t *testing.T, id uint) *models.Car {
	t.Helper()
	var car models.Car
	require.NoError(t, f.db.First(&car, id).Error)
	return &car
}
