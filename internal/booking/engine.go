package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chachabrian/carmitra-backend/internal/config"
	"github.com/chachabrian/carmitra-backend/internal/models"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of an engine operation. The API layer
// fills it from token claims; the engine re-checks the KYC status
// defensively before any booking action.
type Actor struct {
	ID        uint
	Role      models.Role
	KYCStatus models.KYCStatus
}

// ListFilters narrows sent/received listings.
type ListFilters struct {
	Status models.RequestStatus
	CarID  uint
	Page   int
	Limit  int
}

// RequestCounts is the dashboard summary for an actor.
type RequestCounts struct {
	PendingSent     int64 `json:"pendingSent"`
	PendingReceived int64 `json:"pendingReceived"`
	Accepted        int64 `json:"accepted"`
	Rejected        int64 `json:"rejected"`
}

// Engine owns the booking-request state machine: creation in both
// directions, accept/reject, cancellation, and every expiry path. Writes
// that race (double accept, duplicate create) are settled at the storage
// layer with conditional updates and the partial unique index.
type Engine struct {
	db       *gorm.DB
	limits   config.Limits
	eval     *ExpiryEvaluator
	limiter  *RateLimiter
	gate     *AvailabilityGate
	notifier Notifier
	now      Clock
}

// NewEngine wires the engine with its gate, limiter, and evaluator. now may
// be nil for time.Now.
func NewEngine(db *gorm.DB, limits config.Limits, notifier Notifier, now Clock) *Engine {
	if now == nil {
		now = time.Now
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	e := &Engine{
		db:       db,
		limits:   limits,
		notifier: notifier,
		now:      now,
	}
	e.eval = NewExpiryEvaluator(limits, now)
	e.limiter = NewRateLimiter(db, limits, now)
	e.gate = NewAvailabilityGate(db, e.eval, notifier, e, now)
	return e
}

// Gate exposes the availability gate for the car handlers.
func (e *Engine) Gate() *AvailabilityGate { return e.gate }

// Evaluator exposes the expiry predicates for listing queries.
func (e *Engine) Evaluator() *ExpiryEvaluator { return e.eval }

// Limiter exposes the rate limiter for dashboard endpoints.
func (e *Engine) Limiter() *RateLimiter { return e.limiter }

func (e *Engine) requireParticipant(actor Actor, role models.Role) error {
	if actor.Role != role {
		return ErrPermissionDenied
	}
	if actor.KYCStatus != models.KYCApproved {
		return ErrKYCNotApproved
	}
	return nil
}

// Create opens a driver-initiated request for a car.
func (e *Engine) Create(ctx context.Context, actor Actor, carID uint, message string) (*models.BookingRequest, error) {
	if err := e.requireParticipant(actor, models.RoleDriver); err != nil {
		return nil, err
	}

	var car models.Car
	if err := e.db.WithContext(ctx).First(&car, carID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}

	if err := e.gate.EnsureBookable(ctx, &car); err != nil {
		return nil, err
	}

	if car.OperatorID == actor.ID {
		return nil, ErrCannotBookOwnCar
	}

	status, err := e.limiter.CheckLimit(ctx, actor.ID, models.RoleDriver)
	if err != nil {
		return nil, err
	}
	if !status.Allowed {
		e.notifier.DailyLimitReached(ctx, actor.ID, models.RoleDriver, status.Limit)
		return nil, DailyLimitError(status.Limit, models.RoleDriver)
	}

	if err := e.ensureNoPending(ctx, carID, actor.ID, models.RoleDriver); err != nil {
		return nil, err
	}

	now := e.now()
	req := models.BookingRequest{
		CarID:       car.ID,
		DriverID:    actor.ID,
		OperatorID:  car.OperatorID,
		InitiatedBy: models.RoleDriver,
		Status:      models.RequestStatusPending,
		Message:     message,
		ExpiresAt:   e.eval.RequestExpiry(now),
	}

	if err := e.db.WithContext(ctx).Create(&req).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrRequestExists
		}
		return nil, err
	}

	var driver models.User
	if err := e.db.WithContext(ctx).First(&driver, actor.ID).Error; err == nil {
		e.notifier.RequestCreated(ctx, RequestEvent{
			RecipientID: car.OperatorID,
			ActorName:   driver.DisplayName(),
			CarID:       car.ID,
			CarName:     car.CarName,
			RequestID:   req.ID,
			InitiatedBy: models.RoleDriver,
		})
	}

	return &req, nil
}

// Invite opens an operator-initiated request (invitation) for one of the
// operator's own cars, addressed to a KYC-verified driver.
func (e *Engine) Invite(ctx context.Context, actor Actor, carID, driverID uint, message string) (*models.BookingRequest, error) {
	if err := e.requireParticipant(actor, models.RoleOperator); err != nil {
		return nil, err
	}

	var car models.Car
	if err := e.db.WithContext(ctx).First(&car, carID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}

	if car.OperatorID != actor.ID {
		return nil, ErrNotCarOwner
	}

	if err := e.gate.EnsureBookable(ctx, &car); err != nil {
		return nil, err
	}

	if driverID == actor.ID {
		return nil, ErrCannotInviteSelf
	}

	var driver models.User
	if err := e.db.WithContext(ctx).First(&driver, driverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	if driver.Role != models.RoleDriver {
		return nil, ErrNotADriver
	}
	if !driver.KYCVerified() {
		return nil, ErrDriverNotVerified
	}

	status, err := e.limiter.CheckLimit(ctx, actor.ID, models.RoleOperator)
	if err != nil {
		return nil, err
	}
	if !status.Allowed {
		e.notifier.DailyLimitReached(ctx, actor.ID, models.RoleOperator, status.Limit)
		return nil, DailyLimitError(status.Limit, models.RoleOperator)
	}

	if err := e.ensureNoPending(ctx, carID, driverID, models.RoleOperator); err != nil {
		return nil, err
	}

	now := e.now()
	req := models.BookingRequest{
		CarID:       car.ID,
		DriverID:    driverID,
		OperatorID:  actor.ID,
		InitiatedBy: models.RoleOperator,
		Status:      models.RequestStatusPending,
		Message:     message,
		ExpiresAt:   e.eval.RequestExpiry(now),
	}

	if err := e.db.WithContext(ctx).Create(&req).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrInvitationExists
		}
		return nil, err
	}

	var operator models.User
	if err := e.db.WithContext(ctx).First(&operator, actor.ID).Error; err == nil {
		e.notifier.RequestCreated(ctx, RequestEvent{
			RecipientID: driverID,
			ActorName:   operator.DisplayName(),
			CarID:       car.ID,
			CarName:     car.CarName,
			RequestID:   req.ID,
			InitiatedBy: models.RoleOperator,
		})
	}

	return &req, nil
}

// UpdateStatus accepts or rejects a pending request. Only the receiver, the
// party who did not initiate, may call it. A request past its TTL is flipped
// to EXPIRED instead: expiry always wins over a late decision.
func (e *Engine) UpdateStatus(ctx context.Context, actor Actor, requestID uint, status models.RequestStatus, rejectReason string) (*models.BookingRequest, error) {
	if status != models.RequestStatusAccepted && status != models.RequestStatusRejected {
		return nil, ErrInvalidStatus
	}
	if actor.KYCStatus != models.KYCApproved {
		return nil, ErrKYCNotApproved
	}

	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if actor.ID != req.ReceiverID() || actor.Role == req.InitiatedBy {
		return nil, ErrPermissionDenied
	}

	if req.Status != models.RequestStatusPending {
		return nil, ErrAlreadyProcessed
	}

	if e.eval.IsRequestExpired(req) {
		e.expireRequest(ctx, req, false)
		return nil, ErrRequestExpired
	}

	updates := map[string]interface{}{
		"status":     status,
		"updated_at": e.now(),
	}
	if status == models.RequestStatusRejected && rejectReason != "" {
		updates["reject_reason"] = rejectReason
	}

	res := e.db.WithContext(ctx).Model(&models.BookingRequest{}).
		Where("id = ? AND status = ?", req.ID, models.RequestStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyProcessed
	}

	req.Status = status
	if status == models.RequestStatusRejected {
		req.RejectReason = rejectReason
	}

	var receiver models.User
	if err := e.db.WithContext(ctx).First(&receiver, actor.ID).Error; err == nil {
		ev := RequestEvent{
			RecipientID: req.InitiatorID(),
			ActorName:   receiver.DisplayName(),
			CarID:       req.CarID,
			CarName:     req.Car.CarName,
			RequestID:   req.ID,
			InitiatedBy: req.InitiatedBy,
		}
		if status == models.RequestStatusAccepted {
			// Acceptance shares the receiver's contact number with
			// the initiator.
			ev.ActorPhone = receiver.PhoneNumber
			e.notifier.RequestAccepted(ctx, ev)
		} else {
			ev.Reason = rejectReason
			e.notifier.RequestRejected(ctx, ev)
		}
	}

	return req, nil
}

// Cancel withdraws a pending request. Only the initiator may cancel. The
// row is kept with a terminal CANCELLED status for audit history; it no
// longer blocks a fresh request in the same direction.
func (e *Engine) Cancel(ctx context.Context, actor Actor, requestID uint) error {
	if actor.KYCStatus != models.KYCApproved {
		return ErrKYCNotApproved
	}

	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if actor.ID != req.InitiatorID() || actor.Role != req.InitiatedBy {
		return ErrPermissionDenied
	}

	if req.Status != models.RequestStatusPending {
		return ErrAlreadyProcessed
	}

	res := e.db.WithContext(ctx).Model(&models.BookingRequest{}).
		Where("id = ? AND status = ?", req.ID, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":     models.RequestStatusCancelled,
			"updated_at": e.now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}

	var initiator models.User
	if err := e.db.WithContext(ctx).First(&initiator, actor.ID).Error; err == nil {
		e.notifier.RequestCancelled(ctx, RequestEvent{
			RecipientID: req.ReceiverID(),
			ActorName:   initiator.DisplayName(),
			CarID:       req.CarID,
			CarName:     req.Car.CarName,
			RequestID:   req.ID,
			InitiatedBy: req.InitiatedBy,
		})
	}

	return nil
}

// GetByID returns a single request visible to the actor. Pending requests
// past their TTL are expired on the way out.
func (e *Engine) GetByID(ctx context.Context, actor Actor, requestID uint) (*models.BookingRequest, error) {
	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if actor.ID != req.DriverID && actor.ID != req.OperatorID {
		return nil, ErrPermissionDenied
	}

	if e.eval.IsRequestExpired(req) {
		e.expireRequest(ctx, req, false)
	}

	return req, nil
}

// ListSent returns the requests the actor initiated, newest first.
func (e *Engine) ListSent(ctx context.Context, actor Actor, filters ListFilters) ([]models.BookingRequest, int64, error) {
	return e.list(ctx, actor, filters, true)
}

// ListReceived returns the requests addressed to the actor, newest first.
func (e *Engine) ListReceived(ctx context.Context, actor Actor, filters ListFilters) ([]models.BookingRequest, int64, error) {
	return e.list(ctx, actor, filters, false)
}

func (e *Engine) list(ctx context.Context, actor Actor, filters ListFilters, sent bool) ([]models.BookingRequest, int64, error) {
	if actor.Role != models.RoleDriver && actor.Role != models.RoleOperator {
		return nil, 0, ErrPermissionDenied
	}

	initiatedBy := actor.Role
	if !sent {
		// Received means the other side initiated.
		if actor.Role == models.RoleDriver {
			initiatedBy = models.RoleOperator
		} else {
			initiatedBy = models.RoleDriver
		}
	}

	q := e.db.WithContext(ctx).Model(&models.BookingRequest{}).
		Where("initiated_by = ?", initiatedBy)
	if actor.Role == models.RoleDriver {
		q = q.Where("driver_id = ?", actor.ID)
	} else {
		q = q.Where("operator_id = ?", actor.ID)
	}

	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.CarID != 0 {
		q = q.Where("car_id = ?", filters.CarID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 {
		limit = 10
	}

	var requests []models.BookingRequest
	err := q.Preload("Car").Preload("Car.Images").
		Preload("Driver").Preload("Operator").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	// Lazy expiry: anything pending past its TTL is flipped before it is
	// served, so stale state is never presented as fresh.
	for i := range requests {
		if e.eval.IsRequestExpired(&requests[i]) {
			e.expireRequest(ctx, &requests[i], false)
		}
	}

	return requests, total, nil
}

// ExpireRequestsForCar flips every pending request for the car to EXPIRED
// and notifies each initiator that the car is no longer available. Safe to
// call with zero matching rows; repeated calls are no-ops.
func (e *Engine) ExpireRequestsForCar(ctx context.Context, carID uint, carName string) (int64, error) {
	var pending []models.BookingRequest
	if err := e.db.WithContext(ctx).
		Where("car_id = ? AND status = ?", carID, models.RequestStatusPending).
		Find(&pending).Error; err != nil {
		return 0, err
	}

	var expired int64
	for i := range pending {
		req := &pending[i]
		req.Car.CarName = carName
		if e.expireRequest(ctx, req, true) {
			expired++
		}
	}
	return expired, nil
}

// SweepExpiredRequests is the periodic counterpart of the lazy read-time
// checks: it expires every pending request past its TTL and notifies the
// initiators. It consumes the same evaluator predicates as the lazy path.
func (e *Engine) SweepExpiredRequests(ctx context.Context) (int64, error) {
	var pending []models.BookingRequest
	if err := e.db.WithContext(ctx).Preload("Car").
		Where("status = ? AND expires_at < ?", models.RequestStatusPending, e.now()).
		Find(&pending).Error; err != nil {
		return 0, err
	}

	var expired int64
	for i := range pending {
		if e.expireRequest(ctx, &pending[i], false) {
			expired++
		}
	}
	return expired, nil
}

// SweepInactiveCars deactivates every car past the inactivity window,
// cascading into its pending requests. Shares the gate's deactivation path
// with the lazy checks.
func (e *Engine) SweepInactiveCars(ctx context.Context) (int64, error) {
	var stale []models.Car
	if err := e.db.WithContext(ctx).
		Where("is_active = ? AND last_active_at < ?", true, e.eval.InactivityThreshold()).
		Find(&stale).Error; err != nil {
		return 0, err
	}

	var deactivated int64
	for i := range stale {
		if _, err := e.gate.Deactivate(ctx, &stale[i]); err != nil {
			return deactivated, err
		}
		deactivated++
	}
	return deactivated, nil
}

// Counts returns the dashboard summary for the actor.
func (e *Engine) Counts(ctx context.Context, actor Actor) (RequestCounts, error) {
	var counts RequestCounts

	scope := func() *gorm.DB {
		q := e.db.WithContext(ctx).Model(&models.BookingRequest{})
		if actor.Role == models.RoleOperator {
			return q.Where("operator_id = ?", actor.ID)
		}
		return q.Where("driver_id = ?", actor.ID)
	}

	if err := scope().
		Where("status = ? AND initiated_by = ?", models.RequestStatusPending, actor.Role).
		Count(&counts.PendingSent).Error; err != nil {
		return counts, err
	}
	if err := scope().
		Where("status = ? AND initiated_by <> ?", models.RequestStatusPending, actor.Role).
		Count(&counts.PendingReceived).Error; err != nil {
		return counts, err
	}
	if err := scope().
		Where("status = ?", models.RequestStatusAccepted).
		Count(&counts.Accepted).Error; err != nil {
		return counts, err
	}
	if err := scope().
		Where("status = ?", models.RequestStatusRejected).
		Count(&counts.Rejected).Error; err != nil {
		return counts, err
	}

	return counts, nil
}

// DailyLimits returns today's usage against the actor's cap.
func (e *Engine) DailyLimits(ctx context.Context, actor Actor) (LimitStatus, error) {
	if actor.Role != models.RoleDriver && actor.Role != models.RoleOperator {
		return LimitStatus{}, ErrPermissionDenied
	}
	return e.limiter.CheckLimit(ctx, actor.ID, actor.Role)
}

func (e *Engine) loadRequest(ctx context.Context, requestID uint) (*models.BookingRequest, error) {
	var req models.BookingRequest
	err := e.db.WithContext(ctx).Preload("Car").First(&req, requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ensureNoPending is the application-level duplicate pre-check. The partial
// unique index settles the race two concurrent creates can still win.
func (e *Engine) ensureNoPending(ctx context.Context, carID, driverID uint, initiatedBy models.Role) error {
	var count int64
	err := e.db.WithContext(ctx).Model(&models.BookingRequest{}).
		Where("car_id = ? AND driver_id = ? AND initiated_by = ? AND status = ?",
			carID, driverID, initiatedBy, models.RequestStatusPending).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		if initiatedBy == models.RoleOperator {
			return ErrInvitationExists
		}
		return ErrRequestExists
	}
	return nil
}

// expireRequest flips a single pending request to EXPIRED with a
// compare-and-set and notifies the initiator once. Returns false when
// another path already settled the row, which keeps repeated cascades and
// overlapping sweeps from double-notifying.
func (e *Engine) expireRequest(ctx context.Context, req *models.BookingRequest, carUnavailable bool) bool {
	res := e.db.WithContext(ctx).Model(&models.BookingRequest{}).
		Where("id = ? AND status = ?", req.ID, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":     models.RequestStatusExpired,
			"updated_at": e.now(),
		})
	if res.Error != nil || res.RowsAffected == 0 {
		return false
	}
	req.Status = models.RequestStatusExpired

	e.notifier.RequestExpired(ctx, RequestEvent{
		RecipientID:    req.InitiatorID(),
		CarID:          req.CarID,
		CarName:        req.Car.CarName,
		RequestID:      req.ID,
		InitiatedBy:    req.InitiatedBy,
		CarUnavailable: carUnavailable,
	})
	return true
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
