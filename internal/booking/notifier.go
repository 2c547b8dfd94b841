package booking

import (
	"context"

	"github.com/chachabrian/carmitra-backend/internal/models"
)

// RequestEvent describes a booking-request transition for the notification
// facade. ActorName is the counterpart party's display name from the
// recipient's point of view; ActorPhone is filled only on acceptance, where
// contact details are shared.
type RequestEvent struct {
	RecipientID uint
	ActorName   string
	ActorPhone  string
	CarID       uint
	CarName     string
	RequestID   uint
	InitiatedBy models.Role
	Reason      string
	// CarUnavailable marks expiries caused by the car being deactivated
	// or deleted rather than by the TTL running out.
	CarUnavailable bool
}

// Notifier receives engine transitions and dispatches notifications for
// them. Implementations must not block and must swallow delivery failures;
// the engine treats every call as fire-and-forget.
type Notifier interface {
	RequestCreated(ctx context.Context, ev RequestEvent)
	RequestAccepted(ctx context.Context, ev RequestEvent)
	RequestRejected(ctx context.Context, ev RequestEvent)
	RequestCancelled(ctx context.Context, ev RequestEvent)
	RequestExpired(ctx context.Context, ev RequestEvent)
	CarAutoDeactivated(ctx context.Context, operatorID uint, carName string, carID uint)
	DailyLimitReached(ctx context.Context, userID uint, role models.Role, limit int)
}

// NopNotifier discards every event. Used when notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) RequestCreated(context.Context, RequestEvent)                {}
func (NopNotifier) RequestAccepted(context.Context, RequestEvent)               {}
func (NopNotifier) RequestRejected(context.Context, RequestEvent)               {}
func (NopNotifier) RequestCancelled(context.Context, RequestEvent)              {}
func (NopNotifier) RequestExpired(context.Context, RequestEvent)                {}
func (NopNotifier) CarAutoDeactivated(context.Context, uint, string, uint)      {}
func (NopNotifier) DailyLimitReached(context.Context, uint, models.Role, int)   {}
