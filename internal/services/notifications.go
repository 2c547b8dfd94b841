package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chachabrian/carmitra-backend/internal/booking"
	"github.com/chachabrian/carmitra-backend/internal/models"
	"gorm.io/gorm"
)

// Notification type tags stored with each row and sent in FCM data.
const (
	TypeBookingRequestCreated      = "BOOKING_REQUEST_CREATED"
	TypeBookingInvitationCreated   = "BOOKING_INVITATION_CREATED"
	TypeBookingRequestAccepted     = "BOOKING_REQUEST_ACCEPTED"
	TypeBookingInvitationAccepted  = "BOOKING_INVITATION_ACCEPTED"
	TypeBookingRequestRejected     = "BOOKING_REQUEST_REJECTED"
	TypeBookingInvitationRejected  = "BOOKING_INVITATION_REJECTED"
	TypeBookingRequestCancelled    = "BOOKING_REQUEST_CANCELLED"
	TypeBookingInvitationCancelled = "BOOKING_INVITATION_CANCELLED"
	TypeBookingRequestExpired      = "BOOKING_REQUEST_EXPIRED"
	TypeBookingInvitationExpired   = "BOOKING_INVITATION_EXPIRED"
	TypeCarDeactivated             = "CAR_DEACTIVATED"
	TypeDailyLimitReached          = "DAILY_LIMIT_REACHED"
)

// Client click actions carried in the FCM data payload.
const (
	ActionOpenReceivedRequests = "OPEN_RECEIVED_REQUESTS"
	ActionOpenSentRequests     = "OPEN_SENT_REQUESTS"
	ActionOpenDashboard        = "OPEN_DASHBOARD"
	ActionOpenMyCars           = "OPEN_MY_CARS"
)

// Dispatcher fans a booking event out to every delivery channel: a
// persisted notification row, an FCM push, a websocket frame, and a Redis
// pub/sub message for other instances. It implements booking.Notifier.
// Delivery is fire-and-forget; a channel failure is logged, never
// propagated back into the state machine.
type Dispatcher struct {
	db  *gorm.DB
	hub *Hub
}

func NewDispatcher(db *gorm.DB, hub *Hub) *Dispatcher {
	return &Dispatcher{db: db, hub: hub}
}

var _ booking.Notifier = (*Dispatcher)(nil)

func (d *Dispatcher) RequestCreated(ctx context.Context, ev booking.RequestEvent) {
	var p NotificationPayload
	notifType := TypeBookingRequestCreated
	if ev.InitiatedBy == models.RoleOperator {
		notifType = TypeBookingInvitationCreated
		p = NotificationPayload{
			Title: "New Car Invitation",
			Body:  fmt.Sprintf("%s invited you for %s", ev.ActorName, ev.CarName),
		}
	} else {
		p = NotificationPayload{
			Title: "New Booking Request",
			Body:  fmt.Sprintf("%s requested your %s", ev.ActorName, ev.CarName),
		}
	}
	p.Data = requestData(notifType, ev, ActionOpenReceivedRequests)
	d.deliver(ctx, ev.RecipientID, notifType, p, ev)
}

func (d *Dispatcher) RequestAccepted(ctx context.Context, ev booking.RequestEvent) {
	var p NotificationPayload
	notifType := TypeBookingRequestAccepted
	if ev.InitiatedBy == models.RoleOperator {
		// The driver accepted the operator's invitation.
		notifType = TypeBookingInvitationAccepted
		p = NotificationPayload{
			Title: "Invitation Accepted! 🎉",
			Body:  fmt.Sprintf("%s accepted your invitation for %s", ev.ActorName, ev.CarName),
		}
	} else {
		p = NotificationPayload{
			Title: "Request Accepted! 🎉",
			Body:  fmt.Sprintf("%s accepted your request for %s", ev.ActorName, ev.CarName),
		}
	}
	p.Data = requestData(notifType, ev, ActionOpenSentRequests)
	if ev.ActorPhone != "" {
		p.Data["phone_number"] = ev.ActorPhone
	}
	d.deliver(ctx, ev.RecipientID, notifType, p, ev)
}

func (d *Dispatcher) RequestRejected(ctx context.Context, ev booking.RequestEvent) {
	noun := "request"
	notifType := TypeBookingRequestRejected
	title := "Request Rejected"
	if ev.InitiatedBy == models.RoleOperator {
		noun = "invitation"
		notifType = TypeBookingInvitationRejected
		title = "Invitation Rejected"
	}
	body := fmt.Sprintf("%s rejected your %s for %s", ev.ActorName, noun, ev.CarName)
	if ev.Reason != "" {
		body = fmt.Sprintf("%s. Reason: %s", body, ev.Reason)
	}
	p := NotificationPayload{Title: title, Body: body}
	p.Data = requestData(notifType, ev, ActionOpenSentRequests)
	d.deliver(ctx, ev.RecipientID, notifType, p, ev)
}

func (d *Dispatcher) RequestCancelled(ctx context.Context, ev booking.RequestEvent) {
	var p NotificationPayload
	notifType := TypeBookingRequestCancelled
	if ev.InitiatedBy == models.RoleOperator {
		notifType = TypeBookingInvitationCancelled
		p = NotificationPayload{
			Title: "Invitation Cancelled",
			Body:  fmt.Sprintf("%s cancelled the invitation for %s", ev.ActorName, ev.CarName),
		}
	} else {
		p = NotificationPayload{
			Title: "Request Cancelled",
			Body:  fmt.Sprintf("%s cancelled their request for %s", ev.ActorName, ev.CarName),
		}
	}
	p.Data = requestData(notifType, ev, ActionOpenReceivedRequests)
	d.deliver(ctx, ev.RecipientID, notifType, p, ev)
}

func (d *Dispatcher) RequestExpired(ctx context.Context, ev booking.RequestEvent) {
	noun := "request"
	notifType := TypeBookingRequestExpired
	title := "Request Expired"
	if ev.InitiatedBy == models.RoleOperator {
		noun = "invitation"
		notifType = TypeBookingInvitationExpired
		title = "Invitation Expired"
	}
	var body string
	if ev.CarUnavailable {
		body = fmt.Sprintf("%s is no longer available. Your %s has expired.", ev.CarName, noun)
	} else {
		body = fmt.Sprintf("Your %s for %s has expired.", noun, ev.CarName)
	}
	p := NotificationPayload{Title: title, Body: body}
	p.Data = requestData(notifType, ev, ActionOpenSentRequests)
	d.deliver(ctx, ev.RecipientID, notifType, p, ev)
}

func (d *Dispatcher) CarAutoDeactivated(ctx context.Context, operatorID uint, carName string, carID uint) {
	p := NotificationPayload{
		Title: "Car Deactivated",
		Body:  fmt.Sprintf("%s was deactivated due to inactivity. Update the listing to make it bookable again.", carName),
		Data: map[string]interface{}{
			"type":         TypeCarDeactivated,
			"car_id":       fmt.Sprintf("%d", carID),
			"click_action": ActionOpenMyCars,
		},
	}
	d.persistAndPush(ctx, operatorID, TypeCarDeactivated, p)

	if d.hub != nil {
		d.hub.SendCarStatusUpdate(operatorID, CarStatusUpdate{
			CarID:    carID,
			CarName:  carName,
			IsActive: false,
		})
	}
	if err := PublishCarUpdate(ctx, carID, false); err != nil {
		log.Printf("Error publishing car update: %v", err)
	}
}

func (d *Dispatcher) DailyLimitReached(ctx context.Context, userID uint, role models.Role, limit int) {
	noun := "requests"
	if role == models.RoleOperator {
		noun = "invitations"
	}
	p := NotificationPayload{
		Title: "Daily Limit Reached",
		Body:  fmt.Sprintf("You've reached your daily limit of %d %s. Try again tomorrow.", limit, noun),
		Data: map[string]interface{}{
			"type":         TypeDailyLimitReached,
			"limit":        fmt.Sprintf("%d", limit),
			"click_action": ActionOpenDashboard,
		},
	}
	d.persistAndPush(ctx, userID, TypeDailyLimitReached, p)
}

// CleanupOldNotifications removes notification rows older than the
// retention window. Returns the number of rows deleted.
func (d *Dispatcher) CleanupOldNotifications(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := d.db.WithContext(ctx).Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func requestData(notifType string, ev booking.RequestEvent, clickAction string) map[string]interface{} {
	data := map[string]interface{}{
		"type":         notifType,
		"car_id":       fmt.Sprintf("%d", ev.CarID),
		"click_action": clickAction,
	}
	if ev.RequestID != 0 {
		data["request_id"] = fmt.Sprintf("%d", ev.RequestID)
	}
	return data
}

// deliver handles the booking-event channels: row, push, websocket, pub/sub.
func (d *Dispatcher) deliver(ctx context.Context, userID uint, notifType string, p NotificationPayload, ev booking.RequestEvent) {
	d.persistAndPush(ctx, userID, notifType, p)

	if d.hub != nil {
		d.hub.SendBookingUpdate(userID, BookingRequestUpdate{
			RequestID: ev.RequestID,
			CarID:     ev.CarID,
			CarName:   ev.CarName,
			Status:    notifType,
			Title:     p.Title,
			Body:      p.Body,
		})
	}

	if err := PublishBookingUpdate(ctx, ev.RequestID, notifType, map[string]interface{}{
		"recipientId": userID,
		"carId":       ev.CarID,
	}); err != nil {
		log.Printf("Error publishing booking update: %v", err)
	}
}

// persistAndPush writes the notification row and sends the FCM push. The
// push runs in its own goroutine so a slow FCM round trip never blocks a
// booking operation.
func (d *Dispatcher) persistAndPush(ctx context.Context, userID uint, notifType string, p NotificationPayload) {
	dataJSON, err := json.Marshal(p.Data)
	if err != nil {
		log.Printf("Error marshaling notification data: %v", err)
		dataJSON = []byte("{}")
	}

	notif := models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  p.Title,
		Body:   p.Body,
		Data:   string(dataJSON),
	}
	if err := d.db.WithContext(ctx).Create(&notif).Error; err != nil {
		log.Printf("Error saving notification for user %d: %v", userID, err)
	}

	token := d.deviceToken(ctx, userID)
	if token == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := SendNotificationToToken(ctx, token, p); err != nil {
			log.Printf("Error sending push to user %d: %v", userID, err)
		}
	}()
}

// deviceToken resolves a user's FCM token, preferring the Redis cache and
// falling back to the users table.
func (d *Dispatcher) deviceToken(ctx context.Context, userID uint) string {
	if token, err := GetCachedDeviceToken(ctx, userID); err == nil && token != "" {
		return token
	}

	var user models.User
	if err := d.db.WithContext(ctx).Select("fcm_token").First(&user, userID).Error; err != nil {
		return ""
	}
	if user.FCMToken != "" {
		if err := CacheDeviceToken(ctx, userID, user.FCMToken); err != nil {
			log.Printf("Error caching device token for user %d: %v", userID, err)
		}
	}
	return user.FCMToken
}
