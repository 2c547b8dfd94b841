package booking

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/chachabrian/carmitra-backend/internal/models"
)

// Kind classifies an expected, user-facing failure. Handlers map kinds to
// HTTP status codes; anything that is not a *Error is an infrastructure
// failure and must be logged and surfaced generically.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindPermissionDenied
	KindInvalidState
	KindConflict
	KindPolicyViolation
	KindRateLimited
	KindExpired
)

// Error is a typed engine failure carrying a stable machine code and a
// message safe to show to users.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindInvalidState, KindPolicyViolation:
		return http.StatusBadRequest
	case KindExpired:
		// Distinguished from InvalidState so clients can explain
		// "too late" versus "already decided".
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the kind of err if it is a booking error, KindUnknown
// otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the machine code of err if it is a booking error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var (
	ErrCarNotFound = &Error{KindNotFound, "CAR_NOT_FOUND", "Car not found"}

	ErrCarNotAvailable = &Error{KindPolicyViolation, "CAR_NOT_AVAILABLE", "Car is not available for booking"}

	ErrCannotBookOwnCar = &Error{KindPolicyViolation, "CANNOT_BOOK_OWN_CAR", "You cannot book your own car"}

	ErrCannotInviteSelf = &Error{KindPolicyViolation, "CANNOT_INVITE_SELF", "You cannot invite yourself"}

	ErrKYCNotApproved = &Error{KindPolicyViolation, "KYC_NOT_APPROVED", "Complete KYC verification to use booking features"}

	ErrDriverNotFound = &Error{KindNotFound, "DRIVER_NOT_FOUND", "Driver not found"}

	ErrNotADriver = &Error{KindPolicyViolation, "USER_NOT_DRIVER", "The selected user is not a driver"}

	ErrDriverNotVerified = &Error{KindPolicyViolation, "DRIVER_NOT_VERIFIED", "The selected driver has not completed KYC verification"}

	ErrRequestExists = &Error{KindConflict, "REQUEST_ALREADY_EXISTS", "You already have a pending request for this car"}

	ErrInvitationExists = &Error{KindConflict, "INVITATION_ALREADY_EXISTS", "You already have a pending invitation for this driver and car"}

	ErrRequestNotFound = &Error{KindNotFound, "BOOKING_NOT_FOUND", "Booking request not found"}

	ErrPermissionDenied = &Error{KindPermissionDenied, "BOOKING_PERMISSION_DENIED", "You do not have permission to act on this request"}

	ErrNotCarOwner = &Error{KindPermissionDenied, "CAR_PERMISSION_DENIED", "You do not have permission to manage this car"}

	ErrAlreadyProcessed = &Error{KindInvalidState, "REQUEST_ALREADY_PROCESSED", "This request has already been processed"}

	ErrRequestExpired = &Error{KindExpired, "REQUEST_EXPIRED", "This request has expired"}

	ErrInvalidStatus = &Error{KindInvalidState, "INVALID_STATUS", "Status must be ACCEPTED or REJECTED"}
)

// DailyLimitError builds the rate-limit failure with the role-appropriate
// wording.
func DailyLimitError(limit int, role models.Role) *Error {
	noun := "requests"
	if role == models.RoleOperator {
		noun = "invitations"
	}
	return &Error{
		Kind:    KindRateLimited,
		Code:    "DAILY_LIMIT_REACHED",
		Message: fmt.Sprintf("You've reached your daily limit of %d %s. Try again tomorrow.", limit, noun),
	}
}
