package handlers

import (
	"errors"
	"strconv"

	"github.com/chachabrian/carmitra-backend/internal/booking"
	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/gin-gonic/gin"
)

// actorFromContext builds the engine actor from the claims AuthMiddleware
// stored on the context.
func actorFromContext(c *gin.Context) booking.Actor {
	return booking.Actor{
		ID:        c.GetUint("userId"),
		Role:      models.Role(c.GetString("role")),
		KYCStatus: models.KYCStatus(c.GetString("kycStatus")),
	}
}

// respondError maps engine errors onto HTTP responses. Unknown errors are
// masked as a plain 500.
func respondError(c *gin.Context, err error) {
	var be *booking.Error
	if errors.As(err, &be) {
		c.JSON(be.HTTPStatus(), gin.H{"error": be.Message, "code": be.Code})
		return
	}
	c.JSON(500, gin.H{"error": "Something went wrong"})
}

func listFiltersFromQuery(c *gin.Context) booking.ListFilters {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	carID, _ := strconv.ParseUint(c.Query("carId"), 10, 32)
	return booking.ListFilters{
		Status: models.RequestStatus(c.Query("status")),
		CarID:  uint(carID),
		Page:   page,
		Limit:  limit,
	}
}

// CreateBookingRequest lets a driver request a car
func CreateBookingRequest(engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			CarID   uint   `json:"carId" binding:"required"`
			Message string `json:"message"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		req, err := engine.Create(c.Request.Context(), actorFromContext(c), input.CarID, input.Message)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, req)
	}
}

// InviteDriver lets an operator invite a driver for one of their cars
func InviteDriver(engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			CarID    uint   `json:"carId" binding:"required"`
			DriverID uint   `json:"driverId" binding:"required"`
			Message  string `json:"message"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		req, err := engine.Invite(c.Request.Context(), actorFromContext(c), input.CarID, input.DriverID, input.Message)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, req)
	}
}

// ListSentRequests returns requests the caller initiated
func ListSentRequests(engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := listFiltersFromQuery(c)
		requests, total, err := engine.ListSent(c.Request.Context(), actorFromContext(c), filters)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"requests": requests,
			"total":    total,
			"page":     filters.Page,
			"limit":    filters.Limit,
		})
	}
}

// ListReceivedRequests returns requests addressed to the caller
func ListReceivedRequests(engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := listFiltersFromQuery(c)
		requests, total, err := engine.ListReceived(c.Request.Context(), actorFromContext(c), filters)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"requests": requests,
			"total":    total,
			"page":     filters.Page,
			"limit":    filters.Limit,
		})
	}
}

// GetBookingRequest returns a single request visible to the caller
func GetBookingRequest(engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request id"})
			return
		}

		req, err := engine.GetByID(c.Request.Context(), actorFromContext(c), uint(id))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, req)
	}
}

// UpdateBookingRequestStatus lets the receiver accept or reject a request
func UpdateBookingRequestStatus(engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request id"})
			return
		}

		var input struct {
			Status models.RequestStatus `json:"status" binding:"required"`
			Reason string               `json:"reason"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		req, err := engine.UpdateStatus(c.Request.Context(), actorFromContext(c), uint(id), input.Status, input.Reason)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, req)
	}
}

// CancelBookingRequest lets the initiator withdraw a pending request
func CancelBookingRequest(engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request id"})
			return
		}

		if err := engine.Cancel(c.Request.Context(), actorFromContext(c), uint(id)); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{"message": "Request cancelled"})
	}
}

// GetRequestCounts returns the caller's dashboard summary
func GetRequestCounts(engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := engine.Counts(c.Request.Context(), actorFromContext(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, counts)
	}
}

// GetDailyLimits returns today's usage against the caller's daily cap
func GetDailyLimits(engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := engine.DailyLimits(c.Request.Context(), actorFromContext(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"used":      status.Used,
			"remaining": status.Remaining,
			"limit":     status.Limit,
			"allowed":   status.Allowed,
		})
	}
}
