package handlers

import (
	"context"

	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/chachabrian/carmitra-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterFCMToken registers or updates a user's FCM token
func RegisterFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			FCMToken string `json:"fcmToken" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		// Update user's FCM token
		if err := db.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", input.FCMToken).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to register FCM token"})
			return
		}

		ctx := context.Background()
		if err := services.CacheDeviceToken(ctx, userID, input.FCMToken); err != nil {
			// Cache writes are advisory; the users table stays
			// authoritative.
			c.JSON(200, gin.H{"message": "FCM token registered successfully"})
			return
		}

		// Subscribe to the role topic for broadcast messaging
		topic := "drivers"
		if models.Role(c.GetString("role")) == models.RoleOperator {
			topic = "operators"
		}
		if err := services.SubscribeToTopic(ctx, []string{input.FCMToken}, topic); err != nil {
			c.JSON(200, gin.H{
				"message": "FCM token registered successfully, but topic subscription failed",
				"warning": err.Error(),
			})
			return
		}

		c.JSON(200, gin.H{
			"message": "FCM token registered and subscribed to topics",
			"topic":   topic,
		})
	}
}

// RemoveFCMToken removes a user's FCM token
func RemoveFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		// Clear user's FCM token
		if err := db.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", "").Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to remove FCM token"})
			return
		}

		if err := services.DropCachedDeviceToken(context.Background(), userID); err != nil {
			c.JSON(200, gin.H{"message": "FCM token removed successfully", "warning": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": "FCM token removed successfully",
		})
	}
}

// ListNotifications returns the caller's notification history, newest first
func ListNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var notifications []models.Notification
		query := db.Where("user_id = ?", userID)
		if c.Query("unread") == "true" {
			query = query.Where("is_read = ?", false)
		}
		if err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch notifications"})
			return
		}

		c.JSON(200, notifications)
	}
}

// MarkNotificationRead marks one notification as read
func MarkNotificationRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		res := db.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", c.Param("id"), userID).
			Update("is_read", true)
		if res.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update notification"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Notification not found"})
			return
		}

		c.JSON(200, gin.H{"message": "Notification marked as read"})
	}
}

// MarkAllNotificationsRead marks every unread notification as read
func MarkAllNotificationsRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		if err := db.Model(&models.Notification{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Update("is_read", true).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update notifications"})
			return
		}

		c.JSON(200, gin.H{"message": "All notifications marked as read"})
	}
}

// GetUnreadCount returns the caller's unread notification count
func GetUnreadCount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var count int64
		if err := db.Model(&models.Notification{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Count(&count).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to count notifications"})
			return
		}

		c.JSON(200, gin.H{"count": count})
	}
}

// TestNotification sends a test notification to the current user
func TestNotification(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		// Get user's FCM token
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to get user information"})
			return
		}

		if user.FCMToken == "" {
			c.JSON(400, gin.H{"error": "No FCM token registered for this user"})
			return
		}

		// Send test notification
		ctx := context.Background()
		payload := services.NotificationPayload{
			Title: "Test Notification",
			Body:  "This is a test notification from CarMitra",
			Data: map[string]interface{}{
				"type":   "test",
				"userId": userID,
			},
		}

		if err := services.SendNotificationToToken(ctx, user.FCMToken, payload); err != nil {
			c.JSON(500, gin.H{"error": "Failed to send test notification", "details": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": "Test notification sent successfully",
		})
	}
}
