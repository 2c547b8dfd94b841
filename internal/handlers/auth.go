package handlers

import (
	"errors"

	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/chachabrian/carmitra-backend/internal/services"
	"github.com/chachabrian/carmitra-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Login verifies a Firebase phone-auth token and finds or creates the user.
// Identity is the phone number; there are no passwords.
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			FirebaseToken string `json:"firebaseToken" binding:"required"`
			FCMToken      string `json:"fcmToken"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		phone, err := services.VerifyPhoneToken(c.Request.Context(), input.FirebaseToken)
		if err != nil {
			c.JSON(401, gin.H{"error": "Invalid or expired token"})
			return
		}

		var user models.User
		isNewUser := false
		err = db.Where("phone_number = ?", phone).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				PhoneNumber: phone,
				KYCStatus:   models.KYCNotSubmitted,
				FCMToken:    input.FCMToken,
			}
			if err := db.Create(&user).Error; err != nil {
				c.JSON(500, gin.H{"error": "Failed to create user"})
				return
			}
			isNewUser = true
		} else if err != nil {
			c.JSON(500, gin.H{"error": "Failed to look up user"})
			return
		} else if input.FCMToken != "" {
			db.Model(&user).Update("fcm_token", input.FCMToken)
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"token":     token,
			"isNewUser": isNewUser,
			"user": gin.H{
				"id":          user.ID,
				"phoneNumber": user.PhoneNumber,
				"fullName":    user.FullName,
				"agencyName":  user.AgencyName,
				"role":        user.Role,
				"kycStatus":   user.KYCStatus,
			},
			"onboarding": gin.H{
				"roleSelected": user.Role != "",
				"kycSubmitted": user.KYCStatus != models.KYCNotSubmitted,
				"kycStatus":    user.KYCStatus,
			},
		})
	}
}

// SelectRole sets the caller's role during onboarding. The role is locked
// once KYC is approved.
func SelectRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Role models.Role `json:"role" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.Role != models.RoleDriver && input.Role != models.RoleOperator {
			c.JSON(400, gin.H{"error": "Invalid role"})
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		if user.KYCStatus == models.KYCApproved {
			c.JSON(400, gin.H{"error": "Cannot change role after KYC approval"})
			return
		}

		if err := db.Model(&user).Update("role", input.Role).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update role"})
			return
		}
		user.Role = input.Role

		// Reissue the token so the new role claim takes effect now
		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"token": token,
			"user": gin.H{
				"id":        user.ID,
				"role":      user.Role,
				"kycStatus": user.KYCStatus,
			},
		})
	}
}

// Logout clears the caller's FCM token so pushes stop on this device
func Logout(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		if err := db.Model(&models.User{}).Where("id = ?", userId).
			Update("fcm_token", "").Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to log out"})
			return
		}
		services.DropCachedDeviceToken(c.Request.Context(), userId)

		c.JSON(200, gin.H{"message": "Logged out"})
	}
}
