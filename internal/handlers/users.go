package handlers

import (
	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/chachabrian/carmitra-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetProfile retrieves the user's profile
func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		c.JSON(200, gin.H{
			"id":              user.ID,
			"fullName":        user.FullName,
			"agencyName":      user.AgencyName,
			"phoneNumber":     user.PhoneNumber,
			"profileImageUrl": user.ProfileImageURL,
			"role":            user.Role,
			"kycStatus":       user.KYCStatus,
		})
	}
}

// UpdateProfile updates the user's profile information
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			FullName   *string `json:"fullName"`
			AgencyName *string `json:"agencyName"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		// Update fields individually to handle empty strings properly
		if input.FullName != nil {
			user.FullName = *input.FullName
		}
		if input.AgencyName != nil {
			user.AgencyName = *input.AgencyName
		}

		// Use Save() instead of Updates() to persist all fields including empty strings
		if err := db.Save(&user).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update profile"})
			return
		}

		c.JSON(200, gin.H{
			"id":          user.ID,
			"fullName":    user.FullName,
			"agencyName":  user.AgencyName,
			"phoneNumber": user.PhoneNumber,
			"role":        user.Role,
			"kycStatus":   user.KYCStatus,
		})
	}
}

// UploadProfileImage replaces the user's profile photo
func UploadProfileImage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(400, gin.H{"error": "image file is required"})
			return
		}

		url, err := services.UploadImage(file, "profiles")
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload image"})
			return
		}
		fullURL := services.GetImageURL(url)

		if err := db.Model(&models.User{}).Where("id = ?", userId).
			Update("profile_image_url", fullURL).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update profile"})
			return
		}

		c.JSON(200, gin.H{"profileImageUrl": fullURL})
	}
}

// ListDrivers lets operators look up verified drivers to invite
func ListDrivers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var drivers []models.User
		query := db.Where("role = ? AND kyc_status = ?", models.RoleDriver, models.KYCApproved)
		if search := c.Query("search"); search != "" {
			query = query.Where("full_name ILIKE ? OR phone_number LIKE ?", "%"+search+"%", "%"+search+"%")
		}
		if err := query.Limit(50).Find(&drivers).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch drivers"})
			return
		}

		results := make([]gin.H, 0, len(drivers))
		for _, d := range drivers {
			results = append(results, gin.H{
				"id":              d.ID,
				"fullName":        d.FullName,
				"profileImageUrl": d.ProfileImageURL,
			})
		}

		c.JSON(200, results)
	}
}
