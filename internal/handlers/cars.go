package handlers

import (
	"strconv"
	"strings"

	"github.com/chachabrian/carmitra-backend/internal/booking"
	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/chachabrian/carmitra-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// normalizeCarNumber strips spaces and uppercases a registration number so
// "ka 01 ab 1234" and "KA01AB1234" resolve to the same car.
func normalizeCarNumber(number string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(number), " ", ""))
}

// CreateCar lets an operator list a new car
func CreateCar(db *gorm.DB, engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		carNumber := normalizeCarNumber(c.PostForm("carNumber"))
		carName := strings.TrimSpace(c.PostForm("carName"))
		if carNumber == "" || carName == "" {
			c.JSON(400, gin.H{"error": "carNumber and carName are required"})
			return
		}

		var existing models.Car
		if err := db.Where("car_number = ?", carNumber).First(&existing).Error; err == nil {
			c.JSON(409, gin.H{"error": "A car with this number is already listed", "code": "CAR_ALREADY_EXISTS"})
			return
		}

		rateAmount, _ := strconv.ParseFloat(c.PostForm("rateAmount"), 64)
		depositAmount, _ := strconv.ParseFloat(c.PostForm("depositAmount"), 64)

		car := models.Car{
			OperatorID:    userId,
			CarNumber:     carNumber,
			CarName:       carName,
			City:          c.PostForm("city"),
			Area:          c.PostForm("area"),
			Category:      c.PostForm("category"),
			Transmission:  c.PostForm("transmission"),
			FuelType:      c.PostForm("fuelType"),
			RateType:      c.PostForm("rateType"),
			RateAmount:    rateAmount,
			DepositAmount: depositAmount,
			Instructions:  c.PostForm("instructions"),
			IsActive:      true,
			LastActiveAt:  engine.Evaluator().Now(),
		}

		// RC documents
		if rcFront, err := c.FormFile("rcFront"); err == nil {
			url, err := services.UploadImage(rcFront, "cars/rc")
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to upload RC document"})
				return
			}
			car.RCFrontURL = services.GetImageURL(url)
		}
		if rcBack, err := c.FormFile("rcBack"); err == nil {
			url, err := services.UploadImage(rcBack, "cars/rc")
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to upload RC document"})
				return
			}
			car.RCBackURL = services.GetImageURL(url)
		}

		// Gallery images
		form, _ := c.MultipartForm()
		var imageURLs []string
		if form != nil {
			for _, file := range form.File["images"] {
				url, err := services.UploadImage(file, "cars")
				if err != nil {
					c.JSON(500, gin.H{"error": "Failed to upload car image"})
					return
				}
				imageURLs = append(imageURLs, services.GetImageURL(url))
			}
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&car).Error; err != nil {
				return err
			}
			for i, url := range imageURLs {
				image := models.CarImage{
					CarID:     car.ID,
					ImageURL:  url,
					IsPrimary: i == 0,
				}
				if err := tx.Create(&image).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to create car"})
			return
		}

		db.Preload("Images").First(&car, car.ID)
		c.JSON(201, car)
	}
}

// GetCars lists cars. Drivers see only bookable cars; operators see their
// own fleet including deactivated entries.
func GetCars(db *gorm.DB, engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		role := models.Role(c.GetString("role"))

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if limit < 1 {
			limit = 10
		}

		query := db.Model(&models.Car{})

		if role == models.RoleOperator {
			query = query.Where("operator_id = ?", userId)
		} else {
			// Drivers never see cars that are inactive or due for
			// deactivation. The threshold pre-filter keeps stale cars
			// out of the page before the lazy pass settles them.
			query = query.Where("is_active = ? AND last_active_at >= ?",
				true, engine.Evaluator().InactivityThreshold())
		}

		if city := c.Query("city"); city != "" {
			query = query.Where("city = ?", city)
		}
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category)
		}
		if transmission := c.Query("transmission"); transmission != "" {
			query = query.Where("transmission = ?", transmission)
		}
		if fuelType := c.Query("fuelType"); fuelType != "" {
			query = query.Where("fuel_type = ?", fuelType)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch cars"})
			return
		}

		var cars []models.Car
		if err := query.Preload("Images").Preload("Operator").
			Order("created_at DESC").
			Limit(limit).Offset((page - 1) * limit).
			Find(&cars).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch cars"})
			return
		}

		if role != models.RoleOperator {
			filtered, err := engine.Gate().FilterBookable(c.Request.Context(), cars)
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to fetch cars"})
				return
			}
			cars = filtered
		}

		c.JSON(200, gin.H{
			"cars":  cars,
			"total": total,
			"page":  page,
			"limit": limit,
		})
	}
}

// GetCarByID returns one car. A stale car is deactivated on the way out,
// and drivers get a 404 for anything not bookable.
func GetCarByID(db *gorm.DB, engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		role := models.Role(c.GetString("role"))

		var car models.Car
		if err := db.Preload("Images").Preload("Operator").
			First(&car, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Car not found", "code": "CAR_NOT_FOUND"})
			return
		}

		if engine.Evaluator().IsCarInactive(&car) {
			if _, err := engine.Gate().Deactivate(c.Request.Context(), &car); err != nil {
				c.JSON(500, gin.H{"error": "Failed to fetch car"})
				return
			}
		}

		if role != models.RoleOperator && !car.IsActive {
			c.JSON(404, gin.H{"error": "Car not found", "code": "CAR_NOT_FOUND"})
			return
		}
		if role == models.RoleOperator && car.OperatorID != userId {
			c.JSON(403, gin.H{"error": "You do not own this car"})
			return
		}

		c.JSON(200, car)
	}
}

// UpdateCar lets an operator edit one of their cars. Any edit counts as
// activity and resets the inactivity window. Deactivating a car expires
// its pending requests.
func UpdateCar(db *gorm.DB, engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var car models.Car
		if err := db.First(&car, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Car not found", "code": "CAR_NOT_FOUND"})
			return
		}
		if car.OperatorID != userId {
			c.JSON(403, gin.H{"error": "You do not own this car"})
			return
		}

		var input struct {
			CarName       *string  `json:"carName"`
			City          *string  `json:"city"`
			Area          *string  `json:"area"`
			Category      *string  `json:"category"`
			Transmission  *string  `json:"transmission"`
			FuelType      *string  `json:"fuelType"`
			RateType      *string  `json:"rateType"`
			RateAmount    *float64 `json:"rateAmount"`
			DepositAmount *float64 `json:"depositAmount"`
			Instructions  *string  `json:"instructions"`
			IsActive      *bool    `json:"isActive"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		wasActive := car.IsActive

		if input.CarName != nil {
			car.CarName = *input.CarName
		}
		if input.City != nil {
			car.City = *input.City
		}
		if input.Area != nil {
			car.Area = *input.Area
		}
		if input.Category != nil {
			car.Category = *input.Category
		}
		if input.Transmission != nil {
			car.Transmission = *input.Transmission
		}
		if input.FuelType != nil {
			car.FuelType = *input.FuelType
		}
		if input.RateType != nil {
			car.RateType = *input.RateType
		}
		if input.RateAmount != nil {
			car.RateAmount = *input.RateAmount
		}
		if input.DepositAmount != nil {
			car.DepositAmount = *input.DepositAmount
		}
		if input.IsActive != nil {
			car.IsActive = *input.IsActive
		}
		if input.Instructions != nil {
			car.Instructions = *input.Instructions
		}

		// An edit is activity, whether or not the listing changed.
		car.LastActiveAt = engine.Evaluator().Now()

		if err := db.Save(&car).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update car"})
			return
		}

		if wasActive && !car.IsActive {
			if _, err := engine.ExpireRequestsForCar(c.Request.Context(), car.ID, car.CarName); err != nil {
				c.JSON(500, gin.H{"error": "Failed to update car"})
				return
			}
		}

		db.Preload("Images").First(&car, car.ID)
		c.JSON(200, car)
	}
}

// DeleteCar removes a car listing. Pending requests are expired first so
// neither party is left waiting on a car that no longer exists.
func DeleteCar(db *gorm.DB, engine *booking.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var car models.Car
		if err := db.First(&car, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Car not found", "code": "CAR_NOT_FOUND"})
			return
		}
		if car.OperatorID != userId {
			c.JSON(403, gin.H{"error": "You do not own this car"})
			return
		}

		if _, err := engine.ExpireRequestsForCar(c.Request.Context(), car.ID, car.CarName); err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete car"})
			return
		}

		if err := db.Delete(&car).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete car"})
			return
		}

		c.JSON(200, gin.H{"message": "Car deleted"})
	}
}
