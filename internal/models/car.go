package models

import (
	"time"

	"gorm.io/gorm"
)

// Car is a vehicle listed by an operator. A car participates in booking
// only while IsActive is true and LastActiveAt is within the inactivity
// window; LastActiveAt is refreshed on operator edits, not on driver
// interest.
type Car struct {
	gorm.Model
	OperatorID    uint    `json:"operatorId" gorm:"column:operator_id;not null;index"`
	Operator      User    `json:"operator,omitempty" gorm:"foreignKey:OperatorID"`
	CarNumber     string  `json:"carNumber" gorm:"column:car_number;unique;not null"`
	CarName       string  `json:"carName" gorm:"column:car_name;not null"`
	City          string  `json:"city" gorm:"column:city"`
	Area          string  `json:"area,omitempty" gorm:"column:area"`
	Category      string  `json:"category" gorm:"column:category;not null"`
	Transmission  string  `json:"transmission" gorm:"column:transmission;not null"`
	FuelType      string  `json:"fuelType" gorm:"column:fuel_type;not null"`
	RateType      string  `json:"rateType" gorm:"column:rate_type;not null"`
	RateAmount    float64 `json:"rateAmount" gorm:"column:rate_amount;not null"`
	DepositAmount float64 `json:"depositAmount,omitempty" gorm:"column:deposit_amount"`
	Instructions  string  `json:"instructions,omitempty" gorm:"column:instructions"`
	RCFrontURL    string  `json:"rcFrontUrl,omitempty" gorm:"column:rc_front_url"`
	RCBackURL     string  `json:"rcBackUrl,omitempty" gorm:"column:rc_back_url"`

	IsActive     bool      `json:"isActive" gorm:"column:is_active;not null;default:true"`
	LastActiveAt time.Time `json:"lastActiveAt" gorm:"column:last_active_at;not null"`

	Images []CarImage `json:"images,omitempty" gorm:"foreignKey:CarID"`
}

// TableName specifies the table name
func (Car) TableName() string {
	return "cars"
}

// CarImage is a gallery photo attached to a car listing. Stored media is an
// opaque URL; upload/delete mechanics live in the storage service.
type CarImage struct {
	gorm.Model
	CarID     uint   `json:"carId" gorm:"column:car_id;not null;index"`
	ImageURL  string `json:"imageUrl" gorm:"column:image_url;not null"`
	IsPrimary bool   `json:"isPrimary" gorm:"column:is_primary;not null;default:false"`
}

// TableName specifies the table name
func (CarImage) TableName() string {
	return "car_images"
}
