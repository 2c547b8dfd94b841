package models

import (
	"time"

	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusExpired   RequestStatus = "EXPIRED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
)

// Terminal reports whether a status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s != RequestStatusPending
}

// BookingRequest is a driver's ask for a car or an operator's invitation to
// a driver. InitiatedBy decides who may cancel (the initiator) and who may
// accept or reject (the receiver). OperatorID is always the car's owner,
// for invitations too.
//
// At most one PENDING row may exist per (car, driver, initiated_by); the
// partial unique index created in database.RunMigrations enforces this under
// concurrent creates.
type BookingRequest struct {
	gorm.Model
	CarID      uint `json:"carId" gorm:"column:car_id;not null;index"`
	Car        Car  `json:"car,omitempty" gorm:"foreignKey:CarID"`
	DriverID   uint `json:"driverId" gorm:"column:driver_id;not null;index"`
	Driver     User `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	OperatorID uint `json:"operatorId" gorm:"column:operator_id;not null;index"`
	Operator   User `json:"operator,omitempty" gorm:"foreignKey:OperatorID"`

	InitiatedBy  Role          `json:"initiatedBy" gorm:"column:initiated_by;not null;default:'DRIVER'"`
	Status       RequestStatus `json:"status" gorm:"column:status;not null;default:'PENDING'"`
	Message      string        `json:"message,omitempty" gorm:"column:message"`
	RejectReason string        `json:"rejectReason,omitempty" gorm:"column:reject_reason"`
	ExpiresAt    time.Time     `json:"expiresAt" gorm:"column:expires_at;not null"`
}

// TableName specifies the table name
func (BookingRequest) TableName() string {
	return "booking_requests"
}

// InitiatorID returns the id of the party who created the request.
func (r *BookingRequest) InitiatorID() uint {
	if r.InitiatedBy == RoleOperator {
		return r.OperatorID
	}
	return r.DriverID
}

// ReceiverID returns the id of the counterpart party, the one entitled to
// accept or reject.
func (r *BookingRequest) ReceiverID() uint {
	if r.InitiatedBy == RoleOperator {
		return r.DriverID
	}
	return r.OperatorID
}
