package models

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleDriver   Role = "DRIVER"
	RoleOperator Role = "OPERATOR"
	RoleAdmin    Role = "ADMIN"
)

type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "NOT_SUBMITTED"
	KYCPending      KYCStatus = "PENDING"
	KYCApproved     KYCStatus = "APPROVED"
	KYCRejected     KYCStatus = "REJECTED"
)

// User is an authenticated actor. Identity is the phone number asserted by
// Firebase phone auth; this table carries the profile and KYC state the
// booking flows depend on.
type User struct {
	gorm.Model
	FullName        string    `json:"fullName" gorm:"column:full_name;not null"`
	AgencyName      string    `json:"agencyName,omitempty" gorm:"column:agency_name"`
	PhoneNumber     string    `json:"phoneNumber" gorm:"column:phone_number;unique;not null"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty" gorm:"column:profile_image_url"`
	Role            Role      `json:"role" gorm:"column:role;not null;default:'DRIVER'"`
	KYCStatus       KYCStatus `json:"kycStatus" gorm:"column:kyc_status;not null;default:'NOT_SUBMITTED'"`
	FCMToken        string    `json:"-" gorm:"column:fcm_token"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// KYCVerified reports whether the user may participate in booking flows.
func (u *User) KYCVerified() bool {
	return u.KYCStatus == KYCApproved
}

// DisplayName returns the agency name for operators when present, otherwise
// the personal name. Used in notification bodies.
func (u *User) DisplayName() string {
	if u.Role == RoleOperator && u.AgencyName != "" {
		return u.AgencyName
	}
	return u.FullName
}
