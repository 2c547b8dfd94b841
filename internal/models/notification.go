package models

import (
	"gorm.io/gorm"
)

// Notification is the persisted history of a dispatched notification. Rows
// older than NOTIFICATION_RETENTION_DAYS are removed by the cleanup job;
// delivery itself is best-effort and never blocks the triggering operation.
type Notification struct {
	gorm.Model
	UserID uint   `json:"userId" gorm:"column:user_id;not null;index"`
	Type   string `json:"type" gorm:"column:type;not null"`
	Title  string `json:"title" gorm:"column:title;not null"`
	Body   string `json:"body" gorm:"column:body;not null"`
	Data   string `json:"data,omitempty" gorm:"column:data"`
	IsRead bool   `json:"isRead" gorm:"column:is_read;not null;default:false"`
}

// TableName specifies the table name
func (Notification) TableName() string {
	return "notifications"
}
