package models

import "time"

type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Number      int       `gorm:"uniqueIndex;not null" json:"number"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	IsAvailable bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
