package models

import (
	"time"

	"gorm.io/gorm"
)

// Reservation statuses. Pending and confirmed are the only statuses in
// which a reservation may hold a table; rejected and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

type Reservation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"type:date;not null;index:idx_reservations_slot" json:"date"`
	Time      string    `gorm:"type:varchar(5);not null;index:idx_reservations_slot" json:"time"`
	Guests    int       `gorm:"not null" json:"guests"`
	Phone     string    `gorm:"type:varchar(15);not null" json:"phone"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Status    string    `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	TableID   *uint     `gorm:"index" json:"table_id,omitempty"`
	Table     *Table    `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"table,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// IsFinal reports whether the reservation is in a terminal status.
func (r *Reservation) IsFinal() bool {
	return r.Status == StatusRejected || r.Status == StatusCancelled
}

// StartsAt combines Date and Time into a single point in time.
func (r *Reservation) StartsAt() time.Time {
	t, err := time.Parse("15:04", r.Time)
	if err != nil {
		return r.Date
	}
	return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(),
		t.Hour(), t.Minute(), 0, 0, time.Local)
}

// BeforeDelete releases the held table whenever a reservation row is
// removed through the ORM, no matter which call site issued the delete.
func (r *Reservation) BeforeDelete(tx *gorm.DB) error {
	if r.TableID == nil {
		return nil
	}
	return tx.Model(&Table{}).
		Where("id = ?", *r.TableID).
		Update("is_available", true).Error
}
