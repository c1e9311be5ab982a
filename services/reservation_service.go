package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/alexeybedrinsky/restaurant-booking/models"
	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

// MinLeadTime is how far in advance a reservation must be made. A slot
// exactly MinLeadTime from now is still accepted.
const MinLeadTime = 3 * time.Hour

var (
	ErrInvalidGuests    = errors.New("number of guests must be a positive number")
	ErrInvalidSlot      = errors.New("invalid date or time format")
	ErrLeadTime         = errors.New("reservations must be made at least 3 hours in advance")
	ErrNoTableAvailable = errors.New("no tables available for this time")
	ErrMissingTable     = errors.New("please select a table")
	ErrTableTooSmall    = errors.New("selected table cannot seat this many guests")
	ErrTableUnavailable = errors.New("selected table is no longer available")
	ErrAlreadyCancelled = errors.New("reservation is already cancelled")
	ErrNotPending       = errors.New("only pending reservations can be rejected")
	ErrFinalStatus      = errors.New("reservation can no longer be updated")
)

type ReservationService struct {
	DB     *gorm.DB
	Mailer Mailer

	now func() time.Time
}

func NewReservationService(db *gorm.DB, mailer Mailer) *ReservationService {
	return &ReservationService{DB: db, Mailer: mailer, now: time.Now}
}

type CreateReservationInput struct {
	Date   string `json:"date" binding:"required"`
	Time   string `json:"time" binding:"required"`
	Guests int    `json:"guests" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
}

// ParseSlot parses an ISO date and an HH:MM time of day.
func ParseSlot(date, timeOfDay string) (time.Time, string, error) {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, "", ErrInvalidSlot
	}
	t, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return time.Time{}, "", ErrInvalidSlot
	}
	return d, t.Format("15:04"), nil
}

func (s *ReservationService) checkLeadTime(date time.Time, slot string) error {
	t, _ := time.Parse("15:04", slot)
	startsAt := time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, time.Local)
	if startsAt.Before(s.now().Add(MinLeadTime)) {
		return ErrLeadTime
	}
	return nil
}

// claimTable picks the first available table that can seat the party and
// flips its availability with a conditional update, so two requests racing
// for the same table cannot both win it. Requests that lose a claim move on
// to the next candidate.
func claimTable(tx *gorm.DB, tableID uint) bool {
	claim := tx.Model(&models.Table{}).
		Where("id = ? AND is_available = ?", tableID, true).
		Update("is_available", false)
	return claim.Error == nil && claim.RowsAffected == 1
}

func findAndClaimTable(tx *gorm.DB, guests int) (*models.Table, error) {
	var tried []uint
	for {
		var table models.Table
		query := tx.Where("capacity >= ? AND is_available = ?", guests, true)
		if len(tried) > 0 {
			query = query.Where("id NOT IN ?", tried)
		}
		if err := query.First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoTableAvailable
			}
			return nil, err
		}
		if claimTable(tx, table.ID) {
			table.IsAvailable = false
			return &table, nil
		}
		tried = append(tried, table.ID)
	}
}

func releaseTable(tx *gorm.DB, tableID uint) error {
	// Idempotent: releasing an already-available table is a no-op.
	return tx.Model(&models.Table{}).
		Where("id = ?", tableID).
		Update("is_available", true).Error
}

// Create validates the request and books a pending reservation together
// with a claimed table. When no table can seat the party nothing is
// persisted and ErrNoTableAvailable is returned.
func (s *ReservationService) Create(in CreateReservationInput) (*models.Reservation, error) {
	if in.Guests < 1 {
		return nil, ErrInvalidGuests
	}
	date, slot, err := ParseSlot(in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	if err := s.checkLeadTime(date, slot); err != nil {
		return nil, err
	}

	var reservation models.Reservation
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		table, err := findAndClaimTable(tx, in.Guests)
		if err != nil {
			return err
		}
		reservation = models.Reservation{
			Date:    date,
			Time:    slot,
			Guests:  in.Guests,
			Phone:   in.Phone,
			Email:   in.Email,
			Status:  models.StatusPending,
			TableID: &table.ID,
			Table:   table,
		}
		return tx.Create(&reservation).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Reservation %d created: %s %s for %d guests (table %d)",
		reservation.ID, in.Date, slot, in.Guests, *reservation.TableID)
	return &reservation, nil
}

// Confirm assigns the explicitly chosen table and marks the reservation
// confirmed. The chosen table must seat the party and still be available;
// a previously held different table is released.
func (s *ReservationService) Confirm(id, tableID uint) (*models.Reservation, error) {
	if tableID == 0 {
		return nil, ErrMissingTable
	}

	var reservation models.Reservation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, id).Error; err != nil {
			return err
		}
		if reservation.IsFinal() {
			return ErrFinalStatus
		}

		var table models.Table
		if err := tx.First(&table, tableID).Error; err != nil {
			return err
		}
		if table.Capacity < reservation.Guests {
			return ErrTableTooSmall
		}

		alreadyHeld := reservation.TableID != nil && *reservation.TableID == table.ID
		if !alreadyHeld {
			if !claimTable(tx, table.ID) {
				return ErrTableUnavailable
			}
			if reservation.TableID != nil {
				if err := releaseTable(tx, *reservation.TableID); err != nil {
					return err
				}
			}
		}

		reservation.TableID = &table.ID
		reservation.Status = models.StatusConfirmed
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Reservation %d confirmed with table %d", reservation.ID, tableID)
	s.notify(&reservation, models.StatusConfirmed)
	return &reservation, nil
}

// Reject declines a pending reservation and releases its table.
func (s *ReservationService) Reject(id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, id).Error; err != nil {
			return err
		}
		if reservation.Status != models.StatusPending {
			return ErrNotPending
		}
		if reservation.TableID != nil {
			if err := releaseTable(tx, *reservation.TableID); err != nil {
				return err
			}
		}
		reservation.Status = models.StatusRejected
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Reservation %d rejected", reservation.ID)
	s.notify(&reservation, models.StatusRejected)
	return &reservation, nil
}

// Cancel marks the reservation cancelled and releases its table. Repeated
// cancellation is treated as a caller error so no duplicate email goes out.
func (s *ReservationService) Cancel(id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, id).Error; err != nil {
			return err
		}
		if reservation.Status == models.StatusCancelled {
			return ErrAlreadyCancelled
		}
		if reservation.Status == models.StatusRejected {
			return ErrFinalStatus
		}
		if reservation.TableID != nil {
			if err := releaseTable(tx, *reservation.TableID); err != nil {
				return err
			}
		}
		reservation.Status = models.StatusCancelled
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Reservation %d cancelled", reservation.ID)
	s.notify(&reservation, models.StatusCancelled)
	return &reservation, nil
}

// Delete removes the reservation row. The table is released by the model's
// BeforeDelete hook, so any deletion path through the ORM frees it; loading
// the row first makes sure the hook sees the held table.
func (s *ReservationService) Delete(id uint) error {
	var reservation models.Reservation
	if err := s.DB.First(&reservation, id).Error; err != nil {
		return err
	}
	if err := s.DB.Delete(&reservation).Error; err != nil {
		return err
	}
	utils.InfoLogger.Printf("Reservation %d deleted", id)
	return nil
}

type AvailabilityResult struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// CheckAvailability reports whether any table could seat the party at the
// requested slot. A lead-time violation comes back as a structured
// false-with-reason, not an error.
func (s *ReservationService) CheckAvailability(dateStr, timeStr string, guests int) (AvailabilityResult, error) {
	if guests < 1 {
		return AvailabilityResult{}, ErrInvalidGuests
	}
	date, slot, err := ParseSlot(dateStr, timeStr)
	if err != nil {
		return AvailabilityResult{}, err
	}
	if err := s.checkLeadTime(date, slot); err != nil {
		return AvailabilityResult{Available: false, Error: err.Error()}, nil
	}

	var count int64
	if err := s.DB.Model(&models.Table{}).
		Where("capacity >= ? AND is_available = ?", guests, true).
		Count(&count).Error; err != nil {
		return AvailabilityResult{}, err
	}
	return AvailabilityResult{Available: count > 0}, nil
}

// ResetTables marks every table available, no matter what reservations
// reference them. This is a manual recovery tool: a confirmed reservation
// may afterwards point at a table shown as free.
func (s *ReservationService) ResetTables() (int64, error) {
	result := s.DB.Model(&models.Table{}).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Update("is_available", true)
	if result.Error != nil {
		return 0, result.Error
	}
	utils.InfoLogger.Printf("Reset %d tables to available", result.RowsAffected)
	return result.RowsAffected, nil
}

func (s *ReservationService) notify(r *models.Reservation, status string) {
	if s.Mailer == nil {
		return
	}
	// Best effort: a failed email never fails the booking operation.
	if err := s.Mailer.SendReservationStatus(r, status); err != nil {
		utils.ErrorLogger.Printf("Failed to send %s email for reservation %d: %v", status, r.ID, err)
	}
}
