package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alexeybedrinsky/restaurant-booking/models"
	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

type AdminController struct {
	DB *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{DB: db}
}

// GetDashboard -> upcoming reservations plus the current table pool.
// ?recent=1 narrows the reservation list to ones created in the last hour.
func (ac *AdminController) GetDashboard(c *gin.Context) {
	y, m, d := time.Now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)

	query := ac.DB.Preload("Table").
		Where("date >= ?", today).
		Order("date, time")
	if c.Query("recent") != "" {
		query = ac.DB.Preload("Table").
			Where("created_at >= ?", time.Now().Add(-time.Hour)).
			Order("created_at DESC")
	}

	var reservations []models.Reservation
	if err := query.Find(&reservations).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var availableTables []models.Table
	if err := ac.DB.Where("is_available = ?", true).
		Order("number").
		Find(&availableTables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Dashboard data", gin.H{
		"upcoming_reservations": reservations,
		"available_tables":      availableTables,
		"stats":                 ac.getDashboardStats(),
	})
}

// getDashboardStats counts tables and reservations per state.
func (ac *AdminController) getDashboardStats() map[string]interface{} {
	var availableCount, occupiedCount int64
	ac.DB.Model(&models.Table{}).Where("is_available = ?", true).Count(&availableCount)
	ac.DB.Model(&models.Table{}).Where("is_available = ?", false).Count(&occupiedCount)

	statuses := []string{
		models.StatusPending,
		models.StatusConfirmed,
		models.StatusRejected,
		models.StatusCancelled,
	}
	reservationCounts := make(map[string]int64, len(statuses))
	for _, status := range statuses {
		var n int64
		ac.DB.Model(&models.Reservation{}).Where("status = ?", status).Count(&n)
		reservationCounts[status] = n
	}

	return map[string]interface{}{
		"tables_available": availableCount,
		"tables_occupied":  occupiedCount,
		"tables_total":     availableCount + occupiedCount,
		"reservations":     reservationCounts,
	}
}
