package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alexeybedrinsky/restaurant-booking/events"
	"github.com/alexeybedrinsky/restaurant-booking/models"
	"github.com/alexeybedrinsky/restaurant-booking/services"
	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

type TableController struct {
	DB      *gorm.DB
	Service *services.ReservationService
}

func NewTableController(db *gorm.DB, svc *services.ReservationService) *TableController {
	return &TableController{DB: db, Service: svc}
}

// CreateTable -> register a new physical table
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Number   int `json:"number" binding:"required"`
		Capacity int `json:"capacity" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Number < 1 || req.Capacity < 1 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("number and capacity must be positive"))
		return
	}

	table := models.Table{
		Number:      req.Number,
		Capacity:    req.Capacity,
		IsAvailable: true,
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastTableUpdate(events.EventTableCreate, table)
	utils.InfoLogger.Printf("New table created: #%d (capacity=%d)", table.Number, table.Capacity)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> every table with its availability flag
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Order("number").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetAvailableTables -> available tables, optionally filtered by capacity
func (tc *TableController) GetAvailableTables(c *gin.Context) {
	query := tc.DB.Where("is_available = ?", true)
	if guestsStr := c.Query("guests"); guestsStr != "" {
		guests, err := strconv.Atoi(guestsStr)
		if err != nil || guests < 1 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("guests must be a positive number"))
			return
		}
		query = query.Where("capacity >= ?", guests)
	}

	var tables []models.Table
	if err := query.Order("number").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available tables", tables)
}

// UpdateTable -> change capacity or number of an existing table
func (tc *TableController) UpdateTable(c *gin.Context) {
	tableID := c.Param("table_id")
	var body struct {
		Number   *int `json:"number"`
		Capacity *int `json:"capacity"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if body.Number != nil {
		if *body.Number < 1 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("number must be positive"))
			return
		}
		table.Number = *body.Number
	}
	if body.Capacity != nil {
		if *body.Capacity < 1 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("capacity must be positive"))
			return
		}
		table.Capacity = *body.Capacity
	}

	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastTableUpdate(events.EventTableUpdate, table)
	utils.InfoLogger.Printf("Table %d updated (number=%d capacity=%d)", table.ID, table.Number, table.Capacity)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> administrative removal; bookings referencing the table
// keep their rows with the reference cleared by the FK constraint.
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID := c.Param("table_id")
	var table models.Table

	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastTableUpdate(events.EventTableDelete, table)
	utils.InfoLogger.Printf("Table %d deleted", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{
		"id": table.ID,
	})
}

// ResetTables -> unconditional bulk release of every table. Recovery tool:
// confirmed reservations keep their status and may reference tables that
// now show as free.
func (tc *TableController) ResetTables(c *gin.Context) {
	count, err := tc.Service.ResetTables()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastMessage(events.Message{
		Event: events.EventTablesReset,
		Data:  gin.H{"reset": count},
	})
	utils.RespondJSON(c, http.StatusOK, "All tables reset to available", gin.H{
		"reset": count,
	})
}
