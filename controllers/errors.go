package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alexeybedrinsky/restaurant-booking/services"
	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

var ErrNoPermission = errors.New("you don't have permission for this action")

// respondServiceError maps lifecycle errors onto HTTP statuses. Validation
// failures and business-rule violations are user-facing 4xx responses;
// anything unexpected is a 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, errors.New("record not found"))
	case errors.Is(err, services.ErrInvalidGuests),
		errors.Is(err, services.ErrInvalidSlot),
		errors.Is(err, services.ErrLeadTime),
		errors.Is(err, services.ErrNoTableAvailable),
		errors.Is(err, services.ErrMissingTable),
		errors.Is(err, services.ErrTableTooSmall):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrTableUnavailable),
		errors.Is(err, services.ErrAlreadyCancelled),
		errors.Is(err, services.ErrNotPending),
		errors.Is(err, services.ErrFinalStatus):
		utils.RespondError(c, http.StatusConflict, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}
