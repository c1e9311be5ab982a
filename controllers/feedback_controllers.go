package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexeybedrinsky/restaurant-booking/services"
	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

type FeedbackController struct {
	Mailer services.Mailer
}

func NewFeedbackController(mailer services.Mailer) *FeedbackController {
	return &FeedbackController{Mailer: mailer}
}

// SubmitFeedback -> forwards a visitor message to the restaurant mailbox
func (fc *FeedbackController) SubmitFeedback(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Message string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	utils.InfoLogger.Printf("Feedback received from %s <%s>", req.Name, req.Email)

	if err := fc.Mailer.SendFeedback(req.Name, req.Email, req.Message); err != nil {
		utils.ErrorLogger.Printf("Failed to send feedback email: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Your message has been sent", nil)
}
