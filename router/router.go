package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alexeybedrinsky/restaurant-booking/controllers"
	"github.com/alexeybedrinsky/restaurant-booking/middlewares"
	"github.com/alexeybedrinsky/restaurant-booking/services"
)

func SetupRouter(db *gorm.DB, mailer services.Mailer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// must be attached before any route is registered, gin freezes the
	// handler chain per route at registration time
	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	reservationSvc := services.NewReservationService(db, mailer)

	userCtrl := controllers.NewUserController(db)
	reservationCtrl := controllers.NewReservationController(db, reservationSvc)
	tableCtrl := controllers.NewTableController(db, reservationSvc)
	adminCtrl := controllers.NewAdminController(db)
	feedbackCtrl := controllers.NewFeedbackController(mailer)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Guests submit bookings and probe availability without an account.
	r.POST("/reservations", reservationCtrl.CreateReservation)
	r.GET("/reservations/check-availability", reservationCtrl.CheckAvailability)
	r.POST("/feedback", feedbackCtrl.SubmitFeedback)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())

	api.GET("/profile", userCtrl.GetProfile)
	api.GET("/reservations", reservationCtrl.GetAllReservations)
	api.GET("/reservations/:reservation_id", reservationCtrl.GetReservationByID)
	api.GET("/my-reservations", reservationCtrl.GetMyReservations)
	api.POST("/reservations/:reservation_id/cancel", reservationCtrl.CancelReservation)

	// Staff decisions and table management.
	staff := api.Group("/")
	staff.Use(middlewares.StaffOnly())
	{
		staff.POST("/reservations/:reservation_id/confirm", reservationCtrl.ConfirmReservation)
		staff.POST("/reservations/:reservation_id/reject", reservationCtrl.RejectReservation)
		staff.DELETE("/reservations/:reservation_id", reservationCtrl.DeleteReservation)

		staff.GET("/admin/dashboard", adminCtrl.GetDashboard)

		staff.GET("/admin/tables", tableCtrl.GetAllTables)
		staff.GET("/admin/tables/available", tableCtrl.GetAvailableTables)
		staff.POST("/admin/tables", tableCtrl.CreateTable)
		staff.PATCH("/admin/tables/:table_id", tableCtrl.UpdateTable)
		staff.DELETE("/admin/tables/:table_id", middlewares.AdminOnly(), tableCtrl.DeleteTable)
		staff.POST("/admin/tables/reset", tableCtrl.ResetTables)
	}

	// Live dashboard feed.
	ws := r.Group("/ws")
	ws.Use(middlewares.AuthMiddleware())
	{
		ws.GET("/dashboard", controllers.DashboardWSHandler)
	}

	return r
}
