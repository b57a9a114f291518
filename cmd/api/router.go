package api

import (
	"net/http"

	authdelivery "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/auth/delivery"
	authusecase "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/auth/usecase"
	calendardelivery "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/delivery"
	calendarusecase "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/usecase"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authusecase.AuthUsecase, calendarUsecase calendarusecase.CalendarUsecase) {
	calendarHandler := calendardelivery.NewCalendarHandler(calendarUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Google calendar credential + event routes (protected)
		google := api.Group("/external-calendar/google")
		google.Use(authdelivery.AuthMiddleware(authUsecase))
		{
			google.GET("/code/:code/state/:state", calendarHandler.ConnectByPath)
			google.GET("/code", calendarHandler.Connect)
			google.DELETE("/code", calendarHandler.Disconnect)
			google.POST("/token/refresh", calendarHandler.RefreshToken)

			google.GET("/events", calendarHandler.GetEvents)
			google.GET("/events/:ref", calendarHandler.GetEvent)
			google.POST("/events", calendarHandler.AddEvent)
			google.DELETE("/events/:ref", calendarHandler.DeleteEvent)
		}
	}
}
