package api

import (
	authusecase "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/auth/usecase"
	calendarusecase "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/usecase"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase     authusecase.AuthUsecase
	calendarUsecase calendarusecase.CalendarUsecase
	config          *config.Config
}

func NewHandler(authUc authusecase.AuthUsecase, calendarUc calendarusecase.CalendarUsecase, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase:     authUc,
		calendarUsecase: calendarUc,
		config:          cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.authUsecase, h.calendarUsecase)

	return r.Run(addr)
}
