package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	calendardomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/domain"
	calendardto "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/dto"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/usecase"

	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	calendarUsecase usecase.CalendarUsecase
}

func NewCalendarHandler(calendarUsecase usecase.CalendarUsecase) *CalendarHandler {
	return &CalendarHandler{
		calendarUsecase: calendarUsecase,
	}
}

// Connect exchanges the authorization code carried in the query string and
// stores the resulting credential for the authenticated user.
func (h *CalendarHandler) Connect(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	h.connect(c, code, state)
}

// ConnectByPath is the path-parameter form of Connect.
func (h *CalendarHandler) ConnectByPath(c *gin.Context) {
	h.connect(c, c.Param("code"), c.Param("state"))
}

func (h *CalendarHandler) connect(c *gin.Context, code, state string) {
	cred, err := h.calendarUsecase.ConnectCalendar(c.Request.Context(), c.GetString("username"), code, state)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cred)
}

// Disconnect removes the stored credential of the authenticated user.
func (h *CalendarHandler) Disconnect(c *gin.Context) {
	if err := h.calendarUsecase.DisconnectCalendar(c.Request.Context(), c.GetString("username")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "calendar disconnected"})
}

// RefreshToken forces a refresh of the stored credential.
func (h *CalendarHandler) RefreshToken(c *gin.Context) {
	cred, err := h.calendarUsecase.RefreshCalendar(c.Request.Context(), c.GetString("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cred)
}

// GetEvents lists appointments either between two instants (?from=&to=) or as
// the next N starting from an instant (?count=&from=).
func (h *CalendarHandler) GetEvents(c *gin.Context) {
	username := c.GetString("username")
	cred, err := h.calendarUsecase.CredentialsFor(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	from, err := parseLocalTime(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' date-time"})
		return
	}

	var appointments []*calendardomain.Appointment
	if countStr := c.Query("count"); countStr != "" {
		count, err := strconv.ParseInt(countStr, 10, 64)
		if err != nil || count <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'count'"})
			return
		}
		appointments, err = h.calendarUsecase.GetUpcomingEvents(c.Request.Context(), count, from, cred)
		if err != nil {
			respondError(c, err)
			return
		}
	} else {
		to, err := parseLocalTime(c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' date-time"})
			return
		}
		appointments, err = h.calendarUsecase.GetEvents(c.Request.Context(), from, to, cred)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, calendardto.EventsResponse{Events: appointments, Count: len(appointments)})
}

func (h *CalendarHandler) GetEvent(c *gin.Context) {
	cred, err := h.calendarUsecase.CredentialsFor(c.Request.Context(), c.GetString("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	appointment, err := h.calendarUsecase.GetEvent(c.Request.Context(), c.Param("ref"), cred)
	if err != nil {
		respondError(c, err)
		return
	}
	if appointment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (h *CalendarHandler) AddEvent(c *gin.Context) {
	var appointment calendardomain.Appointment
	if err := c.ShouldBindJSON(&appointment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred, err := h.calendarUsecase.CredentialsFor(c.Request.Context(), c.GetString("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	reference, err := h.calendarUsecase.AddEvent(c.Request.Context(), &appointment, cred)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, calendardto.AddEventResponse{ExternalReference: reference})
}

func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	cred, err := h.calendarUsecase.CredentialsFor(c.Request.Context(), c.GetString("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	appointment := &calendardomain.Appointment{ExternalReference: c.Param("ref")}
	if err := h.calendarUsecase.DeleteEvent(c.Request.Context(), appointment, cred); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calendardomain.ErrUserNotFound), errors.Is(err, calendardomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, calendardomain.ErrRevokedGrant):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "calendar authorization revoked, please reconnect"})
	case errors.Is(err, calendardomain.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// parseLocalTime accepts the platform's ISO local date-time, with RFC3339 as a
// fallback. An empty value means "now".
func parseLocalTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
