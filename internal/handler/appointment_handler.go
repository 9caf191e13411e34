package handler

import (
	"net/http"

	"pawhome/internal/middleware"
	"pawhome/internal/model"
	"pawhome/internal/service"
	"pawhome/pkg/pagination"
	"pawhome/pkg/response"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	appointmentService service.AppointmentService
}

// NewAppointmentHandler sets up the routing dependencies for appointment endpoints
func NewAppointmentHandler(appointmentService service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: appointmentService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AppointmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	authed := middleware.RequireRole(model.RoleAdmin, model.RolePetOwner, model.RoleTrainer, model.RoleVet)
	provider := middleware.RequireRole(model.RoleAdmin, model.RoleTrainer, model.RoleVet)

	appointments := router.Group("/api/appointments")
	{
		appointments.POST("", authed, h.Book)
		appointments.GET("/mine", authed, h.ListMine)
		appointments.GET("/schedule", provider, h.ListForProvider)
		appointments.GET("/:id", authed, h.Get)
		appointments.PUT("/:id/confirm", provider, h.Confirm)
		appointments.PUT("/:id/cancel", authed, h.Cancel)
		appointments.PUT("/:id/complete", provider, h.Complete)
	}
}

// Book requests a slot with a vet or trainer
// @Summary      Book an appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BookAppointmentRequest  true  "Booking Payload"
// @Success      201      {object}  response.Response{data=model.Appointment}
// @Failure      400      {object}  response.Response
// @Router       /api/appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req service.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	appt, err := h.appointmentService.Book(c.Request.Context(), caller(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, appt))
}

// Get returns one appointment for a participant
// @Summary      Get an appointment
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Appointment ID"
// @Success      200  {object}  response.Response{data=model.Appointment}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	appt, err := h.appointmentService.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, appt))
}

// ListMine returns the caller's appointments as a client
// @Summary      List my appointments
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Appointment}
// @Router       /api/appointments/mine [get]
func (h *AppointmentHandler) ListMine(c *gin.Context) {
	p := pagination.Parse(c)
	appts, total, err := h.appointmentService.ListMine(c.Request.Context(), caller(c), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"appointments": appts,
		"meta":         pagination.NewMeta(p, total),
	}))
}

// ListForProvider returns the provider's schedule
// @Summary      List my schedule
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Appointment}
// @Router       /api/appointments/schedule [get]
func (h *AppointmentHandler) ListForProvider(c *gin.Context) {
	p := pagination.Parse(c)
	appts, total, err := h.appointmentService.ListForProvider(c.Request.Context(), caller(c), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"appointments": appts,
		"meta":         pagination.NewMeta(p, total),
	}))
}

// Confirm accepts a pending appointment and quotes the fee
// @Summary      Confirm an appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                             true   "Appointment ID"
// @Param        payload  body      service.ConfirmAppointmentRequest  false  "Confirmation Payload"
// @Success      200      {object}  response.Response{data=model.Appointment}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/appointments/{id}/confirm [put]
func (h *AppointmentHandler) Confirm(c *gin.Context) {
	var req service.ConfirmAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}
	}

	appt, err := h.appointmentService.Confirm(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, appt))
}

// Cancel cancels an appointment for either participant
// @Summary      Cancel an appointment
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Appointment ID"
// @Success      200  {object}  response.Response{data=model.Appointment}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/appointments/{id}/cancel [put]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appt, err := h.appointmentService.Cancel(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, appt))
}

// Complete marks a confirmed appointment as done
// @Summary      Complete an appointment
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Appointment ID"
// @Success      200  {object}  response.Response{data=model.Appointment}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/appointments/{id}/complete [put]
func (h *AppointmentHandler) Complete(c *gin.Context) {
	appt, err := h.appointmentService.Complete(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, appt))
}
