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

type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler sets up the routing dependencies for payment endpoints
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	authed := middleware.RequireRole(model.RoleAdmin, model.RolePetOwner, model.RoleTrainer, model.RoleVet)

	payments := router.Group("/api/payments")
	{
		payments.POST("", authed, h.Initiate)
		payments.GET("/mine", authed, h.ListMine)
		payments.GET("/verify/:ref", authed, h.Verify)
		payments.GET("/:id", authed, h.Get)
	}
}

// Initiate starts a gateway checkout for an adoption or appointment fee
// @Summary      Initiate a payment
// @Description  Creates a gateway session for an approved adoption or confirmed appointment; the amount comes from the referenced record.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.InitiatePaymentRequest  true  "Payment Reference"
// @Success      201      {object}  response.Response{data=service.InitiatedPayment}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/payments [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req service.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	initiated, err := h.paymentService.Initiate(c.Request.Context(), caller(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, initiated))
}

// Verify settles a pending payment against the gateway outcome
// @Summary      Verify a payment
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Gateway Reference"
// @Success      200  {object}  response.Response{data=model.Payment}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/payments/verify/{ref} [get]
func (h *PaymentHandler) Verify(c *gin.Context) {
	payment, err := h.paymentService.Verify(c.Request.Context(), caller(c), c.Param("ref"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// Get returns one payment record
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=model.Payment}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.paymentService.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// ListMine returns the caller's payment history
// @Summary      List my payments
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Payment}
// @Router       /api/payments/mine [get]
func (h *PaymentHandler) ListMine(c *gin.Context) {
	p := pagination.Parse(c)
	payments, total, err := h.paymentService.ListMine(c.Request.Context(), caller(c), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"payments": payments,
		"meta":     pagination.NewMeta(p, total),
	}))
}
