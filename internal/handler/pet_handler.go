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

type PetHandler struct {
	petService service.PetService
}

// NewPetHandler sets up the routing dependencies for pet and adoption endpoints
func NewPetHandler(petService service.PetService) *PetHandler {
	return &PetHandler{petService: petService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PetHandler) RegisterRoutes(router *gin.RouterGroup) {
	authed := middleware.RequireRole(model.RoleAdmin, model.RolePetOwner, model.RoleTrainer, model.RoleVet)

	pets := router.Group("/api/pets")
	{
		pets.GET("", h.ListPets)
		pets.GET("/mine", authed, h.ListMyPets)
		pets.GET("/:id", h.GetPet)
		pets.POST("", authed, h.CreatePet)
		pets.PUT("/:id", authed, h.UpdatePet)
		pets.DELETE("/:id", authed, h.DeletePet)
		pets.GET("/:id/requests", authed, h.ListAdoptionRequests)
	}

	adoptions := router.Group("/api/adoptions")
	{
		adoptions.POST("", authed, h.RequestAdoption)
		adoptions.GET("/mine", authed, h.ListMyAdoptionRequests)
		adoptions.PUT("/:id/approve", authed, h.ApproveAdoption)
		adoptions.PUT("/:id/reject", authed, h.RejectAdoption)
	}
}

// CreatePet publishes an adoption listing
// @Summary      Create a pet listing
// @Tags         pets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePetRequest  true  "Pet Payload"
// @Success      201      {object}  response.Response{data=model.Pet}
// @Failure      400      {object}  response.Response
// @Router       /api/pets [post]
func (h *PetHandler) CreatePet(c *gin.Context) {
	var req service.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	pet, err := h.petService.CreatePet(c.Request.Context(), caller(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, pet))
}

// ListPets returns adoption listings, optionally filtered by status
// @Summary      List pets
// @Tags         pets
// @Produce      json
// @Param        status  query     string  false  "AVAILABLE, PENDING_ADOPTION or ADOPTED"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]model.Pet}
// @Router       /api/pets [get]
func (h *PetHandler) ListPets(c *gin.Context) {
	p := pagination.Parse(c)
	pets, total, err := h.petService.ListPets(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"pets": pets,
		"meta": pagination.NewMeta(p, total),
	}))
}

// ListMyPets returns the caller's own listings
// @Summary      List my pets
// @Tags         pets
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Pet}
// @Router       /api/pets/mine [get]
func (h *PetHandler) ListMyPets(c *gin.Context) {
	p := pagination.Parse(c)
	pets, total, err := h.petService.ListMyPets(c.Request.Context(), caller(c), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"pets": pets,
		"meta": pagination.NewMeta(p, total),
	}))
}

// GetPet returns a single listing
// @Summary      Get a pet
// @Tags         pets
// @Produce      json
// @Param        id   path      string  true  "Pet ID"
// @Success      200  {object}  response.Response{data=model.Pet}
// @Failure      404  {object}  response.Response
// @Router       /api/pets/{id} [get]
func (h *PetHandler) GetPet(c *gin.Context) {
	pet, err := h.petService.GetPet(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pet))
}

// UpdatePet edits a listing
// @Summary      Update a pet
// @Tags         pets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Pet ID"
// @Param        payload  body      service.UpdatePetRequest  true  "Partial Pet Payload"
// @Success      200      {object}  response.Response{data=model.Pet}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/pets/{id} [put]
func (h *PetHandler) UpdatePet(c *gin.Context) {
	var req service.UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	pet, err := h.petService.UpdatePet(c.Request.Context(), caller(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pet))
}

// DeletePet removes a listing
// @Summary      Delete a pet
// @Tags         pets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pet ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/pets/{id} [delete]
func (h *PetHandler) DeletePet(c *gin.Context) {
	if err := h.petService.DeletePet(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMsg(http.StatusOK, "pet deleted", nil))
}

// RequestAdoption files an adoption request for an available pet
// @Summary      Request an adoption
// @Tags         adoptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AdoptionRequestDTO  true  "Adoption Request Payload"
// @Success      201      {object}  response.Response{data=model.AdoptionRequest}
// @Failure      400      {object}  response.Response
// @Router       /api/adoptions [post]
func (h *PetHandler) RequestAdoption(c *gin.Context) {
	var req service.AdoptionRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	adoption, err := h.petService.RequestAdoption(c.Request.Context(), caller(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, adoption))
}

// ListAdoptionRequests returns the requests for one pet (owner or admin)
// @Summary      List adoption requests for a pet
// @Tags         adoptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pet ID"
// @Success      200  {object}  response.Response{data=[]model.AdoptionRequest}
// @Failure      403  {object}  response.Response
// @Router       /api/pets/{id}/requests [get]
func (h *PetHandler) ListAdoptionRequests(c *gin.Context) {
	requests, err := h.petService.ListAdoptionRequests(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// ListMyAdoptionRequests returns the caller's own adoption requests
// @Summary      List my adoption requests
// @Tags         adoptions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.AdoptionRequest}
// @Router       /api/adoptions/mine [get]
func (h *PetHandler) ListMyAdoptionRequests(c *gin.Context) {
	p := pagination.Parse(c)
	requests, total, err := h.petService.ListMyAdoptionRequests(c.Request.Context(), caller(c), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"requests": requests,
		"meta":     pagination.NewMeta(p, total),
	}))
}

// ApproveAdoption approves a pending request and adopts out the pet
// @Summary      Approve an adoption request
// @Tags         adoptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Adoption Request ID"
// @Success      200  {object}  response.Response{data=model.AdoptionRequest}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/adoptions/{id}/approve [put]
func (h *PetHandler) ApproveAdoption(c *gin.Context) {
	h.decide(c, true)
}

// RejectAdoption rejects a pending request
// @Summary      Reject an adoption request
// @Tags         adoptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Adoption Request ID"
// @Success      200  {object}  response.Response{data=model.AdoptionRequest}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/adoptions/{id}/reject [put]
func (h *PetHandler) RejectAdoption(c *gin.Context) {
	h.decide(c, false)
}

func (h *PetHandler) decide(c *gin.Context, approve bool) {
	adoption, err := h.petService.DecideAdoption(c.Request.Context(), caller(c), c.Param("id"), approve)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, adoption))
}
