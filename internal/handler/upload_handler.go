package handler

import (
	"net/http"

	"pawhome/internal/middleware"
	"pawhome/internal/storage"
	"pawhome/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxUploadSize caps photo uploads at 10 MiB.
const maxUploadSize = 10 << 20

type UploadHandler struct {
	store storage.ObjectStore
}

// NewUploadHandler sets up the routing dependencies for the upload endpoint
func NewUploadHandler(store storage.ObjectStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UploadHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Anonymous reporters also upload photos, so only an optional token.
	router.POST("/upload", middleware.OptionalAuth(), h.Upload)
}

// Upload stores a photo and returns its durable URL
// @Summary      Upload a photo
// @Description  Accepts a multipart image and stores it in the photo bucket.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file    true  "Image file"
// @Success      201   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Failure      500   {object}  response.Response
// @Router       /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file field"))
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "File exceeds the 10MB limit"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unsupported file type: "+contentType))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Cannot read uploaded file"))
		return
	}
	defer file.Close()

	url, err := h.store.Upload(c.Request.Context(), fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Upload failed"))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"url": url}))
}
