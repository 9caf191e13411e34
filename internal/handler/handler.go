package handler

import (
	"pawhome/internal/middleware"
	"pawhome/internal/service"
	"pawhome/pkg/apperr"
	"pawhome/pkg/response"

	"github.com/gin-gonic/gin"
)

// caller resolves the request's authenticated identity set by the auth
// middleware. Anonymous requests yield a zero Caller.
func caller(c *gin.Context) service.Caller {
	return service.Caller{
		ID:   middleware.CallerID(c),
		Role: middleware.CallerRole(c),
	}
}

// fail translates a service error into the HTTP response envelope using the
// shared error taxonomy.
func fail(c *gin.Context, err error) {
	code := apperr.StatusCode(err)
	c.JSON(code, response.Error(code, err.Error()))
}
