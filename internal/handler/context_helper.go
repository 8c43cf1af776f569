package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bbsmart-api/internal/middleware"
	"github.com/noah-isme/bbsmart-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// queryBool reads a boolean query flag; anything unparsable is false.
func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
