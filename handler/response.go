package handler

import (
	"net/http"

	"github.com/aumugisha-umu/seido-backend/pkg/apperr"
	"github.com/gin-gonic/gin"
)

// respond writes the uniform success envelope.
func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// respondError maps an application error to its HTTP status and the uniform
// error envelope. Unknown errors become 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.JSON(kind.HTTPStatus(), gin.H{
		"success": false,
		"error":   apperr.MessageOf(err),
	})
}

// respondBadRequest reports a malformed request body.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
