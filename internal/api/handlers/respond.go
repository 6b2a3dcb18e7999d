package handlers

import (
	"net/http"

	"panel-backend/pkg/httpclient"

	"github.com/gin-gonic/gin"
)

var kindStatus = map[httpclient.Kind]int{
	httpclient.KindInvalidRequest: http.StatusBadRequest,
	httpclient.KindAuthFailed:     http.StatusUnauthorized,
	httpclient.KindForbidden:      http.StatusForbidden,
	httpclient.KindNotFound:       http.StatusNotFound,
	httpclient.KindConflict:       http.StatusConflict,
	httpclient.KindRateLimited:    http.StatusTooManyRequests,
	httpclient.KindValidation:     http.StatusUnprocessableEntity,
	httpclient.KindTimeout:        http.StatusGatewayTimeout,
}

// respondError maps the error taxonomy onto HTTP statuses. Unclassified
// errors are internal.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if s, ok := kindStatus[httpclient.KindOf(err)]; ok {
		status = s
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
