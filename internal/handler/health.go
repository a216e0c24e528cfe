package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck отвечает 200, пока процесс жив
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "shortly",
	})
}
