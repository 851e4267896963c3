package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getHome reports the API identity for probes hitting the root group.
func getHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Conjunto Ledger API v1"})
}
