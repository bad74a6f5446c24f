package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSON200(c *gin.Context, body gin.H) {
	c.JSON(http.StatusOK, body)
}

func JSON202(c *gin.Context, body gin.H) {
	c.JSON(http.StatusAccepted, body)
}

func JSON400(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func JSON404(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

func JSON500(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

// MaskRollNo keeps log lines useful without exposing the full identity.
func MaskRollNo(rollno string) string {
	if len(rollno) <= 3 {
		return "***"
	}
	return rollno[:3] + "****"
}
