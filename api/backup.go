package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luckygas/luckygas/internal/backups"
)

func (a Api) BackupDB(c *gin.Context) {
	if err := backups.BackupDB(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "backup completed"})
}

func (a Api) BackupDBS3(c *gin.Context) {
	if err := backups.ZipUploadToS3(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "backup uploaded to S3"})
}
