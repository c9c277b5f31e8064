package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akuity/devportal/pkg/x/version"
)

func (s *server) getVersionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetVersion())
}
