// Package test quiets the framework noise in test binaries, import it
// blank from any suite that boots gin or logs.
package test

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.TestMode)
	log.SetLevel(log.ErrorLevel)
}
