package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// VigiloNamespace is the UUIDv5 namespace used to derive stable asset identifiers
// from the host machine-id
var VigiloNamespace = uuid.MustParse("d3b1c0de-5a7e-4b6f-9a1c-6f2e8c4d9b21")

// Repeat runs tick immediately and then on every interval until the context is done
func Repeat(operation string, tick func(), interval time.Duration, ctx context.Context) {
	tick()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Debugf("Repeating %s...", operation)
			tick()
		case <-ctx.Done():
			log.Debugf("Stopping %s...", operation)
			return
		}
	}
}
