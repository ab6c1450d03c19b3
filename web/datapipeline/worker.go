package datapipeline

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TODO: tune bufferSize and workersNumber
var workersNumber int = 10
var bufferSize int = workersNumber * 1000

func initProjectorsRegistry(db *gorm.DB) []*Projector {
	return []*Projector{
		NewAssetsProjector(db),
		NewTelemetryProjector(db),
	}
}

func StartProjectorsWorkerPool(db *gorm.DB) chan *CollectEvent {
	ch := make(chan *CollectEvent, bufferSize)
	projectorRegistry := initProjectorsRegistry(db)

	for i := 0; i < workersNumber; i++ {
		go Worker(ch, projectorRegistry)
	}

	return ch
}

func Worker(ch chan *CollectEvent, projectors []*Projector) {
	for event := range ch {
		for _, projector := range projectors {
			if err := projector.Project(event); err != nil {
				log.Errorf("Projector %s could not project event %d: %s", projector.ID, event.ID, err)
			}
		}
	}
}
