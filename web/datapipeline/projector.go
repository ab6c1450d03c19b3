package datapipeline

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectorHandler func(collectEvent *CollectEvent, db *gorm.DB) error

// Projector applies collect events to a read model. Handler and checkpoint
// updates run in one transaction so a replay after a crash is safe.
type Projector struct {
	ID       string
	db       *gorm.DB
	handlers map[string]ProjectorHandler
}

func NewProjector(ID string, db *gorm.DB) *Projector {
	return &Projector{
		ID:       ID,
		db:       db,
		handlers: make(map[string]ProjectorHandler),
	}
}

func (p *Projector) AddHandler(collectType string, handler ProjectorHandler) {
	p.handlers[collectType] = handler
}

func (p *Projector) Project(collectEvent *CollectEvent) error {
	handler, ok := p.handlers[collectEvent.CollectType]

	if !ok {
		log.Debugf("Projector: %s is not interested in %s", p.ID, collectEvent.CollectType)
		return nil
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			UpdateAll: true,
		}).Create(&Checkpoint{
			ProjectorID:     p.ID,
			AgentID:         collectEvent.AgentID,
			LastSeenEventID: collectEvent.ID,
			SeenAt:          time.Now(),
		}).Error
		if err != nil {
			return err
		}

		return handler(collectEvent, tx)
	})
}
