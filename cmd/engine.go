package cmd

import (
	"fmt"

	"lottery/config"
	"lottery/database"
	"lottery/events"
	"lottery/instruction"
	"lottery/repository"
	"lottery/service"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// engine is the settlement program assembled from configuration
type engine struct {
	eventBus    *events.Bus
	settlements service.SettlementService
	pools       service.PoolService
	processor   *instruction.Processor
}

func newEngine(cfg *config.Config, db *database.DB) (*engine, error) {
	valueSource, err := service.NewValueSource(cfg.ValueSource, cfg.PayoutMint)
	if err != nil {
		return nil, fmt.Errorf("failed to create value source: %w", err)
	}

	executor, err := service.NewSettlementExecutor(service.ExecutorConfig{
		ProgramID:       cfg.ProgramID,
		ShareTable:      cfg.ShareTable,
		EligibilityMint: cfg.EligibilityMint,
		PayoutMint:      cfg.PayoutMint,
		ValueSource:     valueSource,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement executor: %w", err)
	}

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	settlements := service.NewSettlementService(uowFactory, executor, clockwork.NewRealClock())
	pools := service.NewPoolService(uowFactory, valueSource)

	log.WithFields(log.Fields{
		"programID":   cfg.ProgramID.String(),
		"valueSource": cfg.ValueSource,
		"shareTable":  cfg.ShareTable.String(),
		"winnerBps":   cfg.ShareTable.WinnerBasisPoints(),
	}).Info("Settlement engine initialized")

	return &engine{
		eventBus:    eventBus,
		settlements: settlements,
		pools:       pools,
		processor:   instruction.NewProcessor(cfg.ProgramID, len(cfg.ShareTable.Shares), settlements, pools),
	}, nil
}
