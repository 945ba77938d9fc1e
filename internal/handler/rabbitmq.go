package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/rabbitmq"
	"github.com/MichalMitros/vendor-feed-reconciler/pkg/v1/commander"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

//go:generate mockery --name Runner --filename runner.go
//go:generate mockery --name Broker --filename broker.go

// Runner runs vendor reconciliations.
type Runner interface {
	Run(ctx context.Context, vendorID string) (*models.Run, error)
	RunAll(ctx context.Context) ([]*models.Run, error)
}

// Broker consumes commands and publishes run summaries.
type Broker interface {
	Consume(ctx context.Context, queue string, handler rabbitmq.HandlerFunc) (<-chan error, error)
	Publish(ctx context.Context, routingKey string, message []byte) error
}

// RMQHandler handles RMQ messages.
type RMQHandler struct {
	broker            Broker
	runner            Runner
	summaryRoutingKey string
	logger            *zerolog.Logger
}

// NewHandler returns new RMQHandler. Run summaries are published to summaryRoutingKey unless it is empty.
func NewHandler(broker Broker, runner Runner, summaryRoutingKey string, logger *zerolog.Logger) *RMQHandler {
	return &RMQHandler{
		broker:            broker,
		runner:            runner,
		summaryRoutingKey: summaryRoutingKey,
		logger:            logger,
	}
}

// Start starts consuming and handling reconcile commands from RMQ.
func (h *RMQHandler) Start(ctx context.Context, queue string) error {
	errorsChan, err := h.broker.Consume(ctx, queue, h.Handle)
	if err != nil {
		return err
	}

	go func() {
		for err := range errorsChan {
			h.logger.Error().
				Err(err).
				Msg("can't handle message")
		}
	}()

	return nil
}

// Handle runs reconciliation requested by message and publishes summaries of finished runs.
func (h *RMQHandler) Handle(ctx context.Context, message []byte) error {
	cmd, err := decodeMessage(message)
	if err != nil {
		return err
	}

	if cmd.All {
		h.logger.Debug().Msg("reconciliation of all vendors started")

		runs, err := h.runner.RunAll(ctx)
		return errors.Join(h.publish(ctx, runs...), err)
	}

	h.logger.Debug().
		Str("vendorId", cmd.VendorID).
		Msg("reconciliation started")

	run, err := h.runner.Run(ctx, cmd.VendorID)
	if err != nil {
		err = fmt.Errorf("reconciliation of %s failed: %w", cmd.VendorID, err)
	}

	if run != nil {
		err = errors.Join(h.publish(ctx, run), err)
	}

	h.logger.Debug().
		Str("vendorId", cmd.VendorID).
		Msg("reconciliation finished")

	return err
}

func (h *RMQHandler) publish(ctx context.Context, runs ...*models.Run) error {
	if h.summaryRoutingKey == "" {
		return nil
	}

	var errs []error
	for _, run := range lo.Compact(runs) {
		msg, err := json.Marshal(toSummary(run))
		if err != nil {
			errs = append(errs, fmt.Errorf("can't marshal run summary: %w", err))
			continue
		}

		if err := h.broker.Publish(ctx, h.summaryRoutingKey, msg); err != nil {
			errs = append(errs, fmt.Errorf("can't publish summary of run %d: %w", run.ID, err))
		}
	}

	return errors.Join(errs...)
}

func decodeMessage(msg []byte) (*commander.ReconcileCommand, error) {
	var cmd commander.ReconcileCommand
	err := json.Unmarshal(msg, &cmd)
	if err != nil {
		return nil, fmt.Errorf("can't decode reconcile command: %w", err)
	}

	if !cmd.All && cmd.VendorID == "" {
		return nil, fmt.Errorf("can't decode reconcile command: %w", commander.ErrMissingVendor)
	}

	return &cmd, nil
}

func toSummary(run *models.Run) commander.RunSummary {
	return commander.RunSummary{
		RunID:         run.ID,
		VendorID:      run.VendorID,
		Success:       lo.FromPtr(run.IsSuccess),
		StatusMessage: lo.FromPtr(run.StatusMessage),
		Created:       lo.FromPtr(run.Created),
		Updated:       lo.FromPtr(run.Updated),
		Unmatched:     lo.FromPtr(run.Unmatched),
		Skipped:       lo.FromPtr(run.Skipped),
		Failed:        lo.FromPtr(run.Failed),
		StartedAt:     run.CreatedAt,
		FinishedAt:    run.FinishedAt,
	}
}
