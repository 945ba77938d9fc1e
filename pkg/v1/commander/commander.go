// Package commander is client of the reconciler's command queue.
package commander

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

//go:generate mockery --name Sender --filename sender.go

// ErrMissingVendor is returned when command has no vendor ID.
var ErrMissingVendor = errors.New("missing vendor ID")

// Sender sends messages.
type Sender interface {
	Send(context.Context, []byte) error
}

// ReconcileCommander sends reconcile commands.
type ReconcileCommander struct {
	sender Sender
}

// NewReconcileCommander returns new ReconcileCommander using provided sender for sending messages.
func NewReconcileCommander(sender Sender) ReconcileCommander {
	return ReconcileCommander{
		sender: sender,
	}
}

// SendReconcileCommand sends reconcile command of vendor.
func (c ReconcileCommander) SendReconcileCommand(ctx context.Context, vendorID string) error {
	if vendorID == "" {
		return ErrMissingVendor
	}

	return c.send(ctx, ReconcileCommand{VendorID: vendorID})
}

// SendReconcileAllCommand sends command reconciling all registered vendors.
func (c ReconcileCommander) SendReconcileAllCommand(ctx context.Context) error {
	return c.send(ctx, ReconcileCommand{All: true})
}

func (c ReconcileCommander) send(ctx context.Context, cmd ReconcileCommand) error {
	cmdMsg, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("can't marshal reconcile command: %w", err)
	}

	return c.sender.Send(ctx, cmdMsg)
}

// DecodeRunSummary decodes run summary message.
func DecodeRunSummary(msg []byte) (*RunSummary, error) {
	var summary RunSummary
	if err := json.Unmarshal(msg, &summary); err != nil {
		return nil, fmt.Errorf("can't decode run summary: %w", err)
	}

	return &summary, nil
}
