package audit

import (
	"context"
	"log/slog"
)

const (
	// KindWalletAdjusted records a signed wallet balance adjustment.
	KindWalletAdjusted = "wallet.adjusted"
	// KindAdvanceRecorded records a new prepaid advance payment.
	KindAdvanceRecorded = "advance_payment.recorded"
	// KindAdvanceConsumed records a draw against an advance payment.
	KindAdvanceConsumed = "advance_payment.consumed"
	// KindCommissionAccrued records newly accrued commissions.
	KindCommissionAccrued = "commission.accrued"
	// KindCommissionPaid records a commission settlement.
	KindCommissionPaid = "commission.paid"
)

// Event describes an audit payload emitted after a mutation commits.
type Event struct {
	Type        string
	Description string
	Metadata    map[string]any
}

// Recorder delivers audit events to a downstream sink. Delivery is
// best-effort: a failing sink must never fail or block the operation that
// emitted the event.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// LoggerRecorder writes audit events to the structured logger.
type LoggerRecorder struct {
	logger *slog.Logger
}

// NewLoggerRecorder constructs a logging audit recorder.
func NewLoggerRecorder(logger *slog.Logger) *LoggerRecorder {
	return &LoggerRecorder{logger: logger}
}

// Record writes the event to the structured logger.
func (r *LoggerRecorder) Record(_ context.Context, event Event) error {
	if r == nil || r.logger == nil {
		return nil
	}
	r.logger.Info("audit event",
		"type", event.Type,
		"description", event.Description,
		"metadata", event.Metadata,
	)
	return nil
}
