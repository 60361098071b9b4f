package audit

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink writes events as structured log lines
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink that logs through logger
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Record logs e at Info, or at Warn when the operation failed
func (s *ZapSink) Record(_ context.Context, e Event) error {
	fields := []zap.Field{
		zap.Stringer("event_id", e.ID),
		zap.Time("at", e.Timestamp),
		zap.String("outcome", e.Outcome),
	}
	if e.TaxID != "" {
		fields = append(fields, zap.String("tax_id", e.TaxID))
	}
	if e.AccountNumber != 0 {
		fields = append(fields, zap.String("branch_code", e.BranchCode), zap.Int("account_number", e.AccountNumber))
	}
	if e.Amount != nil {
		fields = append(fields, zap.String("amount", e.Amount.StringFixed(2)))
	}
	if e.Balance != nil {
		fields = append(fields, zap.String("balance", e.Balance.StringFixed(2)))
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
		s.logger.Warn(e.Operation, fields...)
		return nil
	}
	s.logger.Info(e.Operation, fields...)
	return nil
}

// Sync flushes buffered log entries
func (s *ZapSink) Sync() error {
	return s.logger.Sync()
}
