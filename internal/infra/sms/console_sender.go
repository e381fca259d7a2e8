// Package sms provides OtpSender implementations.
package sms

import (
	"context"
	"log/slog"

	"otpgate/config"
	"otpgate/internal/domain/entity"
	"otpgate/internal/domain/service"
)

// consoleSender writes the code to the log instead of a real SMS gateway.
// Used for development and test environments; the code is logged at DEBUG so
// production log levels never capture it even if this sender is misconfigured.
type consoleSender struct {
	logger *slog.Logger
	debug  bool
}

// NewConsoleSender creates an OtpSender that logs codes locally.
func NewConsoleSender(cfg *config.Config, logger *slog.Logger) service.OtpSender {
	return &consoleSender{
		logger: logger,
		debug:  cfg.Env.Debug,
	}
}

// Send logs the outgoing code. Never fails.
func (s *consoleSender) Send(ctx context.Context, phone entity.Phone, code string) error {
	if s.debug {
		s.logger.DebugContext(ctx, "[ConsoleSms] OTP code dispatched",
			slog.String("phone", string(phone)),
			slog.String("code", code),
		)

		return nil
	}

	s.logger.InfoContext(ctx, "[ConsoleSms] OTP code dispatched",
		slog.String("phone", string(phone)),
	)

	return nil
}
