package service

import (
	"context"

	"otpgate/internal/domain/entity"
)

// OtpSender is the external delivery collaborator. It receives the phone and
// the plaintext code, fire-and-forget; delivery transport (SMS gateway) is not
// this system's concern. Implementations must not persist or log the code in
// production paths.
type OtpSender interface {
	Send(ctx context.Context, phone entity.Phone, code string) error
}
