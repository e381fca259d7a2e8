// Package delivery defines the contract every transport (HTTP, worker) fulfils.
package delivery

import "context"

// Delivery is a long-running transport endpoint. Serve blocks until the
// transport stops or fails.
type Delivery interface {
	Serve(ctx context.Context) error
}
