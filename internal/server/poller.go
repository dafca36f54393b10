package server

import (
	"context"

	"nfl-scoreboard-service/internal/poller"
)

// Poller is the background loop the server starts and stops with its lifecycle.
type Poller interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() poller.Status
}
