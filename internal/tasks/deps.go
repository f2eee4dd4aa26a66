// Package tasks implements the scheduled tasks of the bot and the
// inventory API, with their dependencies and registration.
package tasks

import (
	"log/slog"

	"github.com/techretail/retailbot/internal/assistant"
	"github.com/techretail/retailbot/internal/config"
	"github.com/techretail/retailbot/internal/database"
)

// TaskDeps contains the dependencies scheduled tasks may use. A process
// leaves nil what it does not own: the API has no Catalog, the bot no Store.
type TaskDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   database.Store
	Catalog *assistant.Catalog
}
