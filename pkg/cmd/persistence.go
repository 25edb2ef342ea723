package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/netwirefiber/autodisconnect/pkg/persistence"
	"github.com/netwirefiber/autodisconnect/pkg/persistence/file"
	"github.com/netwirefiber/autodisconnect/pkg/persistence/postgresql"
)

// NewPersistence opens the run history store named by databaseURL.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgres"
	default:
		return "file"
	}
}
