package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/cli/config"
	"github.com/secmon-lab/hazop/pkg/repository/firestore"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
	"github.com/secmon-lab/hazop/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := append(repoCfg.Flags(), &cli.BoolFlag{
		Name:        "dry-run",
		Usage:       "Preview Firestore index changes without applying",
		Destination: &dryRun,
	})

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create Firestore indexes or apply PostgreSQL schema migrations",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Migrate configuration", "repository", repoCfg, "dryRun", dryRun)

			switch repoCfg.Backend() {
			case config.BackendFirestore:
				return migrateFirestore(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), dryRun)

			case config.BackendPostgres:
				if dryRun {
					logger.Info("Dry run is not supported for postgres, nothing applied")
					return nil
				}
				repo, err := repoCfg.ConfigurePostgres(ctx)
				if err != nil {
					return err
				}
				defer safe.Close(ctx, repo)
				return repo.Migrate(logging.With(ctx, logger))

			case config.BackendMemory:
				logger.Info("Memory backend needs no migration")
				return nil

			default:
				return goerr.New("invalid repository backend", goerr.V("backend", repoCfg.Backend()))
			}
		},
	}
}

func migrateFirestore(ctx context.Context, projectID, databaseID string, dryRun bool) error {
	logger := logging.Default()
	if projectID == "" {
		return goerr.New("firestore-project-id is required for migration")
	}

	indexConfig := getIndexConfig()

	client, err := fireconf.NewClient(ctx, projectID, databaseID)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		plan, err := client.GetMigrationPlan(ctx, indexConfig)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		if len(plan.Steps) == 0 {
			logger.Info("No changes required")
			return nil
		}

		for _, step := range plan.Steps {
			logger.Info("Migration step",
				"collection", step.Collection,
				"operation", step.Operation,
				"description", step.Description,
				"destructive", step.Destructive)
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

// getIndexConfig turns the repository's indexed queries into fireconf
// composite indexes. Queries on the same collection share one entry.
func getIndexConfig() *fireconf.Config {
	var collections []fireconf.Collection
	pos := make(map[string]int)

	for _, q := range firestore.IndexedQueries() {
		fields := []fireconf.IndexField{
			{Path: q.Equality, Order: fireconf.OrderAscending},
		}
		for _, path := range q.OrderBy {
			fields = append(fields, fireconf.IndexField{Path: path, Order: fireconf.OrderAscending})
		}

		i, ok := pos[q.Collection]
		if !ok {
			i = len(collections)
			pos[q.Collection] = i
			collections = append(collections, fireconf.Collection{Name: q.Collection})
		}
		collections[i].Indexes = append(collections[i].Indexes, fireconf.Index{Fields: fields})
	}

	return &fireconf.Config{Collections: collections}
}
