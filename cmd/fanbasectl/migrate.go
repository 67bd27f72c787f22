package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fanbase-service/internal/config"
	"fanbase-service/internal/db"
	mongorepo "fanbase-service/internal/repository/mongo"
	"fanbase-service/internal/repository/postgres"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema for the configured storage driver",
		Long: `Creates tables and indexes for STORAGE_DRIVER.

  postgres  applies the SQL schema in a single transaction
  mongo     creates collection indexes, including the partial unique
            index that allows one active subscription per user and artist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			switch rt.cfg.StorageDriver {
			case config.StoragePostgres:
				return migratePostgres(ctx, rt)
			case config.StorageMongo:
				return migrateMongo(ctx, rt)
			default:
				rt.logger.Info("nothing to migrate", zap.String("storage", rt.cfg.StorageDriver))
				return nil
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall migration timeout")
	return cmd
}

func migratePostgres(ctx context.Context, rt *runtime) error {
	conn, err := sql.Open("postgres", rt.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := postgres.Migrate(ctx, conn); err != nil {
		return err
	}

	rt.logger.Info("postgres schema applied")
	return nil
}

func migrateMongo(ctx context.Context, rt *runtime) error {
	client, err := db.ConnectMongo(ctx, rt.cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongorepo.NewStore(client, rt.cfg.MongoDatabase).EnsureIndexes(ctx); err != nil {
		return err
	}

	rt.logger.Info("mongo indexes ensured", zap.String("database", rt.cfg.MongoDatabase))
	return nil
}
