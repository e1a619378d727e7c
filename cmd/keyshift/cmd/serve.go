package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/keyshift/internal/core/api"
	"github.com/solatis/keyshift/internal/core/auth"
	"github.com/solatis/keyshift/internal/core/config"
	"github.com/solatis/keyshift/internal/core/db"
	"github.com/solatis/keyshift/internal/core/server"
	"github.com/solatis/keyshift/internal/core/store"
	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/rules"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC transform service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	migrate, _ := cmd.Flags().GetBool("migrate")
	database, queries, err := openDatabase(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'keyshift migrate' first", s.ID)
		}
	}

	authenticator, err := newAuthenticator(cfg, queries, logger)
	if err != nil {
		return err
	}

	service, err := api.NewTransformService(rules.NewEngine(logger), store.NewMappingStore(queries), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg.Server, service, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting keyshift", log.Fields{"version": Version, "addr": cfg.Server.Addr(), "auth": authenticator != nil})
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		return grpcServer.Shutdown(context.Background())
	}
}

// newAuthenticator returns nil when authentication is disabled.
func newAuthenticator(cfg *config.Config, queries *db.Queries, logger log.Logger) (*auth.Authenticator, error) {
	if !cfg.Server.RequireAuth {
		return nil, nil
	}
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return nil, fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
	}
	return auth.NewAuthenticator(secrets, queries, logger), nil
}
