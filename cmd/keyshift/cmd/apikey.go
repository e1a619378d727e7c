package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/keyshift/internal/core/config"
	"github.com/solatis/keyshift/internal/core/store"
	"github.com/solatis/keyshift/internal/log"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys for the transform service",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key (printed once)",
	Args:  cobra.NoArgs,
	RunE:  runAPIKeyCreate,
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyRevokeCmd)
	apikeyCreateCmd.Flags().String("name", "", "name of the client using the key")
	apikeyCreateCmd.Flags().String("secret-id", "", "HMAC secret to sign with (default: the only configured secret)")
	apikeyCreateCmd.MarkFlagRequired("name")
}

func apiKeyStore(cmd *cobra.Command) (*store.APIKeyStore, map[string][]byte, log.Logger, func(), error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	database, queries, err := openDatabase(cmd.Context(), cfg, true)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return store.NewAPIKeyStore(queries, secrets), secrets, logger, func() { database.Close() }, nil
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	keys, secrets, logger, closeDB, err := apiKeyStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	name, _ := cmd.Flags().GetString("name")
	secretID, _ := cmd.Flags().GetString("secret-id")
	if secretID == "" {
		if len(secrets) != 1 {
			return fmt.Errorf("--secret-id required when %d HMAC secrets are configured", len(secrets))
		}
		for id := range secrets {
			secretID = id
		}
	}

	issued, err := keys.Create(cmd.Context(), secretID, name)
	if err != nil {
		return err
	}
	logger.Info("api key created", log.Fields{"api_key_id": issued.ID, "name": issued.Name, "secret_id": secretID})
	fmt.Fprintf(cmd.OutOrStdout(), "id:  %s\nkey: %s\n", issued.ID, issued.APIKey)
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	keys, _, logger, closeDB, err := apiKeyStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := keys.Revoke(cmd.Context(), args[0]); err != nil {
		return err
	}
	logger.Info("api key revoked", log.Fields{"api_key_id": args[0]})
	return nil
}
