package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/solatis/keyshift/internal/core/store"
	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/rules"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Manage stored mappings",
}

var mappingImportCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Validate and store mapping definition files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMappingImport,
}

var mappingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored mappings",
	Args:  cobra.NoArgs,
	RunE:  runMappingList,
}

var mappingShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a stored mapping as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runMappingShow,
}

var mappingDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a stored mapping",
	Args:  cobra.ExactArgs(1),
	RunE:  runMappingDelete,
}

func init() {
	rootCmd.AddCommand(mappingCmd)
	mappingCmd.AddCommand(mappingImportCmd, mappingListCmd, mappingShowCmd, mappingDeleteCmd)
}

// mappingStore opens the database, applying pending migrations, and
// returns the store with a close func.
func mappingStore(cmd *cobra.Command) (*store.MappingStore, log.Logger, func(), error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	database, queries, err := openDatabase(cmd.Context(), cfg, true)
	if err != nil {
		return nil, nil, nil, err
	}
	return store.NewMappingStore(queries), logger, func() { database.Close() }, nil
}

func runMappingImport(cmd *cobra.Command, args []string) error {
	mappings, logger, closeDB, err := mappingStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	for _, path := range args {
		mapping, err := rules.LoadMappingFile(path)
		if err != nil {
			return err
		}
		id, err := mappings.Put(cmd.Context(), mapping)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		logger.Info("mapping imported", log.Fields{"file": path, "mapping": mapping.Name, "mapping_id": string(id)})
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", mapping.Name, id)
	}
	return nil
}

func runMappingList(cmd *cobra.Command, args []string) error {
	mappings, _, closeDB, err := mappingStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	stored, err := mappings.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tRULES\tUPDATED")
	for _, m := range stored {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.Name, m.ID, len(m.Rules), m.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runMappingShow(cmd *cobra.Command, args []string) error {
	mappings, _, closeDB, err := mappingStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	stored, err := mappings.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(&stored.Mapping); err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}
	return enc.Close()
}

func runMappingDelete(cmd *cobra.Command, args []string) error {
	mappings, logger, closeDB, err := mappingStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := mappings.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	logger.Info("mapping deleted", log.Fields{"mapping": args[0]})
	return nil
}
