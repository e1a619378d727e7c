package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/solatis/keyshift/internal/core/store"
	"github.com/solatis/keyshift/internal/json"
	"github.com/solatis/keyshift/internal/rules"
	"github.com/solatis/keyshift/internal/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a mapping to a JSON document",
	Long: `Apply reads a JSON object (or an array of objects) and writes the
restructured result. The mapping comes from a YAML/JSON file (--mapping) or
from the mapping store (--name).`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringP("mapping", "m", "", "mapping definition file (YAML or JSON)")
	applyCmd.Flags().StringP("name", "n", "", "stored mapping name")
	applyCmd.Flags().StringP("input", "i", "-", "input JSON file, - for stdin")
	applyCmd.Flags().StringP("output", "o", "-", "output file, - for stdout")
	applyCmd.Flags().Bool("copy-source", false, "seed the result with the input's top-level scalar fields")
	applyCmd.Flags().Bool("compact", false, "write compact JSON instead of indented")
	applyCmd.MarkFlagsMutuallyExclusive("mapping", "name")
	applyCmd.MarkFlagsOneRequired("mapping", "name")
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	var mapping *types.Mapping
	if path, _ := flags.GetString("mapping"); path != "" {
		mapping, err = rules.LoadMappingFile(path)
		if err != nil {
			return err
		}
	} else {
		name, _ := flags.GetString("name")
		database, queries, err := openDatabase(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer database.Close()
		stored, err := store.NewMappingStore(queries).Get(cmd.Context(), name)
		if err != nil {
			return err
		}
		mapping = &stored.Mapping
	}

	if flags.Changed("copy-source") {
		mapping.CopySource, _ = flags.GetBool("copy-source")
	} else if cfg.Transform.CopySource {
		mapping.CopySource = true
	}

	compiled, err := rules.Compile(mapping)
	if err != nil {
		return fmt.Errorf("invalid mapping: %w", err)
	}

	input, _ := flags.GetString("input")
	data, err := readInput(cmd, input)
	if err != nil {
		return err
	}

	engine := rules.NewEngine(logger)
	var result any
	if gjson.ParseBytes(data).IsArray() {
		docs, err := parseDocuments(data)
		if err != nil {
			return err
		}
		out := make([]types.Document, len(docs))
		for i, doc := range docs {
			out[i] = engine.Execute(compiled, doc)
		}
		result = out
	} else {
		doc, err := types.ParseDocument(data)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		result = engine.Execute(compiled, doc)
	}

	compact, _ := flags.GetBool("compact")
	var encoded []byte
	if compact {
		encoded, err = json.Marshal(result)
	} else {
		encoded, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	output, _ := flags.GetString("output")
	return writeOutput(cmd, output, append(encoded, '\n'))
}

// parseDocuments decodes a JSON array whose elements must all be objects.
func parseDocuments(data []byte) ([]types.Document, error) {
	if !json.Valid(data) {
		return nil, types.ErrInvalidJSON
	}
	elements := gjson.ParseBytes(data).Array()
	docs := make([]types.Document, 0, len(elements))
	for i, elem := range elements {
		doc, err := types.ParseDocument([]byte(elem.Raw))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), types.MaxPayloadSize+1))
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(data) > types.MaxPayloadSize {
		return nil, fmt.Errorf("input exceeds %d bytes", types.MaxPayloadSize)
	}
	return data, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
