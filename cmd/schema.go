package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samcaf/librarian/internal/librarian"
	"github.com/samcaf/librarian/internal/params"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Evolve a catalog's parameter schema",
}

var schemaAddCmd = &cobra.Command{
	Use:   "add <catalog>",
	Short: "Append a parameter to a catalog",
	Long: `Append a new parameter to a catalog's schema. The parameter must carry
a default; every existing entry is re-keyed with that default so old
and new registrations stay addressable side by side. The manifest is
updated to match.

Type changes and parameter removal are not supported.

Example:
  librarian schema add uniform_data --name seed --type int --default 0`,
	Args: cobra.ExactArgs(1),
	RunE: runSchemaAdd,
}

var (
	flagSchemaAddName    string
	flagSchemaAddType    string
	flagSchemaAddDefault string
)

func init() {
	schemaAddCmd.Flags().StringVar(&flagSchemaAddName, "name", "", "Parameter name (required)")
	schemaAddCmd.Flags().StringVar(&flagSchemaAddType, "type", "", "Parameter type: int, float, string, or bool (required)")
	schemaAddCmd.Flags().StringVar(&flagSchemaAddDefault, "default", "", "Default value filled into existing entries (required)")
	_ = schemaAddCmd.MarkFlagRequired("name")
	_ = schemaAddCmd.MarkFlagRequired("type")
	_ = schemaAddCmd.MarkFlagRequired("default")
	schemaCmd.AddCommand(schemaAddCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runSchemaAdd(_ *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	cat, err := p.Catalog(args[0])
	if err != nil {
		return err
	}

	t, err := params.ParseType(flagSchemaAddType)
	if err != nil {
		return err
	}
	def := flagSchemaAddDefault
	field := params.Field{Name: flagSchemaAddName, Type: t, Default: &def}

	if err := cat.AddParameter(field); err != nil {
		return err
	}
	printOK(cat.Name, fmt.Sprintf("parameter %s (%s) added with default %s; %d entries re-keyed",
		field.Name, t, def, cat.Len()))

	// Keep the declaration in step with the evolved sidecar.
	if spec, ok := p.Manifest.Spec(cat.Name); ok {
		spec.Parameters = append(spec.Parameters, librarian.ParamSpec{
			Name:    field.Name,
			Type:    string(t),
			Default: &def,
		})
		if err := librarian.SaveManifest(p.Root, p.Manifest); err != nil {
			return err
		}
		printInfo("", librarian.ManifestName+" updated")
	}
	return nil
}
