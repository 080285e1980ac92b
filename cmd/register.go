package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/samcaf/librarian/internal/actor"
	"github.com/samcaf/librarian/internal/catalog"
)

var registerCmd = &cobra.Command{
	Use:   "register <catalog>",
	Short: "Register a new entry under its parameters",
	Long: `Allocate a filename in a catalog and commit the entry under the
canonical key of its parameters.

Without --from or --stdin only the name is allocated and committed; the
caller writes the file afterwards. With --from FILE or --stdin the
content is written too, and the entry rolls back if writing fails.

Examples:
  librarian register uniform_data --label "uniform data" \
      --param n_samples=1000 --param minimum=0.0
  cat samples.npy | librarian register uniform_data --label "uniform data" \
      --param n_samples=1000 --param minimum=0.0 --stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

var (
	flagRegisterLabel  string
	flagRegisterParams []string
	flagRegisterExt    string
	flagRegisterFrom   string
	flagRegisterStdin  bool
	flagRegisterSubdir string
)

func init() {
	registerCmd.Flags().StringVar(&flagRegisterLabel, "label", "", "Recognized data label (required)")
	registerCmd.Flags().StringArrayVar(&flagRegisterParams, "param", nil, "Parameter as name=value (repeatable)")
	registerCmd.Flags().StringVar(&flagRegisterExt, "ext", "", "File extension (optional when the catalog recognizes exactly one)")
	registerCmd.Flags().StringVar(&flagRegisterFrom, "from", "", "Copy content from this file into the allocated name")
	registerCmd.Flags().BoolVar(&flagRegisterStdin, "stdin", false, "Copy content from stdin into the allocated name")
	registerCmd.Flags().StringVar(&flagRegisterSubdir, "subdir", "", "Allocate inside this subdirectory of the catalog")
	_ = registerCmd.MarkFlagRequired("label")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(_ *cobra.Command, args []string) error {
	if flagRegisterFrom != "" && flagRegisterStdin {
		return errors.New("--from and --stdin are mutually exclusive")
	}

	cat, err := openCatalog(args[0])
	if err != nil {
		return err
	}
	raw, err := parseParamPairs(flagRegisterParams)
	if err != nil {
		return err
	}
	req := catalog.RegisterRequest{
		Label:  flagRegisterLabel,
		Params: raw,
		Ext:    flagRegisterExt,
		Subdir: flagRegisterSubdir,
	}

	var filename string
	switch {
	case flagRegisterFrom != "":
		var src *os.File
		src, err = os.Open(flagRegisterFrom)
		if err != nil {
			return errors.Wrapf(err, "cannot open %s", flagRegisterFrom)
		}
		defer src.Close()
		filename, err = actor.NewWriter(cat).Write(req, src)
	case flagRegisterStdin:
		filename, err = actor.NewWriter(cat).Write(req, os.Stdin)
	default:
		filename, err = cat.Register(req)
	}
	if err != nil {
		return err
	}

	printOK(cat.Name, fmt.Sprintf("registered %s", filename))
	fmt.Println(cat.FilePath(filename))
	return nil
}

// parseParamPairs turns repeated name=value flags into a raw parameter
// map. Values stay raw strings; the catalog's schema coerces them.
func parseParamPairs(pairs []string) (map[string]string, error) {
	raw := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, errors.Newf("parameter %q is not of the form name=value", p)
		}
		if _, dup := raw[name]; dup {
			return nil, errors.Newf("parameter %q given twice", name)
		}
		raw[name] = value
	}
	return raw, nil
}
