// Package cli implements the deepmerge command line.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SmooAI/deepmerge"
	"github.com/SmooAI/deepmerge/overlay"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type options struct {
	array    string
	noClone  bool
	output   string
	pretty   bool
	logLevel string
}

// NewCommand creates the deepmerge command.
func NewCommand() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "deepmerge <file> [<file> ...]",
		Short: `Deep merge JSON and YAML documents`,
		Long: `Deep merge JSON and YAML documents.
    Files are merged left to right; later files win. Use - to read stdin.`,
		Version:       getVersion().String(),
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runMerge(cmd, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.logLevel, `loglevel`, `error`, `error/warn/info/debug/trace`)
	flags.StringVar(&o.output, `output`, `json`, `json/yaml: output format`)
	flags.BoolVar(&o.pretty, `pretty`, false, `indent JSON output even when stdout is not a terminal`)

	local := cmd.Flags()
	local.StringVar(&o.array, `array`, `concat`, strings.Join(deepmerge.ArrayStrategyNames(), `/`)+`: how sequences are merged`)
	local.BoolVar(&o.noClone, `no-clone`, false, `share unmerged subtrees of the inputs with the result`)

	cmd.AddCommand(newLayersCommand(o))
	return cmd
}

// Execute runs the command with args and returns what it wrote to stdout.
func Execute(stdin io.Reader, args ...string) ([]byte, error) {
	cmd := NewCommand()
	buf := new(bytes.Buffer)
	cmd.SetIn(stdin)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.Bytes(), err
}

func (o *options) logger(cmd *cobra.Command) (hclog.Logger, error) {
	level := hclog.LevelFromString(o.logLevel)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("unknown log level '%s'", o.logLevel)
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   `deepmerge`,
		Level:  level,
		Output: cmd.ErrOrStderr(),
	}), nil
}

func (o *options) runMerge(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	logger, err := o.logger(cmd)
	if err != nil {
		return err
	}
	arrayMerge, err := deepmerge.ArrayStrategy(o.array)
	if err != nil {
		return err
	}

	m := deepmerge.New(
		deepmerge.WithArrayMerge(arrayMerge),
		deepmerge.WithClone(!o.noClone),
		deepmerge.WithLogger(logger),
		deepmerge.WithCycleHandler(func(v any) {
			logger.Warn("cyclic reference dropped", "type", fmt.Sprintf("%T", v))
		}),
	)

	var result any
	for i, name := range args {
		doc, err := readDocument(cmd.InOrStdin(), name)
		if err != nil {
			return err
		}
		logger.Debug("merging document", "file", name)
		if i == 0 {
			result = doc
			continue
		}
		result = m.Merge(result, doc)
	}
	return o.render(cmd.OutOrStdout(), result)
}

func readDocument(stdin io.Reader, name string) (any, error) {
	if name == `-` {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("error reading stdin: %w", err)
		}
		// YAML is a superset of JSON
		return overlay.DecodeValue(data, `.yaml`)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	v, err := overlay.DecodeValue(data, strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func (o *options) render(out io.Writer, value any) error {
	switch o.output {
	case `yaml`:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	case `json`:
		enc := json.NewEncoder(out)
		if o.pretty || isTerminal(out) {
			enc.SetIndent(``, `  `)
		}
		return enc.Encode(value)
	default:
		return fmt.Errorf("unknown output format '%s'", o.output)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
