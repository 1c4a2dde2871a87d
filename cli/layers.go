package cli

import (
	"github.com/SmooAI/deepmerge"
	"github.com/SmooAI/deepmerge/overlay"
	"github.com/spf13/cobra"
)

type layersOptions struct {
	dir         string
	environment string
	array       string
	envPrefix   string
	envKeys     []string
	required    bool
}

func newLayersCommand(root *options) *cobra.Command {
	o := &layersOptions{}
	cmd := &cobra.Command{
		Use:   "layers [<key>]",
		Short: `Print the configuration composed from layer files and the environment`,
		Long: `Print the configuration composed from layer files and the environment.
    Layers are read from --dir (or discovered .config-layers / config-layers
    directories) and merged as default < local < {env} < {env}.{provider} <
    {env}.{provider}.{region} < remote < environment variables. With a key,
    only the value at that dotted path is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args, root)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.dir, `dir`, ``, `layer directory. Overrides `+overlay.EnvConfigDir)
	flags.StringVar(&o.environment, `env`, ``, `environment name. Overrides `+overlay.EnvEnvironment)
	flags.StringVar(&o.array, `array`, `replace`, `concat/replace/unique: how sequences are merged`)
	flags.StringVar(&o.envPrefix, `env-prefix`, ``, `prefix stripped from environment variable names`)
	flags.StringArrayVar(&o.envKeys, `env-key`, nil, `top-level key accepted from environment variables (repeatable)`)
	flags.BoolVar(&o.required, `required`, false, `fail when no layer directory or default layer exists`)
	return cmd
}

func (o *layersOptions) run(cmd *cobra.Command, args []string, root *options) error {
	cmd.SilenceUsage = true
	logger, err := root.logger(cmd)
	if err != nil {
		return err
	}
	arrayMerge, err := deepmerge.ArrayStrategy(o.array)
	if err != nil {
		return err
	}

	env := overlay.Environ()
	if o.dir != `` {
		env[overlay.EnvConfigDir] = o.dir
	}
	if o.environment != `` {
		env[overlay.EnvEnvironment] = o.environment
	}
	keys := make(map[string]bool, len(o.envKeys))
	for _, k := range o.envKeys {
		keys[k] = true
	}

	mgrOpts := []overlay.ManagerOption{
		overlay.WithEnv(env),
		overlay.WithEnvOptions(overlay.EnvOptions{Prefix: o.envPrefix, Keys: keys}),
		overlay.WithLogger(logger),
		overlay.WithMergeOptions(deepmerge.WithArrayMerge(arrayMerge)),
	}
	if o.required {
		mgrOpts = append(mgrOpts, overlay.WithRequiredFiles())
	}
	mgr := overlay.NewManager(mgrOpts...)

	ctx := cmd.Context()
	if len(args) == 1 {
		v, err := mgr.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return root.render(cmd.OutOrStdout(), v)
	}
	config, err := mgr.Config(ctx)
	if err != nil {
		return err
	}
	for _, f := range mgr.Files() {
		logger.Info("layer file", "path", f)
	}
	return root.render(cmd.OutOrStdout(), config)
}
