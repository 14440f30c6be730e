package cli

import (
	"github.com/spf13/cobra"
)

// NewRoot builds the command tree.
func NewRoot(s Streams) *cobra.Command {
	root, _ := newRoot(s)
	return root
}

func newRoot(s Streams) (*cobra.Command, *app) {
	a := &app{streams: s, flags: &globalFlags{}}

	root := &cobra.Command{
		Use:   "wishlist",
		Short: "A terminal client for your wishlist",
		Long: `wishlist talks to the wishlist REST API: log in once, then list,
add, complete and remove wishes from the command line or the interactive TUI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usagef("%v", err) })

	f := root.PersistentFlags()
	f.StringVarP(&a.flags.configPath, "config", "c", "", "config file (default is ~/.wishlist/config.yml)")
	f.StringVar(&a.flags.apiURL, "api-url", "", "wishlist API base URL (overrides api.url)")
	f.StringVar(&a.flags.theme, "theme", "", "output theme: classic, neon or mono")
	f.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log requests to stderr at debug level")
	f.BoolVar(&a.flags.json, "json", false, "print JSON instead of text")
	f.BoolVar(&a.flags.noColor, "no-color", false, "disable colours")

	root.AddCommand(
		loginCmd(a), registerCmd(a), logoutCmd(a), statusCmd(a), whoamiCmd(a), profileCmd(a),
		listCmd(a), showCmd(a), addCmd(a), editCmd(a), doneCmd(a), removeCmd(a), categoriesCmd(a),
		tuiCmd(a),
	)
	return root, a
}

// args wraps a cobra validator so that violations exit as usage errors.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return usagef("%s: %v", cmd.Name(), err)
		}
		return nil
	}
}
