package cli

import (
	"github.com/spf13/cobra"

	"github.com/idilsaglam/wishlist/internal/tui"
)

func tuiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive wishlist",
		Args:  args(cobra.NoArgs),
		RunE: func(*cobra.Command, []string) error {
			return tui.Run(tui.Config{
				Session: a.session,
				Wishes:  a.wishes,
				Log:     a.log,
				Timeout: a.cfg.Timeout(),
				Settle:  a.cfg.SettleDelay(),
			})
		},
	}
}
