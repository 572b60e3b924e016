package command

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cayleygraph/rdfobjects/internal/repl"
)

const keyReplTimeout = "repl.timeout"

func NewReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Drop into an interactive shell over the objects.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := mustSetupProfile(cmd)
			defer mustFinishProfile(p)

			ctx, cancel := getContext()
			defer cancel()
			m, _, err := openModel(ctx)
			if err != nil {
				return err
			}
			return repl.Repl(ctx, m, viper.GetDuration(keyReplTimeout))
		},
	}
	cmd.Flags().Duration("command_timeout", 30*time.Second, "elapsed time until an individual command times out")
	viper.BindPFlag(keyReplTimeout, cmd.Flags().Lookup("command_timeout"))
	return cmd
}
