package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rpmrelay/rpmrelay/internal/config"
)

func init() {
	rootCmd.AddCommand(newTargetsCmd())
}

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the configured release targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := config.LoadTargets(viper.GetString("targets"))
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return printTargets(cmd.OutOrStdout(), targets)
		},
	}
}

func printTargets(out io.Writer, targets *config.Targets) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range targets.Names() {
		target, _ := targets.Target(name)
		kind := target.Option("releaser")
		if kind == "" {
			kind = "(no releaser)"
		}
		fmt.Fprintf(w, "%s\t%s\n", name, kind)
	}
	return w.Flush()
}
