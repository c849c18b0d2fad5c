package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rpmrelay/rpmrelay/internal/config"
	"github.com/rpmrelay/rpmrelay/internal/release"
)

func init() {
	rootCmd.AddCommand(newBuildTagsCmd())
}

// The listing hides tags the project is blacklisted from; set DEBUG to see
// them annotated instead.
func newBuildTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build-tags",
		Short: "List the build tags the project auto-builds into",
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := config.LoadProps(viper.GetString("props"))
			if err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			project, err := detectProject(cwd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			printBuildTags(cmd.OutOrStdout(), props, project, debugEnabled())
			return nil
		},
	}
}

func printBuildTags(out io.Writer, props *config.Props, project string, debug bool) {
	for _, l := range release.ListTags(props, project, debug) {
		if l.Hidden {
			continue
		}
		if l.Annotation != "" {
			fmt.Fprintf(out, "%s (%s)\n", l.Tag, l.Annotation)
		} else {
			fmt.Fprintln(out, l.Tag)
		}
	}
}
