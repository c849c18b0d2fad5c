package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rpmrelay/rpmrelay/internal/builder"
	"github.com/rpmrelay/rpmrelay/internal/config"
	"github.com/rpmrelay/rpmrelay/internal/release"
	"github.com/rpmrelay/rpmrelay/internal/shell"
	"github.com/rpmrelay/rpmrelay/internal/utils"
	"github.com/rpmrelay/rpmrelay/internal/workspace"
)

func init() {
	rootCmd.AddCommand(newReleaseCmd())
}

func newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release [target]...",
		Short: "Publish the tagged project to the named release targets",
		Long: `Publish the most recent tag of the project in the current directory to
one or more release targets from the targets file. Each target names a
backing system (repo-mirror, dist-git, cvs, build-service) and carries
its options.`,
		RunE: runRelease,
	}
	cmd.Flags().SortFlags = false
	cmd.Flags().Bool("all", false, "Release to every target in the targets file")
	cmd.Flags().Bool("dry-run", false, "Go through the motions without committing, pushing or submitting")
	cmd.Flags().Bool("scratch", false, "Request scratch builds from the build service")
	cmd.Flags().StringArray("build-tag", nil, "Limit build service submission to this tag (repeatable)")
	cmd.Flags().String("tag", "", "Tag to release (default: the most recent tag)")
	return cmd
}

// releaseRun is the resolved input of one release invocation, shared by
// every target it publishes to.
type releaseRun struct {
	project      string
	tag          string
	buildVersion string
	sourceDir    string
	buildDir     string
	props        *config.Props
	userConf     config.UserConfig
	onlyTags     []string
	scratch      bool
	dryRun       bool
	runner       shell.Runner
}

func runRelease(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	targetsFile := viper.GetString("targets")
	targets, err := config.LoadTargets(targetsFile)
	if err != nil {
		return err
	}
	names := args
	if all {
		names = targets.Names()
	}
	if len(names) == 0 {
		return errors.New("no release targets named, see 'rpmrelay targets'")
	}

	// past this point failures are real, not usage mistakes
	cmd.SilenceUsage = true

	run, err := resolveRun(cmd)
	if err != nil {
		return err
	}

	slog.Info("releasing", "project", run.project, "tag", run.tag, "targets", names)
	for _, name := range names {
		target, ok := targets.Target(name)
		if !ok {
			return fmt.Errorf("no release target %q in %s", name, targetsFile)
		}
		if err := releaseOne(cmd.Context(), target, run); err != nil {
			if errors.Is(err, release.ErrUserAborted) {
				color.New(color.FgHiRed, color.Bold).Fprintln(cmd.ErrOrStderr(), "Release aborted.")
			}
			return fmt.Errorf("target %s: %w", name, err)
		}
	}
	return nil
}

func resolveRun(cmd *cobra.Command) (*releaseRun, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	project, err := detectProject(cwd)
	if err != nil {
		return nil, err
	}

	runner := shell.ExecRunner{}
	tag, _ := cmd.Flags().GetString("tag")
	if tag == "" {
		tag, err = latestTag(cmd.Context(), runner, cwd)
		if err != nil {
			return nil, err
		}
	}

	props, err := config.LoadProps(viper.GetString("props"))
	if err != nil {
		return nil, err
	}
	userConf, err := config.LoadUserConfig(config.DefaultUserConfigPath())
	if err != nil {
		return nil, err
	}

	run := &releaseRun{
		project:      project,
		tag:          tag,
		buildVersion: buildVersion(project, tag),
		sourceDir:    cwd,
		buildDir:     viper.GetString("build-dir"),
		props:        props,
		userConf:     userConf,
		runner:       runner,
	}
	run.onlyTags, _ = cmd.Flags().GetStringArray("build-tag")
	run.scratch, _ = cmd.Flags().GetBool("scratch")
	run.dryRun, _ = cmd.Flags().GetBool("dry-run")
	return run, nil
}

func releaseOne(ctx context.Context, target *config.Target, run *releaseRun) error {
	if !target.HasOption("releaser") {
		return &release.ConfigError{Target: target.Name(), Reason: `missing required option "releaser"`}
	}
	kind, err := release.ParseKind(target.Option("releaser"))
	if err != nil {
		return err
	}

	b, err := builder.DefaultFactory(target.Option("builder"), builder.Options{
		Project:   run.project,
		Tag:       run.tag,
		Version:   run.buildVersion,
		SourceDir: run.sourceDir,
		BuildDir:  run.buildDir,
		Args:      target.BuilderArgs(),
		Runner:    run.runner,
	})
	if err != nil {
		return err
	}
	defer b.Cleanup()

	ws, err := workspace.New(run.buildDir, run.project)
	if err != nil {
		return err
	}
	session := release.NewSession(run.project, ws, run.runner, release.NewTerminalOperator())

	rel, err := release.New(kind, release.Deps{
		Target:   target,
		Props:    run.props,
		UserConf: run.userConf,
		Builder:  b,
		Session:  session,
		OnlyTags: run.onlyTags,
		Scratch:  run.scratch,
	})
	if err != nil {
		return err
	}
	defer rel.Cleanup()

	return rel.Release(ctx, run.dryRun)
}

// detectProject derives the project name from the packaging spec in dir.
func detectProject(dir string) (string, error) {
	spec := utils.FindFile(dir, ".spec")
	if spec == "" {
		return "", fmt.Errorf("no .spec file in %s, run from the project directory", dir)
	}
	return strings.TrimSuffix(filepath.Base(spec), ".spec"), nil
}

func latestTag(ctx context.Context, runner shell.Runner, dir string) (string, error) {
	res, err := runner.Run(ctx, shell.Command("git", "describe", "--tags", "--abbrev=0").In(dir))
	if err != nil {
		return "", fmt.Errorf("no tag to release: %s: %w", strings.TrimSpace(res.Output), err)
	}
	return strings.TrimSpace(res.Output), nil
}

// buildVersion strips the project prefix off a release tag, leaving the
// version-release string.
func buildVersion(project, tag string) string {
	return strings.TrimPrefix(tag, project+"-")
}
