package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rpmrelay/rpmrelay/internal/utils"
	"github.com/rpmrelay/rpmrelay/internal/version"
)

var (
	home, _            = os.UserHomeDir()
	defaultTargetsFile = filepath.Join(".rpmrelay", "targets.yml")
	defaultPropsFile   = filepath.Join(".rpmrelay", "props.yml")
	defaultBuildDir    = filepath.Join(os.TempDir(), "rpmrelay")
	defaultLogFile     = filepath.Join(home, ".rpmrelay", "rpmrelay.log")
)

var rootCmd = &cobra.Command{
	Use:     "rpmrelay",
	Short:   "Publish tagged RPM packaging into build and distribution systems",
	Version: version.Detailed(),
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return bindConfig()
	}
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().String("targets", defaultTargetsFile, "Release targets file")
	rootCmd.PersistentFlags().String("props", defaultPropsFile, "Project packaging props file")
	rootCmd.PersistentFlags().String("build-dir", defaultBuildDir, "Scratch directory for builds and checkouts")
}

func main() {
	closeLogs := setupLogging()
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func bindConfig() error {
	viper.SetEnvPrefix("RPMRELAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, name := range []string{"targets", "props", "build-dir"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// setupLogging fans log records out to the terminal and a per-user log
// file. Review output and prompts print to stdout; logs stay on stderr so
// piped diffs remain clean.
func setupLogging() func() {
	level := slog.LevelInfo
	if debugEnabled() {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
			NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		}),
	}

	closer := func() {}
	if err := os.MkdirAll(filepath.Dir(defaultLogFile), 0o755); err == nil {
		file, err := os.OpenFile(defaultLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}))
			closer = func() { file.Close() }
		} else {
			fmt.Fprintf(os.Stderr, "log file unavailable, logging to terminal only: %v\n", err)
		}
	}

	slog.SetDefault(slog.New(utils.NewLogFanout(handlers...)))
	return closer
}

func debugEnabled() bool {
	return os.Getenv("DEBUG") != ""
}
