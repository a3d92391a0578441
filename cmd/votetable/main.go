package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coolbeans/votetable/pkg/config"
	"github.com/coolbeans/votetable/pkg/dataset"
	"github.com/coolbeans/votetable/pkg/logging"
	"github.com/coolbeans/votetable/pkg/votes"
	"github.com/coolbeans/votetable/pkg/votetable"
	"github.com/coolbeans/votetable/pkg/watch"
)

var version = "0.1.0"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		handleError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "votetable",
		Short: "Render roll call votes as a grouped, column-balanced table",
		Long: `Votetable reads roll call vote records and lays them out as a table of
groups (by party, vote or state), balanced across columns, with a link
to each member's profile.

Records can come from JSON, YAML, CSV, MessagePack, SQLite or a Senate
roll call vote XML document.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: votetable.yaml in ., $XDG_CONFIG_HOME/votetable or ~/.votetable)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(groupsCmd())
	rootCmd.AddCommand(convertCmd())

	return rootCmd
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
}

// loadConfig resolves configuration for cmd and builds its logger.
func loadConfig(cmd *cobra.Command) (*config.Config, logr.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cmd.Flags(), configPath)
	if err != nil {
		return nil, logr.Logger{}, err
	}

	logger, err := logging.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, logr.Logger{}, err
	}
	if cfg.ConfigFile != "" {
		logger.V(1).Info("using config file", "path", cfg.ConfigFile)
	}
	return cfg, logger, nil
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the vote table",
		Long: `Load vote records, apply filters, group them and write the table.

The table replaces the whole output: stdout by default, the file named by
--output, or the children of element --element-id in the page named by
--document.

Example:
  votetable render --data votes.json
  votetable render --data vote_119_1_00001.xml --group-by vote --format text
  votetable render --data house.csv --party Democrat --document index.html --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			renderPipeline, err := newPipeline(cfg, cmd.OutOrStdout(), logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := renderPipeline.refresh(ctx); err != nil {
				return err
			}
			if !cfg.Watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher, err := watch.New(cfg.Data, renderPipeline.refresh, watch.Options{
				Debounce: cfg.Debounce,
				Logger:   logger.WithName("watch"),
			})
			if err != nil {
				return err
			}
			logger.Info("watching datasets for changes", "dirs", watcher.Dirs())
			return watcher.Run(ctx)
		},
	}

	config.RegisterDataFlags(cmd.Flags())
	config.RegisterRenderFlags(cmd.Flags())
	registerCompletions(cmd)
	return cmd
}

func groupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Show how many members fall into each group",
		Long: `Print every group for the chosen key with its member count and the
column it is placed in, in table order.

Example:
  votetable groups --data votes.json --group-by state`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			groupsPipeline, err := newPipeline(cfg, io.Discard, logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := groupsPipeline.reload(ctx); err != nil {
				return err
			}

			table := groupsPipeline.table()
			out := cmd.OutOrStdout()

			keyStyle := color.New(color.Bold)
			countStyle := color.New(color.FgGreen)
			if cfg.NoColor {
				keyStyle.DisableColor()
				countStyle.DisableColor()
			}

			fmt.Fprintf(out, "Grouped by %s: %d records in %d groups, %d columns\n\n",
				table.GroupBy, table.Total, table.GroupCount(), len(table.Columns))
			for columnIndex, column := range table.Columns {
				for _, group := range column.Groups {
					fmt.Fprint(out, formatGroupLine(columnIndex, group.Key, len(group.Entries), keyStyle, countStyle))
				}
			}
			return nil
		},
	}

	config.RegisterDataFlags(cmd.Flags())
	registerCompletions(cmd)
	return cmd
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert datasets to a MessagePack dataset",
		Long: `Read one or more datasets in any supported format and write all of their
records, in argument order, as a single MessagePack dataset.

Example:
  votetable convert --data vote_119_1_00001.xml --data house.csv --out votes.msgpack`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			outPath, _ := cmd.Flags().GetString("out")
			if len(cfg.Data) == 0 {
				return fmt.Errorf("at least one --data file is required")
			}
			if format, err := dataset.DetectFormat(outPath); err != nil || format != dataset.FormatMsgpack {
				return fmt.Errorf("--out must name a .msgpack or .mpk file, got %q", outPath)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			records, err := dataset.LoadAll(ctx, cfg.Data)
			if err != nil {
				return err
			}

			if dir := filepath.Dir(outPath); dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}
			file, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := dataset.WriteMsgpack(file, records); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}

			logger.Info("dataset converted", "out", outPath, "records", len(records))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records from %s to %s\n",
				len(records), strings.Join(cfg.Data, ", "), outPath)
			return nil
		},
	}

	cmd.Flags().StringSlice("data", nil, "Dataset file(s) to convert")
	cmd.Flags().String("out", "votes.msgpack", "MessagePack file to write")
	return cmd
}

// formatGroupLine pads the key before styling it so escape codes do not
// count towards the column width.
func formatGroupLine(columnIndex int, key string, count int, keyStyle, countStyle *color.Color) string {
	if key == "" {
		key = "(none)"
	}
	return fmt.Sprintf("  %d  %s %s\n", columnIndex+1, keyStyle.Sprint(fmt.Sprintf("%-24s", key)), countStyle.Sprint(count))
}

// groupKeyNames lists the accepted --group-by values.
func groupKeyNames() []string {
	names := make([]string, 0, len(votes.GroupKeys))
	for _, key := range votes.GroupKeys {
		names = append(names, key.String())
	}
	return names
}

func registerCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("group-by", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return groupKeyNames(), cobra.ShellCompDirectiveNoFileComp
	})
	if cmd.Flags().Lookup("format") != nil {
		_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{string(votetable.FormatHTML), string(votetable.FormatMarkdown), string(votetable.FormatText)}, cobra.ShellCompDirectiveNoFileComp
		})
	}
}
