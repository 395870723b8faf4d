// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qpproj/projectio/internal/config"
	"github.com/qpproj/projectio/internal/logging"
	"github.com/qpproj/projectio/internal/manifest"
	"github.com/qpproj/projectio/internal/tool"
)

var version = "dev"

// app is what every subcommand gets once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	a := &app{}

	root := &cobra.Command{
		Use:   "projectio",
		Short: "Load versioned and legacy project manifests",
		Long: `projectio reads project manifests in either the current versioned layout or
the legacy layout that predates the "version" key, and reports the normalized
project.

Examples:
  # Load a project and print its summary
  projectio load path/to/project.qpproj

  # Report which layout a manifest uses
  projectio sniff path/to/project.qpproj

  # Serve the loader as MCP tools over stdio
  projectio serve`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path to a YAML config file")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "log format (json, console)")
	flags.Int64("max-manifest-bytes", config.DefaultMaxManifestBytes, "largest manifest file accepted")
	flags.String("classifier", config.DefaultClassifierVariant, "classifier variant")
	flags.Int("k", config.DefaultNeighbours, "neighbour count for the knearest classifier")

	root.AddCommand(
		newLoadCmd(a),
		newSniffCmd(a),
		newClassifiersCmd(a),
		newServeCmd(a),
	)
	return root
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <path-or-uri>",
		Short: "Load a project manifest and print its summary as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := tool.NewHandlers(a.cfg, a.logger)
			_, out, err := h.LoadProject(cmd.Context(), nil, tool.InputLoadProject{Location: args[0]})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newSniffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sniff <path>",
		Short: "Report whether a manifest uses the versioned or legacy layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifest.ResolveLocation(args[0])
			if err != nil {
				return err
			}
			content, err := manifest.ReadFile(path, a.cfg.Loader.MaxManifestBytes)
			if err != nil {
				return fmt.Errorf("failed to read manifest: %w", err)
			}
			format, err := manifest.Sniff(content)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), format)
			return err
		},
	}
}

func newClassifiersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classifiers",
		Short: "List classifier variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := tool.NewHandlers(a.cfg, a.logger).DescribeClassifiers()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VARIANT\tNAME\tAUTO-UPDATE\tSELECTED")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", info.Variant, info.Name, info.SupportsAutoUpdate, info.Selected)
			}
			return w.Flush()
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve project loading as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server := tool.NewServer("projectio", version, tool.NewHandlers(a.cfg, a.logger))
			return tool.Serve(cmd.Context(), server, a.logger)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
