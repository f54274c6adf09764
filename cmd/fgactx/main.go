// Package main is the entry point for the fgactx MCP server.
//
// Startup sequence: initialize logging, load configuration (file plus
// environment overrides plus flags), build the rule catalog and document
// store, then serve MCP on the selected transport until the client
// disconnects or the process is signalled.
package main

import (
	"fmt"
	"os"
	"strings"

	"fgactx/internal/config"
	"fgactx/internal/docstore"
	"fgactx/internal/logging"
	"fgactx/internal/matcher"
	"fgactx/internal/mcp"

	"github.com/spf13/cobra"
)

var (
	flagDocsDir   string
	flagRulesFile string
	flagTransport string
	flagHTTPAddr  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fgactx",
		Short: "MCP server providing OpenFGA authoring guidance documents",
		Long: "fgactx serves pre-authored OpenFGA knowledge documents over the Model\n" +
			"Context Protocol. Queries are matched against keyword rules and the\n" +
			"matching document is returned in full.",
		RunE: runServe,
	}

	rootCmd.PersistentFlags().StringVar(&flagDocsDir, "docs-dir", "", "directory of knowledge documents (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagRulesFile, "rules", "", "external rules.yaml replacing the built-in catalog")
	rootCmd.Flags().StringVar(&flagTransport, "transport", "", "transport to serve on: stdio or http (overrides config)")
	rootCmd.Flags().StringVar(&flagHTTPAddr, "http-addr", "", "listen address for the http transport (overrides config)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "rules",
		Short: "Print the active rule catalog",
		RunE:  runRules,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.NewAppLogger()

	cfg, rules, err := loadConfigAndRules(logger)
	if err != nil {
		logger.Error("Startup failed", "error", err)
		return err
	}

	store, err := docstore.NewStore(cfg.DocsDir, logger)
	if err != nil {
		logger.Error("Failed to open document store", "error", err)
		return err
	}

	engine, err := matcher.NewEngine(rules, store, logger)
	if err != nil {
		logger.Error("Failed to build matcher engine", "error", err)
		return err
	}

	srv := mcp.NewServer(cfg, engine, store, logger)
	if err := srv.Start(); err != nil {
		logger.Error("Server exited with error", "error", err)
		return err
	}

	return nil
}

func runRules(cmd *cobra.Command, args []string) error {
	logger := logging.NewAppLogger()

	_, rules, err := loadConfigAndRules(logger)
	if err != nil {
		return err
	}

	for i, rule := range rules {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n   document: %s\n   patterns: %s\n",
			i+1, rule.Description, rule.DocumentRef, strings.Join(rule.Patterns, ", "))
	}

	return nil
}

// loadConfigAndRules resolves configuration (file, env, flags in ascending
// precedence) and the rule catalog to serve.
func loadConfigAndRules(logger *logging.AppLogger) (*config.Config, []matcher.Rule, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flagDocsDir != "" {
		cfg.DocsDir = flagDocsDir
	}
	if flagRulesFile != "" {
		cfg.RulesFile = flagRulesFile
	}
	if flagTransport != "" {
		cfg.Transport = flagTransport
	}
	if flagHTTPAddr != "" {
		cfg.HTTPAddr = flagHTTPAddr
	}

	if err := config.ValidateTransport(cfg.Transport); err != nil {
		return nil, nil, err
	}

	rules := matcher.DefaultRules()
	if cfg.RulesFile != "" {
		rules, err = matcher.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load external rules: %w", err)
		}
		logger.Info("Loaded external rule catalog", "path", cfg.RulesFile, "ruleCount", len(rules))
	}

	return cfg, rules, nil
}
