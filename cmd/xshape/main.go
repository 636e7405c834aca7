// Command xshape inspects structural type keys and synthesized types for
// field shapes described in YAML.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/xshape"
	"github.com/Konsultn-Engineering/xshape/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	tagKey     string
	naming     string

	// Shape file
	shapePath string

	rt *xshape.Runtime
)

var rootCmd = &cobra.Command{
	Use:   "xshape",
	Short: "Inspect runtime structural types",
	Long: `xshape reads a field shape from YAML and reports the canonical
signature key or the struct type synthesized for it.

Shape file:
  fields:
    Name: string
    Age: int
    Tags: "[]string"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err = xshape.FromConfig(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize runtime: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rt != nil {
			_ = rt.Close()
		}
	},
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Print the canonical signature key of a shape",
	Args:  cobra.NoArgs,
	RunE:  runKey,
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the struct type synthesized for a shape",
	Args:  cobra.NoArgs,
	RunE:  runDescribe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to an xshape YAML config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&tagKey, "tag", "", "Struct tag key for synthesized fields (overrides config)")
	rootCmd.PersistentFlags().StringVar(&naming, "naming", "", "Tag naming strategy: snake, camel, pascal, none (overrides config)")

	for _, cmd := range []*cobra.Command{keyCmd, describeCmd} {
		cmd.Flags().StringVarP(&shapePath, "file", "f", "", "Shape YAML file (required)")
		_ = cmd.MarkFlagRequired("file")
		rootCmd.AddCommand(cmd)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	if cmd.Flags().Changed("tag") {
		cfg.Naming.Tag = tagKey
	}
	if naming != "" {
		cfg.Naming.Strategy = naming
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
