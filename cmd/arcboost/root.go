package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/arcboost/pkg/boost/config"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "arcboost",
		Short: "Reversible Windows gaming performance tweaks",
		Long: `Arcboost applies a curated set of Windows gaming performance tweaks
and can put every one of them back exactly as it found them.

Before a reversible tweak changes anything it records the prior value of
every setting it touches; restore replays those records in the order the
tweaks were applied. Tweaks that need administrator rights are skipped,
never half-applied, when the process is not elevated.

By default arcboost starts an interactive picker. Use --no-interactive
or a machine-readable --output format for plain text.

Examples:
  arcboost                          # Interactive tweak picker
  arcboost list                     # Show the catalog with applied markers
  arcboost list -o json             # Catalog as JSON
  arcboost apply game_mode_enable   # Apply one tweak by id
  arcboost apply --all -y           # Apply everything, no prompt
  arcboost apply --category Network # Apply the network tweaks
  arcboost restore                  # Put back everything recorded
  arcboost status                   # Show the applied-tweak record
  arcboost explain disable_nagle    # What a tweak changes and why
  arcboost history                  # Past apply and restore batches`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runRoot,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/arcboost/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (pretty, plain, json, jsonl, yaml, tsv, csv, markdown, ids, null, template)")
	rootCmd.PersistentFlags().StringVar(&templateStr, "template", "", "Go template for -o template")
	rootCmd.PersistentFlags().StringVar(&stateFile, "state-file", "", "path of the applied-tweak record (default is the data directory)")
	rootCmd.PersistentFlags().StringVarP(&categoriesFlag, "category", "c", "", "limit to categories (comma-separated)")
	rootCmd.PersistentFlags().StringVarP(&matchFlag, "match", "m", "", "limit to tweaks whose id matches glob patterns (comma-separated)")
	rootCmd.PersistentFlags().Bool("simulate", false, "run against an in-memory system snapshot instead of this machine")
	rootCmd.PersistentFlags().BoolP("no-interactive", "n", false, "disable the interactive picker")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "skip confirmation prompts")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("template", rootCmd.PersistentFlags().Lookup("template"))
	_ = viper.BindPFlag("state_file", rootCmd.PersistentFlags().Lookup("state-file"))
	_ = viper.BindPFlag("category", rootCmd.PersistentFlags().Lookup("category"))
	_ = viper.BindPFlag("match", rootCmd.PersistentFlags().Lookup("match"))
	_ = viper.BindPFlag("simulate", rootCmd.PersistentFlags().Lookup("simulate"))
	_ = viper.BindPFlag("no_interactive", rootCmd.PersistentFlags().Lookup("no-interactive"))
	_ = viper.BindPFlag("yes", rootCmd.PersistentFlags().Lookup("yes"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// runRoot launches the interactive picker unless the invocation asks for
// plain output, in which case it behaves like list.
func runRoot(cmd *cobra.Command, args []string) error {
	noInteractive := viper.GetBool("no_interactive")

	// An explicit non-pretty output format forces non-interactive mode.
	outFormat := viper.GetString("output")
	if outFormat != "" && outFormat != "pretty" {
		noInteractive = true
	}

	if noInteractive {
		return runList(cmd, args)
	}

	return runInteractiveTUI()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "arcboost"))
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arcboost"))
		}
	}

	viper.SetEnvPrefix("ARCBOOST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message to stderr when verbose mode is on.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stdout unless quiet mode is on.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
