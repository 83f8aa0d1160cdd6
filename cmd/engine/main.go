// Package main is the entry point for the resume ranking engine: a local HTTP
// service used by the desktop UI plus a few CLI commands for scripting.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "resumerank",
	Short: "Score and rank resumes against each other",
	Long: `resumerank scores a batch of resumes with lexicon, consistency and
similarity signals, then ranks them best first on a 20-100 scale.

Run "serve" for the local HTTP engine used by the desktop app, or "rank"
to score files straight from the command line.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("data-dir", ".", "directory holding config.yml, lexicon.yml and the run database")
	pf.String("config", "", "config file (default: <data-dir>/config.yml)")
	pf.String("log-level", "", "override app.log_level (debug, info, warn, error)")
	pf.String("log-format", "", "override app.log_format (text, json)")

	_ = viper.BindPFlag("data_dir", pf.Lookup("data-dir"))
	_ = viper.BindPFlag("config", pf.Lookup("config"))
	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", pf.Lookup("log-format"))
}

// initConfig wires environment overrides. A .env file in the working
// directory is read first so RESUMERANK_* values can live there.
func initConfig() {
	_ = godotenv.Load()

	viper.SetEnvPrefix("RESUMERANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
