// Command algostretch stretches audio with Paulstretch and renders guided
// meditations over a stretched ambient bed.
//
// Usage:
//
//	algostretch stretch IN.wav OUT.wav --factor 8
//	algostretch mix VOICE.wav BED.wav OUT.wav --gain 20
//	algostretch audio VOICE.wav -b BED.wav -o OUT.wav
//	algostretch text "Close your eyes..." -o OUT.wav
//	algostretch personalized "I can't sleep before exams" -o OUT.wav
//	algostretch serve
//	algostretch play OUT.wav
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/algo-stretch/internal/config"
)

var (
	configFile string
	verbose    bool

	cfg config.Config

	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "algostretch"})

	rootCmd = &cobra.Command{
		Use:           "algostretch",
		Short:         "Extreme time-stretching and meditation rendering",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setup()
		},
	}
)

func setup() error {
	if viper.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}

	log.SetDefault(logger)

	loaded, err := config.Load(viper.GetString("config"))
	if err != nil {
		return err
	}

	cfg = loaded
	logger.Debug("config loaded", "path", viper.GetString("config"))

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	viper.SetEnvPrefix("algostretch")
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		stretchCmd,
		mixCmd,
		windowCmd,
		audioCmd,
		textCmd,
		personalizedCmd,
		serveCmd,
		playCmd,
		configCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
