package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-stretch/internal/playback"
)

var (
	playVolume float64

	playCmd = &cobra.Command{
		Use:   "play FILE.wav",
		Short: "Play a WAV file on the default audio device",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}
)

func init() {
	playCmd.Flags().Float64Var(&playVolume, "volume", 1, "playback volume in [0, 1]")
}

func runPlay(cmd *cobra.Command, args []string) error {
	sig, err := readSignal(args[0])
	if err != nil {
		return err
	}

	if sig.NumChannels() > 2 {
		sig, err = sig.ToChannels(2)
		if err != nil {
			return err
		}
	}

	p, err := playback.New(int(sig.SampleRate), sig.NumChannels())
	if err != nil {
		return err
	}

	logger.Info("playing", "path", args[0], "duration", sig.Duration().Round(time.Second))

	return p.Play(commandContext(cmd), sig, playVolume)
}
