package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/cwbudde/algo-stretch/dsp/mix"
	"github.com/cwbudde/algo-stretch/dsp/stretch"
	"github.com/cwbudde/algo-stretch/dsp/window"
)

var (
	stretchFactor   float64
	stretchWindow   float64
	stretchOnset    float64
	stretchSeed     uint64
	stretchBackend  string
	stretchParallel bool

	stretchCmd = &cobra.Command{
		Use:   "stretch IN.wav OUT.wav",
		Short: "Time-stretch a WAV file by a factor",
		Args:  cobra.ExactArgs(2),
		RunE:  runStretch,
	}

	mixGain float64

	mixCmd = &cobra.Command{
		Use:   "mix VOICE.wav BACKGROUND.wav OUT.wav",
		Short: "Mix a background under a voice track",
		Long: "Mix a background under a voice track. The background is resampled to the\n" +
			"voice rate, fitted to its length, scaled by --gain dB and normalized if the\n" +
			"sum clips.",
		Args: cobra.ExactArgs(3),
		RunE: runMix,
	}

	windowRate float64
	windowType string
	windowBeta float64

	windowCmd = &cobra.Command{
		Use:   "window [SECONDS...]",
		Short: "Print analysis window sizes for a sample rate",
		Long: "Print the frame size, hop and bin count the stretcher uses for each window\n" +
			"length, with the measured ENBW and tabulated sidelobe level of --type.\n" +
			"The stretcher itself always analyses with a symmetric Hann window.",
		Args: cobra.ArbitraryArgs,
		RunE: runWindow,
	}
)

func init() {
	fl := stretchCmd.Flags()
	fl.Float64VarP(&stretchFactor, "factor", "k", 8, "stretch factor (> 1 lengthens)")
	fl.Float64VarP(&stretchWindow, "window", "w", 0, "window length in seconds (default from config)")
	fl.Float64Var(&stretchOnset, "onset", 0, "onset sensitivity (default from config)")
	fl.Uint64Var(&stretchSeed, "seed", 0, "phase seed, 0 for random (default from config)")
	fl.StringVar(&stretchBackend, "backend", "", "FFT backend: auto, algo-fft or gonum")
	fl.BoolVar(&stretchParallel, "parallel", false, "transform channels in parallel")

	mixCmd.Flags().Float64VarP(&mixGain, "gain", "g", 0, "background gain in dB (default from config)")

	windowCmd.Flags().Float64VarP(&windowRate, "rate", "r", 44100, "sample rate in Hz")
	windowCmd.Flags().StringVar(&windowType, "type", "hann", "window to measure: rectangular, hann, hamming, blackman or kaiser")
	windowCmd.Flags().Float64Var(&windowBeta, "beta", 8, "kaiser shape parameter")
}

func applyStretchFlags(cmd *cobra.Command) error {
	fl := cmd.Flags()

	if fl.Changed("window") {
		cfg.Stretch.WindowSeconds = stretchWindow
	}

	if fl.Changed("onset") {
		cfg.Stretch.OnsetSensitivity = stretchOnset
	}

	if fl.Changed("seed") {
		cfg.Stretch.Seed = stretchSeed
	}

	if fl.Changed("backend") {
		cfg.Stretch.Backend = stretchBackend
	}

	if fl.Changed("parallel") {
		cfg.Stretch.Parallel = stretchParallel
	}

	return cfg.Validate()
}

func runStretch(cmd *cobra.Command, args []string) error {
	err := applyStretchFlags(cmd)
	if err != nil {
		return err
	}

	in, err := readSignal(args[0])
	if err != nil {
		return err
	}

	logs := rate.Sometimes{Interval: time.Second}
	opts := append(cfg.StretchOptions(), stretch.WithProgress(func(p int) {
		logs.Do(func() { logger.Info("stretching", "progress", fmt.Sprintf("%d%%", p)) })
	}))

	start := time.Now()

	out, err := stretch.StretchContext(commandContext(cmd), in, stretchFactor, opts...)
	if err != nil {
		return err
	}

	logger.Info("stretched", "factor", stretchFactor, "from", in.Duration().Round(time.Millisecond),
		"to", out.Duration().Round(time.Millisecond), "took", time.Since(start).Round(time.Millisecond))

	return writeSignal(args[1], out)
}

func runMix(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("gain") {
		cfg.Mix.BackgroundGainDB = mixGain
	}

	voice, err := readSignal(args[0])
	if err != nil {
		return err
	}

	bg, err := readSignal(args[1])
	if err != nil {
		return err
	}

	var rep mix.Report

	out, err := mix.Mix(voice, bg, cfg.Mix.BackgroundGainDB, mix.WithReport(&rep))
	if err != nil {
		return err
	}

	logger.Info("mixed", "gain", fmt.Sprintf("%.3f", rep.Gain), "peak", dbfs(rep.Peak),
		"normalized", rep.Normalized, "resampled", rep.Resampled,
		"padded", humanize.Comma(int64(rep.Padded)), "truncated", humanize.Comma(int64(rep.Truncated)))

	return writeSignal(args[2], out)
}

func runWindow(cmd *cobra.Command, args []string) error {
	seconds := []float64{cfg.Stretch.WindowSeconds}

	if len(args) > 0 {
		seconds = seconds[:0]

		for _, a := range args {
			var s float64

			_, err := fmt.Sscanf(a, "%g", &s)
			if err != nil {
				return fmt.Errorf("window %q: %w", a, err)
			}

			seconds = append(seconds, s)
		}
	}

	typ, err := window.ParseType(windowType)
	if err != nil {
		return err
	}

	info := window.Info(typ)

	sidelobe, gain := "-", "-"
	if info.HighestSidelobe != 0 {
		sidelobe = fmt.Sprintf("%.1f dB", info.HighestSidelobe)
		gain = fmt.Sprintf("%.2f", info.CoherentGain)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SECONDS\tSIZE\tHOP\tBINS\tACTUAL\tRESOLUTION\tWINDOW\tENBW\tSIDELOBE\tGAIN")

	for _, s := range seconds {
		ws, err := stretch.NewWindowSpec(s, windowRate)
		if err != nil {
			return err
		}

		enbw, err := window.EquivalentNoiseBandwidth(window.Generate(typ, ws.Size, window.WithBeta(windowBeta)))
		if err != nil {
			return err
		}

		fmt.Fprintf(tw, "%g\t%s\t%s\t%s\t%.4fs\t%.2f Hz\t%s\t%.3f bins\t%s\t%s\n", s,
			humanize.Comma(int64(ws.Size)), humanize.Comma(int64(ws.Half)), humanize.Comma(int64(ws.Bins())),
			ws.Seconds(windowRate), windowRate/float64(ws.Size), info.Name, enbw, sidelobe, gain)
	}

	return tw.Flush()
}
