package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-stretch/internal/meditation"
	"github.com/cwbudde/algo-stretch/internal/ollama"
)

var (
	audioFlags renderFlags

	audioCmd = &cobra.Command{
		Use:   "audio VOICE.wav",
		Short: "Render a meditation from a voice recording",
		Args:  cobra.ExactArgs(1),
		RunE:  runAudio,
	}

	textFlags renderFlags
	textVoice voiceFlags

	textCmd = &cobra.Command{
		Use:   "text TEXT",
		Short: "Render a meditation from text through the speech service",
		Args:  cobra.ExactArgs(1),
		RunE:  runText,
	}

	personalFlags renderFlags
	personalVoice voiceFlags
	personalModel string

	personalizedCmd = &cobra.Command{
		Use:   "personalized WORRY",
		Short: "Write a script for a worry with Ollama and render it",
		Args:  cobra.ExactArgs(1),
		RunE:  runPersonalized,
	}
)

func init() {
	audioFlags.register(audioCmd)

	textFlags.register(textCmd)
	textVoice.register(textCmd)

	personalFlags.register(personalizedCmd)
	personalVoice.register(personalizedCmd)
	personalizedCmd.Flags().StringVar(&personalModel, "model", "", "Ollama model (default from config)")
}

func runAudio(cmd *cobra.Command, args []string) error {
	audioFlags.apply(cmd)

	err := cfg.Validate()
	if err != nil {
		return err
	}

	voice, err := readSignal(args[0])
	if err != nil {
		return err
	}

	bg, err := readSignal(cfg.Mix.BackgroundPath)
	if err != nil {
		return err
	}

	res, err := newRenderer(meditation.WithProgress(stageLogger())).RenderAudio(commandContext(cmd), voice, bg)
	if err != nil {
		return err
	}

	return writeSignal(audioFlags.output, res.Audio)
}

func runText(cmd *cobra.Command, args []string) error {
	textFlags.apply(cmd)
	textVoice.apply(cmd)

	err := cfg.Validate()
	if err != nil {
		return err
	}

	bg, err := readSignal(cfg.Mix.BackgroundPath)
	if err != nil {
		return err
	}

	r := newRenderer(
		meditation.WithProgress(stageLogger()),
		meditation.WithSynthesizer(newSynthesizer(), voiceRequest()),
	)

	res, err := r.RenderText(commandContext(cmd), args[0], bg)
	if err != nil {
		return err
	}

	return writeSignal(textFlags.output, res.Audio)
}

func runPersonalized(cmd *cobra.Command, args []string) error {
	personalFlags.apply(cmd)
	personalVoice.apply(cmd)

	if cmd.Flags().Changed("model") {
		cfg.Ollama.Model = personalModel
	}

	err := cfg.Validate()
	if err != nil {
		return err
	}

	bg, err := readSignal(cfg.Mix.BackgroundPath)
	if err != nil {
		return err
	}

	r := newRenderer(
		meditation.WithProgress(stageLogger()),
		meditation.WithSynthesizer(newSynthesizer(), voiceRequest()),
		meditation.WithScriptWriter(newScriptWriter()),
	)

	res, err := r.RenderWorry(commandContext(cmd), args[0], bg)
	if res.Script != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", res.Script)
		logger.Info("script", "words", ollama.WordCount(res.Script))
	}

	if err != nil {
		return err
	}

	return writeSignal(personalFlags.output, res.Audio)
}
