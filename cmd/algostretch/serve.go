package main

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-stretch/internal/jobs"
	"github.com/cwbudde/algo-stretch/internal/meditation"
	"github.com/cwbudde/algo-stretch/internal/objectstore"
	"github.com/cwbudde/algo-stretch/internal/worker"
)

var (
	serveNATS string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve personalized meditation jobs over NATS",
		Long: "Serve personalized meditation jobs over NATS. Requests on the generate\n" +
			"subject start a background render; the status subject reports progress.\n" +
			"Finished audio is stored as <job_id>.wav in the JetStream object store.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveNATS, "nats", "", "NATS server URL (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("nats") {
		cfg.NATS.URL = serveNATS
	}

	err := cfg.Validate()
	if err != nil {
		return err
	}

	bg, err := readSignal(cfg.Mix.BackgroundPath)
	if err != nil {
		return err
	}

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("algostretch"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return err
	}
	defer nc.Close()

	ctx := commandContext(cmd)

	store, err := objectstore.New(ctx, nc, cfg.NATS.AudioBucket)
	if err != nil {
		return err
	}

	scripts := newScriptWriter()
	speech := newSynthesizer()

	healthErr := speech.HealthCheck(ctx)
	if healthErr != nil {
		logger.Warn("speech service not healthy yet", "err", healthErr)
	}

	renderer := newRenderer(
		meditation.WithSynthesizer(speech, voiceRequest()),
		meditation.WithScriptWriter(scripts),
	)

	pipeline := worker.PipelineFunc(func(ctx context.Context, worry string, progress meditation.ProgressFunc) (meditation.Result, error) {
		return renderer.Reporting(progress).RenderWorry(ctx, worry, bg)
	})

	w := worker.New(nc, jobs.NewTracker(), store, pipeline, worker.Config{
		GenerateSubject: cfg.NATS.GenerateSubject,
		StatusSubject:   cfg.NATS.StatusSubject,
		Format:          cfg.WAVFormat(),
		MaxConcurrent:   cfg.NATS.MaxConcurrent,
	}, logger.WithPrefix("worker"))

	logger.Info("worker starting", "nats", nc.ConnectedUrl(), "bucket", store.Bucket(),
		"background", cfg.Mix.BackgroundPath, "bed", bg.Duration().Round(time.Second))

	err = w.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
