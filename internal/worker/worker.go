// Package worker serves meditation jobs over NATS request/reply.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/semaphore"

	"github.com/cwbudde/algo-stretch/internal/jobs"
	"github.com/cwbudde/algo-stretch/internal/meditation"
	"github.com/cwbudde/algo-stretch/internal/objectstore"
	"github.com/cwbudde/algo-stretch/internal/wav"
)

// Default subjects.
const (
	DefaultGenerateSubject = "meditation.generate"
	DefaultStatusSubject   = "meditation.status"
)

// Pipeline renders a meditation for worry.
type Pipeline interface {
	Render(ctx context.Context, worry string, progress meditation.ProgressFunc) (meditation.Result, error)
}

// PipelineFunc adapts a function to Pipeline.
type PipelineFunc func(ctx context.Context, worry string, progress meditation.ProgressFunc) (meditation.Result, error)

// Render calls f.
func (f PipelineFunc) Render(ctx context.Context, worry string, progress meditation.ProgressFunc) (meditation.Result, error) {
	return f(ctx, worry, progress)
}

// Config configures a Worker.
type Config struct {
	GenerateSubject string
	StatusSubject   string
	// Format is the encoding of uploaded audio.
	Format wav.Format
	// MaxConcurrent bounds simultaneous renders; <= 0 means 1.
	MaxConcurrent int
	// RenderTimeout bounds one job; 0 disables the limit.
	RenderTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.GenerateSubject == "" {
		c.GenerateSubject = DefaultGenerateSubject
	}

	if c.StatusSubject == "" {
		c.StatusSubject = DefaultStatusSubject
	}

	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 1
	}

	return c
}

// Worker accepts generate and status requests and renders jobs in the
// background.
type Worker struct {
	nc       *nats.Conn
	cfg      Config
	tracker  *jobs.Tracker
	store    objectstore.Store
	pipeline Pipeline
	logger   *log.Logger
	slots    *semaphore.Weighted
	flush    func() error

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// New returns a Worker. A nil logger selects the default logger.
func New(nc *nats.Conn, tracker *jobs.Tracker, store objectstore.Store, pipeline Pipeline, cfg Config, logger *log.Logger) *Worker {
	cfg = cfg.withDefaults()

	if logger == nil {
		logger = log.Default().WithPrefix("worker")
	}

	return &Worker{
		nc:       nc,
		cfg:      cfg,
		tracker:  tracker,
		store:    store,
		pipeline: pipeline,
		logger:   logger,
		slots:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		flush:    nc.Flush,
	}
}

// Run serves requests until ctx is done, then drains the subscriptions and
// waits for running jobs to stop.
func (w *Worker) Run(ctx context.Context) error {
	gen, err := w.nc.Subscribe(w.cfg.GenerateSubject, func(msg *nats.Msg) { w.handleGenerate(ctx, msg) })
	if err != nil {
		return fmt.Errorf("worker: subscribe %s: %w", w.cfg.GenerateSubject, err)
	}

	status, err := w.nc.Subscribe(w.cfg.StatusSubject, w.handleStatus)
	if err != nil {
		unsubscribe(gen)
		return fmt.Errorf("worker: subscribe %s: %w", w.cfg.StatusSubject, err)
	}

	err = w.flush()
	if err != nil {
		unsubscribe(gen, status)
		return fmt.Errorf("worker: flush: %w", err)
	}

	w.logger.Info("serving", "generate", w.cfg.GenerateSubject, "status", w.cfg.StatusSubject)

	<-ctx.Done()

	w.mu.Lock()
	w.closing = true
	w.mu.Unlock()

	genErr := gen.Drain()
	statusErr := status.Drain()

	w.wg.Wait()

	if genErr != nil {
		return fmt.Errorf("worker: drain %s: %w", w.cfg.GenerateSubject, genErr)
	}

	if statusErr != nil {
		return fmt.Errorf("worker: drain %s: %w", w.cfg.StatusSubject, statusErr)
	}

	return nil
}

// Wait blocks until all background jobs have finished.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) handleGenerate(ctx context.Context, msg *nats.Msg) {
	var req GenerateRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		w.respond(msg, ErrorReply{Error: fmt.Sprintf("%s: %v", msgBadRequest, err)})
		return
	}

	worry := strings.TrimSpace(req.Worry)
	if worry == "" {
		w.respond(msg, ErrorReply{Error: msgNoWorry})
		return
	}

	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		w.respond(msg, ErrorReply{Error: msgShuttingDown})

		return
	}

	job := w.tracker.Create(worry)
	w.wg.Add(1)
	w.mu.Unlock()

	w.logger.Info("job queued", "job", job.ID)

	go func() {
		defer w.wg.Done()

		w.process(ctx, job.ID, worry)
	}()

	w.respond(msg, GenerateReply{JobID: job.ID, Status: job.Status, Message: msgStarted})
}

func (w *Worker) handleStatus(msg *nats.Msg) {
	var req StatusRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		w.respond(msg, ErrorReply{Error: fmt.Sprintf("%s: %v", msgBadRequest, err)})
		return
	}

	job, err := w.tracker.Get(req.JobID)
	if err != nil {
		w.respond(msg, ErrorReply{Error: msgNotFound})
		return
	}

	w.respond(msg, statusReply(job))
}

// process renders one job and records the outcome in the tracker.
func (w *Worker) process(ctx context.Context, id, worry string) {
	err := w.slots.Acquire(ctx, 1)
	if err != nil {
		w.fail(id, fmt.Errorf("worker: %w", err))
		return
	}
	defer w.slots.Release(1)

	if w.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, w.cfg.RenderTimeout)
		defer cancel()
	}

	start := time.Now()
	logger := w.logger.With("job", id)

	res, err := w.pipeline.Render(ctx, worry, func(stage meditation.Stage, percent int) {
		status := jobs.StatusGeneratingAudio
		if stage == meditation.StageScript {
			status = jobs.StatusGeneratingScript
		}

		_, _ = w.tracker.SetStatus(id, status, min(percent, 99))
	})
	if err != nil {
		w.fail(id, err)
		return
	}

	key := id + ".wav"

	data, err := wav.Bytes(res.Audio, w.cfg.Format)
	if err != nil {
		w.fail(id, fmt.Errorf("worker: encode audio: %w", err))
		return
	}

	err = w.store.Upload(ctx, key, data)
	if err != nil {
		w.fail(id, err)
		return
	}

	_, err = w.tracker.Complete(id, res.Script, key)
	if err != nil {
		logger.Error("complete job", "err", err)
		return
	}

	logger.Info("job completed", "duration", res.Audio.Duration(), "took", time.Since(start).Round(time.Millisecond))
}

func (w *Worker) fail(id string, err error) {
	w.logger.Error("job failed", "job", id, "err", err)

	_, uerr := w.tracker.Fail(id, err)
	if uerr != nil {
		w.logger.Error("record failure", "job", id, "err", uerr)
	}
}

func (w *Worker) respond(msg *nats.Msg, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.logger.Error("marshal reply", "err", err)
		return
	}

	err = msg.Respond(data)
	if err != nil {
		w.logger.Error("respond", "subject", msg.Subject, "err", err)
	}
}

func unsubscribe(subs ...*nats.Subscription) {
	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
}
