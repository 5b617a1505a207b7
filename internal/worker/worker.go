package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Notifier is the optional broker subscription used to cut idle latency:
// the API publishes a message when a scan is queued and the worker treats it
// as a poll wake-up. Claiming stays database-authoritative, so scheduling is
// correct with or without the broker.
type Notifier interface {
	ConsumeSignals(consumerTag string) (<-chan struct{}, error)
}

// Config holds worker configuration
type Config struct {
	Logger       *slog.Logger
	Scans        ScanStore
	Executor     *Executor
	Notifier     Notifier
	Concurrency  int
	PollInterval time.Duration
	ErrorBackoff time.Duration
}

// Worker is the process-level driver: it repeatedly claims scans and hands
// them to the Executor, idling between empty polls and backing off longer on
// store errors. The loop only terminates on an explicit stop signal.
type Worker struct {
	logger       *slog.Logger
	scans        ScanStore
	executor     *Executor
	notifier     Notifier
	concurrency  int
	pollInterval time.Duration
	errorBackoff time.Duration
	workerID     string
	wake         chan struct{}
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "worker"
	}

	return &Worker{
		logger:       cfg.Logger,
		scans:        cfg.Scans,
		executor:     cfg.Executor,
		notifier:     cfg.Notifier,
		concurrency:  cfg.Concurrency,
		pollInterval: cfg.PollInterval,
		errorBackoff: cfg.ErrorBackoff,
		workerID:     fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		wake:         make(chan struct{}, 1),
		stopChan:     make(chan struct{}),
	}
}

// Start spawns the worker pool and blocks until the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("poll_interval", w.pollInterval),
	)

	if w.notifier != nil {
		if err := w.subscribeNotifications(ctx); err != nil {
			// Polling alone is sufficient; the broker only reduces latency.
			w.logger.Warn("Queued-scan notifications unavailable, polling only",
				slog.String("error", err.Error()),
			)
		}
	}

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")
	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

// workerLoop is the main claim-and-execute loop for one worker goroutine.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started", slog.String("worker_name", workerName))

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return
		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return
		default:
		}

		scan, err := w.scans.ClaimNextScan(ctx)
		switch {
		case err != nil:
			// A store error is not an empty queue; back off longer so a
			// failing dependency is not hot-looped.
			w.logger.Error("Failed to claim scan",
				slog.String("worker_name", workerName),
				slog.String("error", err.Error()),
			)
			w.idle(ctx, w.errorBackoff, false)

		case scan == nil:
			w.idle(ctx, w.pollInterval, true)

		default:
			w.logger.Info("Claimed scan",
				slog.String("worker_name", workerName),
				slog.String("scan_id", scan.ID),
			)
			w.executor.Run(ctx, scan)
		}
	}
}

// idle waits out one backoff interval. When wakeable, a queued-scan
// notification ends the wait early.
func (w *Worker) idle(ctx context.Context, d time.Duration, wakeable bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	if wakeable {
		select {
		case <-w.stopChan:
		case <-ctx.Done():
		case <-w.wake:
		case <-timer.C:
		}
		return
	}

	select {
	case <-w.stopChan:
	case <-ctx.Done():
	case <-timer.C:
	}
}

// subscribeNotifications forwards broker deliveries into the wake channel.
func (w *Worker) subscribeNotifications(ctx context.Context) error {
	deliveries, err := w.notifier.ConsumeSignals(w.workerID)
	if err != nil {
		return err
	}

	w.logger.Info("Subscribed to queued-scan notifications",
		slog.String("worker_id", w.workerID),
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopChan:
				return
			case _, ok := <-deliveries:
				if !ok {
					w.logger.Warn("Notification channel closed, polling only")
					return
				}
				select {
				case w.wake <- struct{}{}:
				default:
				}
			}
		}
	}()

	return nil
}
