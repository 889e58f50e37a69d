package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/config"
	"github.com/nixolabs/triage-service/internal/service"
)

// GroupingWorker decouples webhook acknowledgement from message processing:
// the handler enqueues and returns immediately, worker goroutines run the
// classify-and-group pipeline. Once dequeued, a message runs to completion;
// there is no cancellation path.
type GroupingWorker struct {
	classifier *service.Classifier
	grouping   *service.GroupingService
	queue      chan service.InboundMessage
	workers    int
	logger     *zap.Logger
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewGroupingWorker sizes the queue and worker pool from configuration.
func NewGroupingWorker(classifier *service.Classifier, grouping *service.GroupingService, cfg config.WorkerConfig, logger *zap.Logger) *GroupingWorker {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = 4
	}
	return &GroupingWorker{
		classifier: classifier,
		grouping:   grouping,
		queue:      make(chan service.InboundMessage, queueSize),
		workers:    workers,
		logger:     logger,
	}
}

// Start launches the worker goroutines.
func (w *GroupingWorker) Start() {
	w.startOnce.Do(func() {
		for i := 0; i < w.workers; i++ {
			w.wg.Add(1)
			go w.run()
		}
		w.logger.Info("grouping workers started", zap.Int("count", w.workers))
	})
}

// Enqueue submits a message without blocking. Returns false when the queue is
// full; Slack redelivers on its side, so dropped events are not lost forever.
func (w *GroupingWorker) Enqueue(msg service.InboundMessage) bool {
	select {
	case w.queue <- msg:
		return true
	default:
		w.logger.Error("grouping queue full, dropping event",
			zap.String("channel", msg.ChannelID),
			zap.String("ts", msg.TS))
		return false
	}
}

// Stop closes the queue and waits for in-flight messages to finish.
func (w *GroupingWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
}

func (w *GroupingWorker) run() {
	defer w.wg.Done()
	for msg := range w.queue {
		w.process(msg)
	}
}

func (w *GroupingWorker) process(msg service.InboundMessage) {
	ctx := context.Background()
	classification := w.classifier.Classify(ctx, msg.Text)

	result, err := w.grouping.Process(ctx, msg, classification)
	if err != nil {
		w.logger.Error("failed to persist message",
			zap.String("channel", msg.ChannelID),
			zap.String("ts", msg.TS),
			zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("outcome", string(result.Outcome)),
		zap.String("category", string(classification.Category)),
		zap.Float64("confidence", classification.Confidence),
	}
	if result.Ticket != nil {
		fields = append(fields, zap.String("ticket_id", result.Ticket.ID))
	}
	if result.Duplicate {
		fields = append(fields, zap.Bool("duplicate", true))
	}
	w.logger.Info("processed message", fields...)
}
