// Package queue provides a bounded, rate-limited task runner used to
// throttle outbound messages to the chat platform.
package queue

import (
	"sync"
	"time"

	"eventwarden/internal/logger"
)

// Task is one unit of queued work, typically producing a single outbound
// message.
type Task func()

// Config controls queue pacing and capacity.
type Config struct {
	Interval    time.Duration // time between ticks
	Concurrency int           // tasks started per tick
	MaxQueue    int           // hard cap; pushes beyond it are rejected
}

// Queue is a bounded FIFO of pending tasks. A timer fires every Interval
// and starts up to Concurrency queued tasks without waiting for prior
// ticks' tasks to finish. Task errors and panics are contained per task.
type Queue struct {
	interval    time.Duration
	concurrency int
	maxQueue    int

	mu         sync.Mutex
	tasks      []Task
	active     int
	stopCh     chan struct{}
	running    bool
	lastReport time.Time
}

// New creates a queue, clamping configuration to sane minimums.
func New(cfg Config) *Queue {
	if cfg.Interval < 250*time.Millisecond {
		cfg.Interval = time.Second
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxQueue < 1 {
		cfg.MaxQueue = 100
	}
	return &Queue{
		interval:    cfg.Interval,
		concurrency: cfg.Concurrency,
		maxQueue:    cfg.MaxQueue,
	}
}

// Start begins the tick loop. Starting a running queue is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	go q.loop(q.stopCh)
	logger.Info("Notification queue started", "interval", q.interval, "concurrency", q.concurrency)
}

// Stop halts the timer. In-flight tasks are not cancelled, only no longer
// replenished.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}
	q.running = false
	close(q.stopCh)
	logger.Info("Notification queue stopped")
}

// Len returns queued plus active task count.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks) + q.active
}

// Push enqueues a task. It returns false when the queue is at capacity;
// the caller must treat that as backpressure and drop the notification
// rather than block.
func (q *Queue) Push(t Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) >= q.maxQueue {
		logger.Warn("Notification queue full, task dropped", "pending", len(q.tasks), "max", q.maxQueue)
		return false
	}
	q.tasks = append(q.tasks, t)
	q.maybeReportLocked()
	return true
}

// Drain blocks until every queued and in-flight task has finished or the
// timeout elapses. It reports whether the queue emptied. One-shot callers
// use this before Stop so pending notifications are not dropped on exit.
func (q *Queue) Drain(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for q.Len() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
	return true
}

func (q *Queue) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			q.tick()
		}
	}
}

func (q *Queue) tick() {
	q.mu.Lock()
	n := q.concurrency
	if n > len(q.tasks) {
		n = len(q.tasks)
	}
	batch := q.tasks[:n]
	q.tasks = q.tasks[n:]
	q.active += n
	q.mu.Unlock()

	for _, t := range batch {
		go q.run(t)
	}
}

func (q *Queue) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Queued task panicked", "panic", r)
		}
		q.mu.Lock()
		q.active--
		q.mu.Unlock()
	}()
	t()
}

// maybeReportLocked logs queue depth at most every 10 seconds.
func (q *Queue) maybeReportLocked() {
	now := time.Now()
	if now.Sub(q.lastReport) > 10*time.Second {
		q.lastReport = now
		logger.Info("Notification queue depth", "pending", len(q.tasks), "active", q.active)
	}
}
