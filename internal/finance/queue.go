package finance

import (
	"context"
	"log"
	"sync"
	"time"
)

// Worker drains a bounded queue of project recalculation requests in the
// background. Secondary cascades (investor archive, project restore, floor
// and phase side effects) enqueue here instead of blocking their request;
// primary writes still recalculate their own project synchronously.
//
// Failures are logged and retried once with backoff, then abandoned: the
// system accepts a temporarily stale aggregate over failing the write that
// triggered the recalculation.
type Worker struct {
	queue chan uint

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	retryDelay time.Duration
}

func NewWorker(queueSize int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		queue:      make(chan uint, queueSize),
		ctx:        ctx,
		cancel:     cancel,
		retryDelay: 500 * time.Millisecond,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the in-flight recalculation.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue schedules a project recalculation without blocking the caller.
// When the queue is full the trigger is dropped with a log line; the next
// write against the project will converge the aggregate anyway.
func (w *Worker) Enqueue(projectID uint) {
	select {
	case w.queue <- projectID:
	default:
		log.Printf("recalc queue full, dropping trigger for project %d", projectID)
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case projectID := <-w.queue:
			w.process(projectID)
		}
	}
}

func (w *Worker) process(projectID uint) {
	err := RecalculateProjectFinances(projectID)
	if err == nil {
		return
	}
	log.Printf("background recalculation failed for project %d: %v (retrying once)", projectID, err)

	select {
	case <-w.ctx.Done():
		return
	case <-time.After(w.retryDelay):
	}

	if err := RecalculateProjectFinances(projectID); err != nil {
		log.Printf("background recalculation failed again for project %d: %v (abandoned)", projectID, err)
	}
}

var defaultWorker *Worker

// SetWorker installs the worker used by EnqueueRecalc.
func SetWorker(w *Worker) { defaultWorker = w }

// EnqueueRecalc hands a secondary recalculation to the background worker.
// Without a worker (tests, tooling) it falls through to a synchronous
// best-effort recalculation so callers never have to care.
func EnqueueRecalc(projectID uint) {
	if defaultWorker != nil {
		defaultWorker.Enqueue(projectID)
		return
	}
	if err := RecalculateProjectFinances(projectID); err != nil {
		log.Printf("recalculation failed for project %d: %v", projectID, err)
	}
}

// RecalcAndLog recalculates a project synchronously, logging instead of
// propagating failure. Used by primary writes whose response should reflect
// fresh aggregates but must never fail because of a recalculation problem.
func RecalcAndLog(projectID uint) {
	if err := RecalculateProjectFinances(projectID); err != nil {
		log.Printf("recalculation failed for project %d: %v", projectID, err)
	}
}

// RecalcPhaseAndLog mirrors RecalcAndLog for phase aggregates.
func RecalcPhaseAndLog(phaseID uint) {
	if err := RecalculatePhaseSpending(phaseID); err != nil {
		log.Printf("phase recalculation failed for phase %d: %v", phaseID, err)
	}
}

// RecalcFloorAndLog mirrors RecalcAndLog for floor aggregates.
func RecalcFloorAndLog(floorID uint) {
	if err := RecalculateFloorSpending(floorID); err != nil {
		log.Printf("floor recalculation failed for floor %d: %v", floorID, err)
	}
}
