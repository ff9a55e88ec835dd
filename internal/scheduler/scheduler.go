// Package scheduler drives the periodic scan-and-dispatch cycle. One
// scheduler instance owns one background timer; there is no coordination
// across processes.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// maxConcurrentCycles bounds how many cycles may overlap when sends are
// slow. Ticks that arrive with no free slot are coalesced (skipped); the
// next tick picks up whatever is still pending.
const maxConcurrentCycles = 2

type Scheduler struct {
	interval time.Duration
	cycle    func() error
	logger   *logrus.Logger

	slots   chan struct{}
	done    chan struct{}
	loopWG  sync.WaitGroup
	running atomic.Bool
}

func New(interval time.Duration, cycle func() error, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		cycle:    cycle,
		logger:   logger,
		slots:    make(chan struct{}, maxConcurrentCycles),
		done:     make(chan struct{}),
	}
}

// Start launches the timer loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}

	s.logger.WithField("interval", s.interval).Info("Scheduler started")

	s.loopWG.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.loopWG.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			select {
			case s.slots <- struct{}{}:
				go s.runCycle()
			default:
				s.logger.Debug("Skipping tick, concurrent cycle limit reached")
			}
		}
	}
}

// runCycle executes one cycle and contains every failure mode: a cycle
// error or panic is logged and never tears down the loop.
func (s *Scheduler) runCycle() {
	defer func() { <-s.slots }()
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.WithField("panic", rec).Error("Cycle panicked")
		}
	}()

	s.logger.Debug("Checking for due reminders")

	if err := s.cycle(); err != nil {
		s.logger.WithError(err).Error("Cycle failed")
	}
}

// Stop halts future ticks and waits for the timer loop to exit. In-flight
// cycles are not cancelled; they run to completion on their own.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	close(s.done)
	s.loopWG.Wait()

	s.logger.Info("Scheduler stopped")
}
