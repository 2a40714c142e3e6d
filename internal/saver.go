package internal

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Saver is the single long-lived task that turns bursts of MarkDirty calls
// into one debounced flush of the store. Write failures are logged and the
// dirty flag is re-armed, so the next cycle retries; the state machine is
// never blocked on disk.
type Saver struct {
	store    *Store
	logger   *zap.SugaredLogger
	interval time.Duration

	dirty    chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewSaver(store *Store, interval time.Duration, logger *zap.SugaredLogger) *Saver {
	return &Saver{
		store:    store,
		logger:   logger,
		interval: interval,
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// MarkDirty is safe to call from any goroutine, arbitrarily often. While a
// flush is already pending the signal coalesces into it.
func (s *Saver) MarkDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// Run consumes the dirty flag until Stop is called. Each flag raise opens a
// debounce window; everything marked inside the window lands in one flush.
func (s *Saver) Run() {
	defer close(s.stopped)

	for {
		select {
		case <-s.done:
			s.drainAndFlush()
			return
		case <-s.dirty:
			timer := time.NewTimer(s.interval)
			select {
			case <-timer.C:
			case <-s.done:
				timer.Stop()
				s.flush()
				s.drainAndFlush()
				return
			}
			// marks drained here belong to mutations that completed
			// before the snapshot below, so they are covered by it
			select {
			case <-s.dirty:
			default:
			}
			s.flush()
		}
	}
}

// Stop requests a final flush and waits for Run to return.
func (s *Saver) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	<-s.stopped
}

func (s *Saver) drainAndFlush() {
	select {
	case <-s.dirty:
		s.flush()
	default:
	}
}

func (s *Saver) flush() {
	snap, err := s.store.Snapshot()
	if err != nil {
		s.logger.Errorf("snapshot collections: %s", err.Error())
		s.MarkDirty()
		return
	}

	if err = s.store.WriteSnapshot(snap); err != nil {
		s.logger.Errorf("persist collections: %s", err.Error())
		s.MarkDirty()
	}
}
