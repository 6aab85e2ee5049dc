package terminal

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBridge/logging"
)

// idleMonitor watches one running terminal for output silence. It is
// advisory only: when a terminal produces no output for the threshold it
// logs a possible-completion signal but never resolves the tracker.
// Auto-completing on idle would report false exit codes for legitimately
// slow or quiet commands. It exists to aid diagnosis on hosts that expose
// no authoritative completion event.
type idleMonitor struct {
	terminalID string
	store      *Store
	tracker    *Tracker
	threshold  time.Duration
	interval   time.Duration
	logger     *logging.Logger
	startedAt  time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// newIdleMonitor starts watching a terminal. interval <= 0 defaults to half
// the threshold.
func newIdleMonitor(terminalID string, store *Store, tracker *Tracker, threshold, interval time.Duration, logger *logging.Logger) *idleMonitor {
	if threshold <= 0 {
		threshold = DefaultIdleThreshold
	}
	if interval <= 0 {
		interval = threshold / 2
	}
	m := &idleMonitor{
		terminalID: terminalID,
		store:      store,
		tracker:    tracker,
		threshold:  threshold,
		interval:   interval,
		logger:     logger,
		startedAt:  time.Now(),
		stop:       make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *idleMonitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	flagged := false
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if _, resolved := m.tracker.Status(m.terminalID); resolved {
				return
			}

			last, ok := m.store.LastWrite(m.terminalID)
			if !ok {
				return
			}
			if last.IsZero() {
				// No output yet; measure from monitor start.
				last = m.startedAt
			}

			quiet := time.Since(last)
			if quiet >= m.threshold {
				if !flagged {
					m.logger.Info("terminal idle, command may have completed",
						zap.String("terminal_id", m.terminalID),
						zap.Duration("quiet_for", quiet),
					)
					flagged = true
				}
			} else {
				flagged = false
			}
		}
	}
}

// Stop halts the monitor. Safe to call more than once.
func (m *idleMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}
