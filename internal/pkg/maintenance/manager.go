package maintenance

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/lumencast/lumencast/internal/pkg/env"
	"github.com/lumencast/lumencast/internal/pkg/ledger"
	metrics "github.com/lumencast/lumencast/internal/pkg/metrics/counter"
)

const (
	defaultSweepInterval = time.Minute
	counterFlushInterval = 5 * time.Second
)

// Manager drives the periodic maintenance of the core: the subscription
// expiry sweep and the counter flush. The ledger exposes the sweep as a
// caller-triggered operation; this manager is that caller.
type Manager struct {
	ledger *ledger.Service

	sweepTicker *time.Ticker
	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

// NewManager creates a maintenance manager around the subscription ledger.
func NewManager(ledger *ledger.Service) *Manager {
	return &Manager{
		ledger: ledger,
		stopCh: make(chan struct{}),
	}
}

// Start starts the background tickers
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Maintenance] Starting background tasks")

	sweepInterval := defaultSweepInterval
	if v, err := strconv.Atoi(env.GetEnv("SUBSCRIPTION_SWEEP_INTERVAL_SECONDS", "")); err == nil && v > 0 {
		sweepInterval = time.Duration(v) * time.Second
	}

	m.sweepTicker = time.NewTicker(sweepInterval)
	m.wg.Add(1)
	go m.sweepWorker()

	m.flushTicker = time.NewTicker(counterFlushInterval)
	m.wg.Add(1)
	go m.flushWorker()

	log.Info("[Maintenance] Started successfully")
}

// Stop stops the background tickers and waits for workers to exit
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Maintenance] Stopping background tasks...")

	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
	}
	if m.flushTicker != nil {
		m.flushTicker.Stop()
	}

	close(m.stopCh)
	m.running = false
	m.wg.Wait()
	log.Info("[Maintenance] Stopped")
}

// RunSweepNow triggers one expiry sweep immediately (admin endpoint path).
func (m *Manager) RunSweepNow() (int64, error) {
	return m.ledger.ExpireDue(time.Now())
}

func (m *Manager) sweepWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.sweepTicker.C:
			expired, err := m.ledger.ExpireDue(time.Now())
			if err != nil {
				log.Errorf("[Maintenance] subscription sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				log.Infof("[Maintenance] expired %d subscriptions", expired)
			}
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) flushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.flushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[Maintenance] counter flush failed: %v", err)
			}
		case <-m.stopCh:
			return
		}
	}
}
