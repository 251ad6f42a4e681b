package sync

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/batizy/chantierpro/internal/remote"
)

// Monitor tracks reachability of the remote authority by probing its REST
// root on a fixed interval. When the remote is not configured the monitor is
// inert and permanently reports offline; the rest of the sync layer then runs
// in local-only mode.
type Monitor struct {
	remote     *remote.Client
	configured bool
	interval   time.Duration

	mu     sync.Mutex
	online bool

	onReconnect func()

	stopChan chan struct{}
	running  bool
}

// NewMonitor creates a connectivity monitor probing at the given interval
func NewMonitor(rc *remote.Client, configured bool, interval time.Duration) *Monitor {
	return &Monitor{
		remote:     rc,
		configured: configured,
		interval:   interval,
		stopChan:   make(chan struct{}),
	}
}

// Online reports the last observed connectivity state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnReconnect registers the callback invoked on each offline-to-online
// transition. Must be called before Start.
func (m *Monitor) SetOnReconnect(fn func()) {
	m.onReconnect = fn
}

// Start launches the probe loop. A no-op when the remote is not configured.
func (m *Monitor) Start() {
	if !m.configured {
		log.Println("📴 Monitor: remote not configured, running in local-only mode")
		return
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	log.Printf("🔌 Monitor: probing remote every %s", m.interval)
	go m.loop()
}

// Stop terminates the probe loop
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stopChan)
}

func (m *Monitor) loop() {
	m.probe()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probe()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reachable := m.remote.Ping(ctx) == nil

	m.mu.Lock()
	wasOnline := m.online
	m.online = reachable
	m.mu.Unlock()

	switch {
	case reachable && !wasOnline:
		log.Println("✅ Monitor: remote is reachable")
		if m.onReconnect != nil {
			go m.onReconnect()
		}
	case !reachable && wasOnline:
		log.Println("📴 Monitor: remote connection lost, queueing writes locally")
	}
}
