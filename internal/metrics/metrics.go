package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	CyclesCompleted int64
	ArticlesSent    int64
	ArticlesEdited  int64
	ArticlesSkipped int64
	SendFailures    int64
	ImageFailures   int64
	ArticlesPruned  int64

	// Timings
	LastCycleTime time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesSent++
}

func (m *Metrics) IncrementEdited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesEdited++
}

func (m *Metrics) IncrementSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesSkipped++
}

func (m *Metrics) IncrementSendFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendFailures++
}

func (m *Metrics) IncrementImageFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImageFailures++
}

func (m *Metrics) AddPruned(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesPruned += n
}

func (m *Metrics) RecordCycle(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CyclesCompleted++
	m.LastCycleTime = duration
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

// GetStats returns a snapshot for the monitoring endpoints.
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"cycles_completed": m.CyclesCompleted,
		"articles_sent":    m.ArticlesSent,
		"articles_edited":  m.ArticlesEdited,
		"articles_skipped": m.ArticlesSkipped,
		"send_failures":    m.SendFailures,
		"image_failures":   m.ImageFailures,
		"articles_pruned":  m.ArticlesPruned,
		"last_cycle_ms":    m.LastCycleTime.Milliseconds(),
		"last_run_time":    m.LastRunTime,
		"last_error":       m.LastError,
		"last_error_time":  m.LastErrorTime,
		"is_healthy":       m.IsHealthy,
	}
}
