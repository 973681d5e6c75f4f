package server

import (
	"sync"
	"time"
)

type serverMetrics struct {
	mu            sync.RWMutex
	totalRequests int64
	activeReqs    int64
	failures      int64
	extractions   map[string]int64 // by document kind
	fileTypes     map[string]int64
	bytes         int64
	totalDuration time.Duration
}

type metricsSnapshot struct {
	ActiveRequests   int64            `json:"activeRequests"`
	TotalRequests    int64            `json:"totalRequests"`
	Failures         int64            `json:"failures"`
	Extractions      map[string]int64 `json:"extractions"`
	FileTypes        map[string]int64 `json:"fileTypes"`
	BytesProcessed   int64            `json:"bytesProcessed"`
	AvgExtractMillis int64            `json:"avgExtractMs"`
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{
		extractions: make(map[string]int64),
		fileTypes:   make(map[string]int64),
	}
}

func (m *serverMetrics) incActive() {
	m.mu.Lock()
	m.activeReqs++
	m.totalRequests++
	m.mu.Unlock()
}

func (m *serverMetrics) decActive() {
	m.mu.Lock()
	m.activeReqs--
	m.mu.Unlock()
}

func (m *serverMetrics) incFailures() {
	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}

func (m *serverMetrics) recordSuccess(docType, fileType string, size int64, d time.Duration) {
	m.mu.Lock()
	m.extractions[docType]++
	m.fileTypes[fileType]++
	m.bytes += size
	m.totalDuration += d
	m.mu.Unlock()
}

func (m *serverMetrics) active() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeReqs
}

func (m *serverMetrics) snapshot() metricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := metricsSnapshot{
		ActiveRequests: m.activeReqs,
		TotalRequests:  m.totalRequests,
		Failures:       m.failures,
		Extractions:    make(map[string]int64, len(m.extractions)),
		FileTypes:      make(map[string]int64, len(m.fileTypes)),
		BytesProcessed: m.bytes,
	}
	var n int64
	for k, v := range m.extractions {
		snap.Extractions[k] = v
		n += v
	}
	for k, v := range m.fileTypes {
		snap.FileTypes[k] = v
	}
	if n > 0 {
		snap.AvgExtractMillis = (m.totalDuration / time.Duration(n)).Milliseconds()
	}
	return snap
}
