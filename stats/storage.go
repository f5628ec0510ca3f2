// Package stats persists monthly usage counters for the analysis service
// to a JSON file, written in the background and flushed on shutdown.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats represents the counters for a specific month.
type MonthlyStats struct {
	Analyses          int       `json:"analyses"`
	Errors            int       `json:"errors"`
	DegradedRuns      int       `json:"degraded_runs"`
	CacheHits         int       `json:"cache_hits"`
	CacheMisses       int       `json:"cache_misses"`
	CorpusCacheHits   int       `json:"corpus_cache_hits"`
	CorpusCacheMisses int       `json:"corpus_cache_misses"`
	TotalDurationMs   float64   `json:"total_duration_ms"`
	LastUpdated       time.Time `json:"last_updated"`
}

// AverageDurationMs is the mean analysis time for the month.
func (m MonthlyStats) AverageDurationMs() float64 {
	if m.Analyses == 0 {
		return 0
	}
	return m.TotalDurationMs / float64(m.Analyses)
}

type statsFile struct {
	Months   map[string]*MonthlyStats `json:"months"`
	Visitors map[string]time.Time     `json:"visitors"`
}

// Storage handles persistent storage of usage statistics.
type Storage struct {
	mutex       sync.RWMutex
	months      map[string]*MonthlyStats // key: "YYYY-MM"
	visitors    map[string]time.Time     // IP -> last seen
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// NewStorage creates a statistics storage backed by stats.json in dataDir.
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Storage{
		months:      make(map[string]*MonthlyStats),
		visitors:    make(map[string]time.Time),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file statsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if file.Months != nil {
		s.months = file.Months
	}
	if file.Visitors != nil {
		s.visitors = file.Visitors
	}
	return nil
}

func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(statsFile{Months: s.months, Visitors: s.visitors})
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	// Write to a temporary file, then rename into place atomically.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("write temporary stats file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("rename stats file: %w", err)
	}
	return nil
}

func (s *Storage) backgroundWriter() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			s.save()
		case <-ticker.C:
			s.save()
		case <-s.done:
			return
		}
	}
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}

// requestWrite signals that a write to disk is needed; a pending request
// absorbs further signals.
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

func (s *Storage) month() *MonthlyStats {
	key := currentMonth()
	m, exists := s.months[key]
	if !exists {
		m = &MonthlyStats{}
		s.months[key] = m
	}
	return m
}

// RecordAnalysis counts one completed analysis and its duration.
func (s *Storage) RecordAnalysis(duration time.Duration, failed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.month()
	m.Analyses++
	if failed {
		m.Errors++
	}
	m.TotalDurationMs += float64(duration.Milliseconds())
	m.LastUpdated = time.Now()

	s.throttledWriteLocked()
}

// RecordDegraded counts an analysis where at least one section fell back to
// neutral defaults.
func (s *Storage) RecordDegraded() {
	s.bump(func(m *MonthlyStats) { m.DegradedRuns++ })
}

// CacheHit counts a result cache hit.
func (s *Storage) CacheHit() { s.bump(func(m *MonthlyStats) { m.CacheHits++ }) }

// CacheMiss counts a result cache miss.
func (s *Storage) CacheMiss() { s.bump(func(m *MonthlyStats) { m.CacheMisses++ }) }

// CorpusCacheHit counts a corpus cache hit. Satisfies corpus.Metrics.
func (s *Storage) CorpusCacheHit() { s.bump(func(m *MonthlyStats) { m.CorpusCacheHits++ }) }

// CorpusCacheMiss counts a corpus cache miss. Satisfies corpus.Metrics.
func (s *Storage) CorpusCacheMiss() { s.bump(func(m *MonthlyStats) { m.CorpusCacheMisses++ }) }

func (s *Storage) bump(apply func(*MonthlyStats)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.month()
	apply(m)
	m.LastUpdated = time.Now()
	s.throttledWriteLocked()
}

func (s *Storage) throttledWriteLocked() {
	if time.Since(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = time.Now()
	}
}

// TrackVisitor records when an IP was last seen.
func (s *Storage) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visitors[ip] = time.Now()
}

// UniqueVisitors24h counts visitors seen within the last day.
func (s *Storage) UniqueVisitors24h() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cutoff := time.Now().Add(-24 * time.Hour)
	count := 0
	for _, lastSeen := range s.visitors {
		if lastSeen.After(cutoff) {
			count++
		}
	}
	return count
}

// GetCurrentStats returns the counters for the current month.
func (s *Storage) GetCurrentStats() MonthlyStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, exists := s.months[currentMonth()]; exists {
		return *m
	}
	return MonthlyStats{}
}

// GetMonthlyStats returns the counters for a specific "YYYY-MM" month.
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, exists := s.months[yearMonth]; exists {
		return *m, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns the months with recorded statistics, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.months))
	for month := range s.months {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Snapshot returns the statistics exposed over HTTP. Detailed counters are
// only included in dev mode; production callers see the aggregate view.
func (s *Storage) Snapshot(devMode bool) map[string]interface{} {
	current := s.GetCurrentStats()

	errorRate := 0.0
	if current.Analyses > 0 {
		errorRate = float64(current.Errors) / float64(current.Analyses) * 100
	}

	snapshot := map[string]interface{}{
		"uniqueVisitors24h": s.UniqueVisitors24h(),
		"analyses":          current.Analyses,
		"errorRate":         errorRate,
		"averageDurationMs": current.AverageDurationMs(),
	}
	if devMode {
		snapshot["degradedRuns"] = current.DegradedRuns
		snapshot["cacheHits"] = current.CacheHits
		snapshot["cacheMisses"] = current.CacheMisses
		snapshot["corpusCacheHits"] = current.CorpusCacheHits
		snapshot["corpusCacheMisses"] = current.CorpusCacheMisses
		snapshot["months"] = s.GetAllMonths()
	}
	return snapshot
}

// Cleanup keeps only the current and previous month of counters. Visitor
// entries older than a day are dropped at the same time.
func (s *Storage) Cleanup() {
	now := time.Now()
	currentKey := now.Format("2006-01")
	previousKey := now.AddDate(0, -1, 0).Format("2006-01")

	s.mutex.Lock()
	for key := range s.months {
		if key != currentKey && key != previousKey {
			delete(s.months, key)
		}
	}
	cutoff := now.Add(-24 * time.Hour)
	for ip, lastSeen := range s.visitors {
		if lastSeen.Before(cutoff) {
			delete(s.visitors, ip)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
}

// Shutdown stops the background writer and flushes counters to disk.
func (s *Storage) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.save()
	})
	return err
}
