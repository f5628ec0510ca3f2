package analyzer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/contentpulse/backend/corpus"
	"github.com/contentpulse/backend/stats"
)

// Aggregate score weights. These are part of the scoring contract, not
// tuning suggestions.
const (
	weightReadability = 0.25
	weightHeadings    = 0.20
	weightLength      = 0.15
	weightKeywords    = 0.15
	weightImages      = 0.15
	weightLinking     = 0.10
)

// Content shorter than this many words triggers an input warning.
const shortContentWords = 100

type cacheEntry struct {
	result    *Result
	timestamp time.Time
}

// CacheStats describes the analyzer's in-memory result cache.
type CacheStats struct {
	Entries      int           `json:"entries"`
	Hits         int           `json:"hits"`
	Misses       int           `json:"misses"`
	TTL          time.Duration `json:"ttl"`
	MaxEntries   int           `json:"maxEntries"`
	CorpusHits   int           `json:"corpusHits"`
	CorpusMisses int           `json:"corpusMisses"`
}

// Analyzer runs the full content optimization pipeline for one document at
// a time. It is safe for concurrent use.
type Analyzer struct {
	corpus corpus.Repository
	cfg    Config
	log    zerolog.Logger
	stats  *stats.Storage

	cache           map[string]cacheEntry
	cacheMutex      sync.RWMutex
	cacheTTL        time.Duration
	maxCacheSize    int
	cleanupInterval time.Duration
	lastCleanup     time.Time
}

// New creates an Analyzer over the given corpus repository. Zeroed config
// sections fall back to DefaultConfig; statsStorage may be nil.
func New(repo corpus.Repository, cfg Config, statsStorage *stats.Storage, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		corpus:          repo,
		cfg:             withDefaults(cfg),
		log:             logger,
		stats:           statsStorage,
		cache:           make(map[string]cacheEntry),
		cacheTTL:        30 * time.Minute,
		maxCacheSize:    1000,
		cleanupInterval: 5 * time.Minute,
		lastCleanup:     time.Now(),
	}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Keyword == (KeywordConfig{}) {
		cfg.Keyword = def.Keyword
	}
	if cfg.Image == (ImageConfig{}) {
		cfg.Image = def.Image
	}
	if cfg.Link.MaxSuggestions == 0 {
		cfg.Link.MaxSuggestions = def.Link.MaxSuggestions
	}
	if cfg.Link.MinRelevanceScore == 0 {
		cfg.Link.MinRelevanceScore = def.Link.MinRelevanceScore
	}
	return cfg
}

// SetCacheTTL adjusts how long analysis results are kept.
func (a *Analyzer) SetCacheTTL(ttl time.Duration) {
	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()
	a.cacheTTL = ttl
}

// SetMaxCacheSize bounds the number of cached results.
func (a *Analyzer) SetMaxCacheSize(size int) {
	a.cacheMutex.Lock()
	a.maxCacheSize = size
	a.cacheMutex.Unlock()
	a.cleanupCache()
}

// ClearCache drops every cached result.
func (a *Analyzer) ClearCache() {
	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()
	a.cache = make(map[string]cacheEntry)
}

// GetCacheStats reports cache occupancy and hit counters.
func (a *Analyzer) GetCacheStats() CacheStats {
	a.cacheMutex.RLock()
	cs := CacheStats{
		Entries:    len(a.cache),
		TTL:        a.cacheTTL,
		MaxEntries: a.maxCacheSize,
	}
	a.cacheMutex.RUnlock()

	if a.stats != nil {
		current := a.stats.GetCurrentStats()
		cs.Hits = current.CacheHits
		cs.Misses = current.CacheMisses
		cs.CorpusHits = current.CorpusCacheHits
		cs.CorpusMisses = current.CorpusCacheMisses
	}
	return cs
}

// Analyze runs the full pipeline, serving repeated requests for identical
// content and options from the result cache.
func (a *Analyzer) Analyze(ctx context.Context, content string, opts Options) (*Result, error) {
	key := cacheKey(content, opts)

	a.cacheMutex.RLock()
	ttl := a.cacheTTL
	needsCleanup := time.Since(a.lastCleanup) > a.cleanupInterval
	entry, found := a.cache[key]
	a.cacheMutex.RUnlock()

	if needsCleanup {
		go a.cleanupCache()
	}

	if found && time.Since(entry.timestamp) < ttl {
		a.recordCache(true)
		return entry.result, nil
	}
	a.recordCache(false)

	result, err := a.run(ctx, content, opts)
	if err != nil {
		return nil, err
	}

	a.cacheMutex.Lock()
	a.cache[key] = cacheEntry{result: result, timestamp: time.Now()}
	a.cacheMutex.Unlock()

	return result, nil
}

// run executes the six analyzers, five concurrently as pure functions of
// the document plus the link engine which reads the corpus. A panic in any
// one analyzer degrades that section to a neutral default instead of
// failing the request.
func (a *Analyzer) run(ctx context.Context, content string, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{}

	plain := StripMarkup(content)
	words := Tokenize(plain)

	var inputWarnings []string
	if strings.TrimSpace(content) == "" {
		inputWarnings = append(inputWarnings, "content is empty; analysis results will be limited")
	} else if wc := WordCount(plain); wc < shortContentWords {
		inputWarnings = append(inputWarnings, fmt.Sprintf("content is very short (%d words); scores may be unreliable", wc))
	}

	var degraded sync.Map
	var wg sync.WaitGroup
	runSection := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.log.Error().Str("analyzer", name).Interface("panic", r).Msg("analyzer panicked")
					degraded.Store(name, true)
				}
			}()
			fn()
		}()
	}

	runSection("keywords", func() {
		result.Keywords = AnalyzeKeywords(words, opts.TargetKeywords, a.cfg.Keyword)
	})
	runSection("headings", func() {
		result.Headings = AnalyzeHeadings(content)
	})
	runSection("readability", func() {
		result.Readability = AnalyzeReadability(plain)
	})
	runSection("images", func() {
		result.Images = AnalyzeImages(content, a.cfg.Image)
	})
	runSection("length", func() {
		result.ContentLength = AnalyzeLength(plain, opts.ContentType)
	})

	var corpusErr error
	runSection("linking", func() {
		entries, err := a.corpus.Published(ctx, opts.ExcludeDocumentID)
		if err != nil {
			corpusErr = err
			result.InternalLinking = existingLinkProfile(content, plain)
			result.InternalLinking.Suggestions = []LinkSuggestion{}
			return
		}
		result.InternalLinking = AnalyzeLinking(entries, content, plain, a.cfg.Link)
	})

	wg.Wait()

	result.Warnings = append(result.Warnings, inputWarnings...)
	for _, name := range []string{"keywords", "headings", "readability", "images", "length", "linking"} {
		if _, wasDegraded := degraded.Load(name); wasDegraded {
			a.applyNeutralDefaults(result, name, words)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s analysis failed and was skipped; its score is neutral", name))
		}
	}
	if corpusErr != nil {
		a.log.Warn().Err(corpusErr).Msg("corpus lookup failed; internal link suggestions degraded")
		result.Warnings = append(result.Warnings,
			"internal link suggestions unavailable: corpus lookup failed")
	}
	if a.stats != nil && (corpusErr != nil || anyDegraded(&degraded)) {
		a.stats.RecordDegraded()
	}

	result.OverallScore = a.overallScore(result)
	result.Summary = buildSummary(result)

	a.log.Debug().
		Float64("overallScore", result.OverallScore).
		Int("words", len(words)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")

	return result, nil
}

func anyDegraded(m *sync.Map) bool {
	found := false
	m.Range(func(_, _ interface{}) bool {
		found = true
		return false
	})
	return found
}

// applyNeutralDefaults replaces a failed section with values that neither
// reward nor punish the document.
func (a *Analyzer) applyNeutralDefaults(result *Result, section string, words []string) {
	switch section {
	case "keywords":
		result.Keywords = KeywordAnalysis{TotalWords: len(words)}
	case "headings":
		result.Headings = HeadingAnalysis{IsValid: true}
	case "readability":
		result.Readability = ReadabilityAnalysis{Score: 50, Classification: "standard"}
	case "images":
		result.Images = ImageAnalysis{ComplianceScore: 100}
	case "length":
		_, target := TargetRange("")
		result.ContentLength = LengthAnalysis{Status: LengthOptimal, ContentType: TypeDefault, RecommendedRange: target}
	case "linking":
		result.InternalLinking = LinkAnalysis{Status: LinkingOptimal, Suggestions: []LinkSuggestion{}}
	}
}

// overallScore combines the six sub-scores with fixed weights and rounds
// to the nearest integer value.
func (a *Analyzer) overallScore(r *Result) float64 {
	score := weightReadability*r.Readability.Score +
		weightHeadings*headingSubScore(r.Headings) +
		weightLength*lengthScore(r.ContentLength) +
		weightKeywords*keywordSubScore(r.Keywords) +
		weightImages*r.Images.ComplianceScore +
		weightLinking*linkingSubScore(r.InternalLinking)
	return math.Round(score)
}

func headingSubScore(h HeadingAnalysis) float64 {
	if h.IsValid {
		return 100
	}
	score := 100 - 25*float64(headingErrorCount(h))
	if score < 0 {
		return 0
	}
	return score
}

// keywordSubScore is the share of top keywords sitting in the optimal
// density band. With no top keywords at all the section is neutral.
func keywordSubScore(k KeywordAnalysis) float64 {
	if len(k.TopKeywords) == 0 {
		return 50
	}
	optimal := 0
	for _, entry := range k.TopKeywords {
		if entry.Classification == KeywordOptimal {
			optimal++
		}
	}
	return float64(optimal) / float64(len(k.TopKeywords)) * 100
}

func linkingSubScore(l LinkAnalysis) float64 {
	if l.Status == LinkingOptimal {
		return 100
	}
	return 75
}

// buildSummary inspects each section and sorts findings into strengths,
// issues, priority fixes and quick wins.
func buildSummary(r *Result) Summary {
	s := Summary{
		Strengths:     []string{},
		Issues:        []string{},
		PriorityFixes: []string{},
		QuickWins:     []string{},
	}

	// Readability
	switch {
	case r.Readability.Score >= 70:
		s.Strengths = append(s.Strengths,
			fmt.Sprintf("Content is easy to read (reading ease %.0f)", r.Readability.FleschReadingEase))
	case r.Readability.Score < 50:
		s.Issues = append(s.Issues,
			fmt.Sprintf("Content is hard to read (%s)", r.Readability.Classification))
	}
	if r.Readability.FleschReadingEase < 30 && r.Readability.FleschReadingEase > 0 {
		s.PriorityFixes = append(s.PriorityFixes,
			"Rewrite the most complex sentences; readability is in the lowest band")
	} else if r.Readability.FleschKincaidGradeLevel > 12 {
		s.PriorityFixes = append(s.PriorityFixes,
			"Lower the reading grade level below 12 by shortening sentences and simplifying vocabulary")
	}

	// Headings
	if r.Headings.IsValid && len(r.Headings.Headings) > 0 {
		s.Strengths = append(s.Strengths, "Heading structure is well organized")
	}
	for _, issue := range r.Headings.Issues {
		if issue.Type != IssueError {
			continue
		}
		s.Issues = append(s.Issues, issue.Message)
		if issue.Message == "Missing H1 heading" {
			s.PriorityFixes = append(s.PriorityFixes, "Add a single H1 heading at the top of the document")
		} else if issue.SuggestedLevel > 0 {
			s.PriorityFixes = append(s.PriorityFixes,
				fmt.Sprintf("Fix the skipped heading level (use H%d)", issue.SuggestedLevel))
		}
	}

	// Content length
	switch r.ContentLength.Status {
	case LengthOptimal:
		s.Strengths = append(s.Strengths,
			fmt.Sprintf("Content length fits the %s target", r.ContentLength.ContentType))
	case LengthTooShort:
		s.Issues = append(s.Issues,
			fmt.Sprintf("Content is shorter than the %d-word minimum for %s content",
				r.ContentLength.RecommendedRange.Min, r.ContentLength.ContentType))
		s.QuickWins = append(s.QuickWins,
			fmt.Sprintf("Expand the content toward %d words", r.ContentLength.RecommendedRange.Min))
	case LengthTooLong:
		s.Issues = append(s.Issues, "Content runs past the recommended maximum length")
	}

	// Keywords
	excessive := []string{}
	for _, entry := range r.Keywords.TopKeywords {
		if entry.Classification == KeywordExcessive {
			excessive = append(excessive, entry.Keyword)
		}
	}
	sort.Strings(excessive)
	if len(excessive) > 0 {
		s.Issues = append(s.Issues,
			fmt.Sprintf("Keyword stuffing detected: %s", strings.Join(excessive, ", ")))
		s.PriorityFixes = append(s.PriorityFixes, "Reduce the density of over-used keywords")
	} else if score := keywordSubScore(r.Keywords); score >= 60 && len(r.Keywords.TopKeywords) > 0 {
		s.Strengths = append(s.Strengths, "Keyword usage is balanced")
	}
	for _, target := range r.Keywords.TargetKeywords {
		if target.Classification == KeywordLow {
			s.QuickWins = append(s.QuickWins,
				fmt.Sprintf("Work the target keyword %q into the copy more often", target.Keyword))
		}
	}

	// Images
	if r.Images.TotalImages > 0 {
		if r.Images.ComplianceScore >= 90 {
			s.Strengths = append(s.Strengths, "Images have descriptive alt text")
		} else {
			issueCount := len(r.Images.Issues)
			s.Issues = append(s.Issues,
				fmt.Sprintf("%d of %d images have alt text problems", issueCount, r.Images.TotalImages))
			s.QuickWins = append(s.QuickWins,
				fmt.Sprintf("Fix alt text on %d image(s)", issueCount))
		}
	}

	// Internal linking
	if len(r.InternalLinking.Suggestions) > 0 {
		s.QuickWins = append(s.QuickWins,
			fmt.Sprintf("Add %d suggested internal link(s)", len(r.InternalLinking.Suggestions)))
	}
	if r.InternalLinking.Status != LinkingOptimal {
		s.QuickWins = append(s.QuickWins, "Adjust internal link frequency for this length of content")
	}

	return s
}

func (a *Analyzer) recordCache(hit bool) {
	if a.stats == nil {
		return
	}
	if hit {
		a.stats.CacheHit()
	} else {
		a.stats.CacheMiss()
	}
}

// cacheKey fingerprints the content plus every option that affects the
// result.
func cacheKey(content string, opts Options) string {
	h := md5.New()
	h.Write([]byte(content))
	h.Write([]byte{0})
	h.Write([]byte(opts.Title))
	h.Write([]byte{0})
	h.Write([]byte(opts.ContentType))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(opts.TargetKeywords, ",")))
	h.Write([]byte{0})
	h.Write([]byte(opts.ExcludeDocumentID))
	return hex.EncodeToString(h.Sum(nil))
}

// cleanupCache evicts expired entries, then the oldest entries past the
// size limit.
func (a *Analyzer) cleanupCache() {
	now := time.Now()

	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()

	for key, entry := range a.cache {
		if now.Sub(entry.timestamp) > a.cacheTTL {
			delete(a.cache, key)
		}
	}

	if len(a.cache) > a.maxCacheSize {
		type aged struct {
			key       string
			timestamp time.Time
		}
		entries := make([]aged, 0, len(a.cache))
		for key, entry := range a.cache {
			entries = append(entries, aged{key, entry.timestamp})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].timestamp.Before(entries[j].timestamp)
		})
		for i := 0; i < len(entries)-a.maxCacheSize; i++ {
			delete(a.cache, entries[i].key)
		}
	}

	a.lastCleanup = now
}

// Shutdown flushes collected statistics. The analyzer itself holds no
// other persistent state.
func (a *Analyzer) Shutdown() error {
	if a == nil {
		return nil
	}
	a.ClearCache()
	if a.stats != nil {
		if err := a.stats.Shutdown(); err != nil {
			return fmt.Errorf("shutdown stats storage: %w", err)
		}
	}
	return nil
}
