package analyzer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/contentpulse/backend/corpus"
)

// countingRepo wraps a memory corpus and counts Published calls.
type countingRepo struct {
	inner *corpus.Memory
	calls int
}

func (r *countingRepo) Published(ctx context.Context, excludeID string) ([]corpus.Entry, error) {
	r.calls++
	return r.inner.Published(ctx, excludeID)
}

// failingRepo simulates a corpus backend outage.
type failingRepo struct{}

func (failingRepo) Published(context.Context, string) ([]corpus.Entry, error) {
	return nil, errors.New("connection refused")
}

func newTestAnalyzer(repo corpus.Repository) *Analyzer {
	return New(repo, DefaultConfig(), nil, zerolog.Nop())
}

func TestAnalyzeEndToEnd(t *testing.T) {
	a := newTestAnalyzer(corpus.NewMemory())

	result, err := a.Analyze(context.Background(), "<h1>Title</h1><p>Short content.</p>", Options{
		ContentType: "guide",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !result.Headings.IsValid {
		t.Errorf("single H1 should be valid, issues: %v", result.Headings.Issues)
	}
	if result.ContentLength.Status != LengthTooShort {
		t.Errorf("length status = %q, want too-short", result.ContentLength.Status)
	}
	if result.ContentLength.RecommendedRange != (LengthRange{Min: 2000, Max: 4000}) {
		t.Errorf("guide range = %+v", result.ContentLength.RecommendedRange)
	}
	if result.Images.ComplianceScore != 100 {
		t.Errorf("no images should score 100, got %f", result.Images.ComplianceScore)
	}
	if len(result.InternalLinking.Warnings) == 0 {
		t.Error("empty corpus should add a linking warning")
	}

	// readability 62.79, headings 100, length 50, keywords 50 (neutral),
	// images 100, linking 100, weighted and rounded.
	if result.OverallScore != 76 {
		t.Errorf("overall score = %f, want 76", result.OverallScore)
	}

	var shortWarning bool
	for _, w := range result.Warnings {
		if strings.Contains(w, "very short") {
			shortWarning = true
		}
	}
	if !shortWarning {
		t.Errorf("expected a short-content warning, got %v", result.Warnings)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	a := newTestAnalyzer(corpus.NewMemory())
	content := `<h1>Caching guide</h1><p>caching caching caching makes pages fast. Fast pages keep readers around.</p>`
	opts := Options{ContentType: "news", TargetKeywords: []string{"caching"}}

	first, err := a.Analyze(context.Background(), content, opts)
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	a.ClearCache()
	second, err := a.Analyze(context.Background(), content, opts)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated analysis differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAnalyzeUsesCache(t *testing.T) {
	repo := &countingRepo{inner: corpus.NewMemory()}
	a := newTestAnalyzer(repo)
	content := "<h1>T</h1><p>body text here.</p>"

	if _, err := a.Analyze(context.Background(), content, Options{}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := a.Analyze(context.Background(), content, Options{}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("corpus queried %d times, want 1 (second request cached)", repo.calls)
	}

	// Different options must miss the cache.
	if _, err := a.Analyze(context.Background(), content, Options{TargetKeywords: []string{"body"}}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if repo.calls != 2 {
		t.Errorf("corpus queried %d times, want 2 after an option change", repo.calls)
	}

	if stats := a.GetCacheStats(); stats.Entries != 2 {
		t.Errorf("cache entries = %d, want 2", stats.Entries)
	}
}

func TestAnalyzeCorpusFailureDegradesGracefully(t *testing.T) {
	a := newTestAnalyzer(failingRepo{})

	result, err := a.Analyze(context.Background(), "<h1>T</h1><p>golang golang server tips.</p>", Options{})
	if err != nil {
		t.Fatalf("corpus outage must not fail the analysis: %v", err)
	}

	if result.InternalLinking.Suggestions == nil || len(result.InternalLinking.Suggestions) != 0 {
		t.Errorf("suggestions should be empty, got %v", result.InternalLinking.Suggestions)
	}
	var warned bool
	for _, w := range result.Warnings {
		if strings.Contains(w, "corpus lookup failed") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected a corpus warning, got %v", result.Warnings)
	}
	if result.OverallScore <= 0 {
		t.Errorf("other sections should still score, got %f", result.OverallScore)
	}
}

func TestAnalyzeEmptyContent(t *testing.T) {
	a := newTestAnalyzer(corpus.NewMemory())

	result, err := a.Analyze(context.Background(), "", Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "empty") {
		t.Errorf("expected an empty-content warning, got %v", result.Warnings)
	}
	if result.Headings.IsValid {
		t.Error("empty content has no H1 and should be invalid")
	}
}

func TestSetMaxCacheSizeEvicts(t *testing.T) {
	a := newTestAnalyzer(corpus.NewMemory())
	ctx := context.Background()

	contents := []string{"<p>alpha one.</p>", "<p>beta two.</p>", "<p>gamma three.</p>"}
	for _, c := range contents {
		if _, err := a.Analyze(ctx, c, Options{}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}

	a.SetMaxCacheSize(1)
	if stats := a.GetCacheStats(); stats.Entries != 1 {
		t.Errorf("cache entries after shrink = %d, want 1", stats.Entries)
	}
}

func TestAnalyzeConcurrentWithCacheMaintenance(t *testing.T) {
	a := newTestAnalyzer(corpus.NewMemory())
	a.SetCacheTTL(time.Nanosecond) // keep the cleanup path busy
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			content := fmt.Sprintf("<h1>T</h1><p>worker %d body text.</p>", n)
			for j := 0; j < 25; j++ {
				if _, err := a.Analyze(ctx, content, Options{}); err != nil {
					t.Errorf("Analyze: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 25; j++ {
			a.SetMaxCacheSize(1 + j%3)
			a.SetCacheTTL(time.Duration(1+j) * time.Millisecond)
			a.GetCacheStats()
		}
	}()
	wg.Wait()
}

func TestHeadingSubScore(t *testing.T) {
	if got := headingSubScore(HeadingAnalysis{IsValid: true}); got != 100 {
		t.Errorf("valid hierarchy sub-score = %f, want 100", got)
	}

	twoErrors := HeadingAnalysis{Issues: []HeadingIssue{
		{Type: IssueError}, {Type: IssueError}, {Type: IssueWarning},
	}}
	if got := headingSubScore(twoErrors); got != 50 {
		t.Errorf("two errors sub-score = %f, want 50", got)
	}

	fiveErrors := HeadingAnalysis{Issues: []HeadingIssue{
		{Type: IssueError}, {Type: IssueError}, {Type: IssueError},
		{Type: IssueError}, {Type: IssueError},
	}}
	if got := headingSubScore(fiveErrors); got != 0 {
		t.Errorf("sub-score must floor at 0, got %f", got)
	}
}

func TestKeywordSubScore(t *testing.T) {
	if got := keywordSubScore(KeywordAnalysis{}); got != 50 {
		t.Errorf("no keywords sub-score = %f, want neutral 50", got)
	}

	k := KeywordAnalysis{TopKeywords: []KeywordDensity{
		{Classification: KeywordOptimal},
		{Classification: KeywordOptimal},
		{Classification: KeywordHigh},
		{Classification: KeywordLow},
	}}
	if got := keywordSubScore(k); got != 50 {
		t.Errorf("2 of 4 optimal sub-score = %f, want 50", got)
	}
}

func TestBuildSummary(t *testing.T) {
	r := &Result{
		Readability: ReadabilityAnalysis{Score: 80, FleschReadingEase: 80},
		Headings: HeadingAnalysis{IsValid: true, Headings: []HeadingNode{
			{Text: "T", Level: 1},
		}},
		ContentLength: LengthAnalysis{
			Status:           LengthTooShort,
			ContentType:      TypeNews,
			RecommendedRange: LengthRange{Min: 300, Max: 800},
		},
		Images:          ImageAnalysis{TotalImages: 2, ValidImages: 1, ComplianceScore: 50, Issues: []ImageIssue{{Issue: ImageMissingAlt}}},
		InternalLinking: LinkAnalysis{Status: LinkingOptimal},
	}

	s := buildSummary(r)
	if len(s.Strengths) != 2 {
		t.Errorf("strengths = %v, want readability and headings", s.Strengths)
	}
	if len(s.Issues) != 2 {
		t.Errorf("issues = %v, want length and images", s.Issues)
	}
	if len(s.PriorityFixes) != 0 {
		t.Errorf("unexpected priority fixes: %v", s.PriorityFixes)
	}
	if len(s.QuickWins) != 2 {
		t.Errorf("quick wins = %v, want length and alt text fixes", s.QuickWins)
	}
}

func TestApplyNeutralDefaults(t *testing.T) {
	a := newTestAnalyzer(corpus.NewMemory())
	result := &Result{}

	a.applyNeutralDefaults(result, "readability", nil)
	if result.Readability.Score != 50 {
		t.Errorf("neutral readability score = %f, want 50", result.Readability.Score)
	}
	a.applyNeutralDefaults(result, "headings", nil)
	if !result.Headings.IsValid {
		t.Error("neutral headings should be valid")
	}
	a.applyNeutralDefaults(result, "images", nil)
	if result.Images.ComplianceScore != 100 {
		t.Errorf("neutral image score = %f, want 100", result.Images.ComplianceScore)
	}
	a.applyNeutralDefaults(result, "linking", nil)
	if result.InternalLinking.Status != LinkingOptimal {
		t.Errorf("neutral linking status = %q", result.InternalLinking.Status)
	}
}
