package analyzer

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/contentpulse/backend/corpus"
)

func TestAnalyzeLinkingEmptyCorpus(t *testing.T) {
	content := "<p>golang golang powers the backend.</p>"
	analysis := AnalyzeLinking(nil, content, StripMarkup(content), DefaultConfig().Link)

	if len(analysis.Suggestions) != 0 {
		t.Errorf("expected no suggestions, got %v", analysis.Suggestions)
	}
	if len(analysis.Warnings) != 1 {
		t.Fatalf("expected a corpus warning, got %v", analysis.Warnings)
	}
	if !strings.Contains(analysis.Warnings[0], "no published documents") {
		t.Errorf("unexpected warning: %q", analysis.Warnings[0])
	}
}

func TestAnalyzeLinkingSuggestsFromTitleMatch(t *testing.T) {
	content := "<p>golang golang is great for writing servers.</p>"
	entries := []corpus.Entry{
		{ID: "p1", Slug: "advanced-golang", Title: "Advanced golang patterns"},
		{ID: "p2", Slug: "unrelated", Title: "Gardening for beginners"},
	}

	analysis := AnalyzeLinking(entries, content, StripMarkup(content), DefaultConfig().Link)
	if len(analysis.Suggestions) != 1 {
		t.Fatalf("expected one suggestion, got %v", analysis.Suggestions)
	}

	s := analysis.Suggestions[0]
	if s.TargetID != "p1" || s.AnchorText != "golang" {
		t.Errorf("unexpected suggestion %+v", s)
	}
	// Title match (+40) scaled by keyword confidence (0.8).
	if math.Abs(s.RelevanceScore-32) > 1e-6 {
		t.Errorf("relevance = %f, want 32", s.RelevanceScore)
	}
	if !strings.Contains(s.Reason, "title mentions") {
		t.Errorf("unexpected reason %q", s.Reason)
	}
	if s.Position != strings.Index(content, "golang") {
		t.Errorf("position = %d, want first occurrence", s.Position)
	}
	if s.ContextSnippet == "" {
		t.Error("suggestion should carry a context snippet")
	}
}

func TestAnalyzeLinkingCapAndUniqueTargets(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<p>")
	for i := 0; i < 10; i++ {
		w := fmt.Sprintf("topicword%02dx", i)
		sb.WriteString(w + " " + w + " ")
	}
	sb.WriteString("</p>")
	content := sb.String()

	entries := make([]corpus.Entry, 10)
	for i := range entries {
		entries[i] = corpus.Entry{
			ID:        fmt.Sprintf("post-%d", i),
			Slug:      fmt.Sprintf("post-%d", i),
			Title:     fmt.Sprintf("Everything about topicword%02dx", i),
			ViewCount: 200,
		}
	}

	cfg := DefaultConfig().Link
	analysis := AnalyzeLinking(entries, content, StripMarkup(content), cfg)

	if len(analysis.Suggestions) != cfg.MaxSuggestions {
		t.Fatalf("suggestions = %d, want capped at %d", len(analysis.Suggestions), cfg.MaxSuggestions)
	}
	seen := map[string]bool{}
	for _, s := range analysis.Suggestions {
		if seen[s.TargetID] {
			t.Errorf("duplicate target %q", s.TargetID)
		}
		seen[s.TargetID] = true
	}
	for i := 1; i < len(analysis.Suggestions); i++ {
		prev, cur := analysis.Suggestions[i-1], analysis.Suggestions[i]
		if cur.RelevanceScore > prev.RelevanceScore {
			t.Errorf("suggestions not sorted by relevance: %f then %f", prev.RelevanceScore, cur.RelevanceScore)
		}
	}
}

func TestAnalyzeLinkingSkipsExistingAnchors(t *testing.T) {
	content := `<p>Read about <a href="/golang">golang</a> here. golang golang has more.</p>`
	entries := []corpus.Entry{{ID: "p1", Title: "Learning golang"}}

	analysis := AnalyzeLinking(entries, content, StripMarkup(content), DefaultConfig().Link)
	if len(analysis.Suggestions) != 1 {
		t.Fatalf("expected one suggestion, got %v", analysis.Suggestions)
	}
	anchorEnd := strings.Index(content, "</a>")
	if analysis.Suggestions[0].Position <= anchorEnd {
		t.Errorf("suggested position %d falls inside or before the existing anchor", analysis.Suggestions[0].Position)
	}
}

func TestAnalyzeLinkingMinRelevance(t *testing.T) {
	// Category match alone scores 15 * 0.8 = 12, below the threshold.
	content := "<p>golang golang all over the place.</p>"
	entries := []corpus.Entry{{ID: "p1", CategoryName: "golang"}}

	analysis := AnalyzeLinking(entries, content, StripMarkup(content), DefaultConfig().Link)
	if len(analysis.Suggestions) != 0 {
		t.Errorf("weak matches should not produce suggestions, got %v", analysis.Suggestions)
	}
}

func TestAnalyzeLinkingExcludedTargets(t *testing.T) {
	content := "<p>golang golang is great.</p>"
	entries := []corpus.Entry{{ID: "p1", Slug: "golang-intro", Title: "A golang introduction"}}

	cfg := DefaultConfig().Link
	cfg.ExcludedURLs = []string{"golang-intro"}
	analysis := AnalyzeLinking(entries, content, StripMarkup(content), cfg)
	if len(analysis.Suggestions) != 0 {
		t.Errorf("excluded slug should drop the suggestion, got %v", analysis.Suggestions)
	}
}

func TestRelevanceWeights(t *testing.T) {
	cand := linkCandidate{Text: "golang", Kind: "keyword", Confidence: confidenceKeyword}
	entry := corpus.Entry{
		Title:     "Mastering golang",
		Keywords:  "golang, backend",
		Tags:      []string{"golang"},
		ViewCount: 200,
	}

	score, reason := relevance(cand, entry)
	// (40 + 30 + 25) * 0.8 * 1.1
	want := 95.0 * 0.8 * 1.1
	if math.Abs(score-want) > 1e-6 {
		t.Errorf("score = %f, want %f", score, want)
	}
	if !strings.Contains(reason, "title mentions") {
		t.Errorf("reason should come from the strongest signal, got %q", reason)
	}

	if score, _ := relevance(cand, corpus.Entry{Title: "Nothing related"}); score != 0 {
		t.Errorf("unrelated entry scored %f, want 0", score)
	}
}

func TestExistingLinkProfile(t *testing.T) {
	t.Run("CountsInternalOnly", func(t *testing.T) {
		content := `<p><a href="/a">one</a> <a href="https://example.com/b">two</a> <a href="about">three</a></p>`
		analysis := existingLinkProfile(content, StripMarkup(content))
		if analysis.ExistingInternalLinks != 2 {
			t.Errorf("internal links = %d, want 2", analysis.ExistingInternalLinks)
		}
	})

	t.Run("NeedsMore", func(t *testing.T) {
		plain := wordsOfLength(600)
		analysis := existingLinkProfile("<p>"+plain+"</p>", plain)
		if analysis.Status != LinkingNeedsMore {
			t.Errorf("status = %q, want needs-more", analysis.Status)
		}
	})

	t.Run("Excessive", func(t *testing.T) {
		links := strings.Repeat(`<a href="/x">link</a> `, 5)
		plain := wordsOfLength(100)
		analysis := existingLinkProfile("<p>"+links+plain+"</p>", plain+" link link link link link")
		if analysis.Status != LinkingExcessive {
			t.Errorf("status = %q, want excessive", analysis.Status)
		}
	})

	t.Run("EmptyContent", func(t *testing.T) {
		analysis := existingLinkProfile("", "")
		if analysis.Status != LinkingOptimal || analysis.LinksPerThousandWords != 0 {
			t.Errorf("unexpected profile %+v", analysis)
		}
	})
}

func TestTopFrequencyPhrases(t *testing.T) {
	words := []string{"golang", "golang", "golang", "redis", "redis", "the", "the", "once"}
	got := topFrequencyPhrases(words, 1, 10)
	want := []string{"golang", "redis"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("topFrequencyPhrases = %v, want %v", got, want)
	}
}
