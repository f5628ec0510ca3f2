package analyzer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/contentpulse/backend/corpus"
)

// Candidate confidence defaults by extraction method.
const (
	confidenceKeyword = 80.0
	confidenceEntity  = 70.0
	confidenceTopic   = 60.0
)

var (
	anchorSpanPattern = regexp.MustCompile(`(?is)<a\b[^>]*>.*?</a>`)
	entityPattern     = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)+\b`)
	topicPatterns     = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:guide to|introduction to|how to) [a-z]+(?: [a-z]+){0,2}\b`),
		regexp.MustCompile(`(?i)\b[a-z]+(?: [a-z]+)? (?:marketing|strategy|strategies|optimization|development|tips)\b`),
	}
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the and for are but not you all can had her was one our out day get has him
		his how man new now old see two way who its did that this with from they will have what when where which
		your their there then them these those been being were than into onto also just like over such only some
		more most other about after before because while would could should very much many each both between
		through during under above again further once here why own same too`) {
		stopwords[w] = struct{}{}
	}
}

type linkCandidate struct {
	Text       string
	Position   int
	Context    string
	Kind       string // keyword | entity | topic
	Confidence float64
}

// AnalyzeLinking extracts anchor candidates from the document, matches them
// against the corpus of other published documents, and returns ranked link
// suggestions plus a health check of the existing internal link density.
func AnalyzeLinking(entries []corpus.Entry, content, plain string, cfg LinkConfig) LinkAnalysis {
	analysis := existingLinkProfile(content, plain)

	if len(entries) == 0 {
		analysis.Suggestions = []LinkSuggestion{}
		analysis.Warnings = append(analysis.Warnings,
			"no published documents available for internal link suggestions")
		return analysis
	}

	candidates := dedupeCandidates(extractLinkCandidates(content, plain))

	suggestions := make([]LinkSuggestion, 0, len(candidates))
	for _, cand := range candidates {
		var best *LinkSuggestion
		for i := range entries {
			score, reason := relevance(cand, entries[i])
			if score < cfg.MinRelevanceScore {
				continue
			}
			if best == nil || score > best.RelevanceScore {
				best = &LinkSuggestion{
					TargetID:       entries[i].ID,
					AnchorText:     cand.Text,
					ContextSnippet: cand.Context,
					RelevanceScore: score,
					Position:       cand.Position,
					Reason:         reason,
				}
			}
		}
		if best != nil {
			suggestions = append(suggestions, *best)
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].RelevanceScore != suggestions[j].RelevanceScore {
			return suggestions[i].RelevanceScore > suggestions[j].RelevanceScore
		}
		return suggestions[i].Position < suggestions[j].Position
	})

	suggestions = filterExcluded(suggestions, entries, cfg.ExcludedURLs)

	// One suggestion per target document; the highest-ranked one wins.
	seen := make(map[string]struct{}, len(suggestions))
	unique := suggestions[:0]
	for _, s := range suggestions {
		if _, dup := seen[s.TargetID]; dup {
			continue
		}
		seen[s.TargetID] = struct{}{}
		unique = append(unique, s)
	}
	if len(unique) > cfg.MaxSuggestions {
		unique = unique[:cfg.MaxSuggestions]
	}
	analysis.Suggestions = unique

	if len(unique) > 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Link to %d related document(s) from the suggested anchor spans", len(unique)))
	}
	return analysis
}

// extractLinkCandidates collects keyword, entity and topic candidates and
// locates each one's first occurrence outside existing anchor elements.
func extractLinkCandidates(content, plain string) []linkCandidate {
	words := Tokenize(plain)
	anchors := anchorSpanPattern.FindAllStringIndex(content, -1)
	lowerContent := strings.ToLower(content)

	var candidates []linkCandidate
	seen := make(map[string]struct{})

	add := func(text, kind string, confidence float64) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup {
			return
		}
		pos, ok := findOutsideAnchors(lowerContent, key, anchors)
		if !ok {
			return
		}
		seen[key] = struct{}{}
		candidates = append(candidates, linkCandidate{
			Text:       text,
			Position:   pos,
			Context:    contextSnippet(content, pos, len(text)),
			Kind:       kind,
			Confidence: confidence,
		})
	}

	for _, kw := range topFrequencyPhrases(words, 1, 10) {
		add(kw, "keyword", confidenceKeyword)
	}
	for _, kw := range topFrequencyPhrases(words, 2, 10) {
		add(kw, "keyword", confidenceKeyword)
	}
	for _, entity := range entityPattern.FindAllString(plain, -1) {
		add(entity, "entity", confidenceEntity)
	}
	for _, re := range topicPatterns {
		for _, topic := range re.FindAllString(plain, -1) {
			add(strings.ToLower(topic), "topic", confidenceTopic)
		}
	}

	return candidates
}

// topFrequencyPhrases returns the most frequent stopword-free n-grams that
// occur at least twice, ordered by frequency then alphabetically.
func topFrequencyPhrases(words []string, n, limit int) []string {
	freq := ngramFrequencies(words, n)
	type entry struct {
		phrase string
		count  int
	}
	entries := make([]entry, 0, len(freq))
	for phrase, count := range freq {
		if count < 2 || containsStopword(phrase) {
			continue
		}
		entries = append(entries, entry{phrase, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].phrase < entries[j].phrase
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.phrase
	}
	return out
}

func containsStopword(phrase string) bool {
	for _, w := range strings.Fields(phrase) {
		if _, ok := stopwords[w]; ok {
			return true
		}
	}
	return false
}

// findOutsideAnchors locates the first occurrence of needle that does not
// fall inside an existing anchor element.
func findOutsideAnchors(lowerContent, needle string, anchors [][]int) (int, bool) {
	offset := 0
	for {
		idx := strings.Index(lowerContent[offset:], needle)
		if idx < 0 {
			return 0, false
		}
		pos := offset + idx
		if !insideSpan(pos, anchors) {
			return pos, true
		}
		offset = pos + len(needle)
	}
}

func insideSpan(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

func contextSnippet(content string, pos, length int) string {
	start := pos - 80
	if start < 0 {
		start = 0
	}
	end := pos + length + 80
	if end > len(content) {
		end = len(content)
	}
	return StripMarkup(content[start:end])
}

// dedupeCandidates removes overlapping source spans, keeping the candidate
// with the higher confidence, and returns the survivors in document order.
func dedupeCandidates(candidates []linkCandidate) []linkCandidate {
	if len(candidates) == 0 {
		return candidates
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Position != candidates[j].Position {
			return candidates[i].Position < candidates[j].Position
		}
		return candidates[i].Confidence > candidates[j].Confidence
	})

	kept := candidates[:0]
	for _, c := range candidates {
		if len(kept) == 0 {
			kept = append(kept, c)
			continue
		}
		last := &kept[len(kept)-1]
		if c.Position < last.Position+len(last.Text) {
			if c.Confidence > last.Confidence {
				*last = c
			}
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// relevance scores one corpus entry against a candidate using the weighted
// rule set: title +40, SEO keywords +30, tags +25, excerpt +20, category
// +15, fractional content overlap up to +15. The sum scales by candidate
// confidence and gains 10% for well-read documents.
func relevance(c linkCandidate, e corpus.Entry) (float64, string) {
	text := strings.ToLower(c.Text)
	score := 0.0
	reason := ""

	if strings.Contains(strings.ToLower(e.Title), text) {
		score += 40
		reason = fmt.Sprintf("title mentions %q", c.Text)
	}
	if strings.Contains(strings.ToLower(e.Keywords), text) {
		score += 30
		if reason == "" {
			reason = fmt.Sprintf("targets the SEO keyword %q", c.Text)
		}
	}
	if tagMatches(text, e.Tags) {
		score += 25
		if reason == "" {
			reason = fmt.Sprintf("tagged with %q", c.Text)
		}
	}
	if strings.Contains(strings.ToLower(e.Excerpt), text) {
		score += 20
		if reason == "" {
			reason = fmt.Sprintf("excerpt mentions %q", c.Text)
		}
	}
	if e.CategoryName != "" && strings.Contains(strings.ToLower(e.CategoryName), text) {
		score += 15
		if reason == "" {
			reason = fmt.Sprintf("in the %q category", e.CategoryName)
		}
	}
	if overlap := contentOverlap(text, e.Content); overlap > 0 {
		score += overlap * 15
		if reason == "" {
			reason = fmt.Sprintf("content covers %q", c.Text)
		}
	}

	score *= c.Confidence / 100
	if e.ViewCount > 100 {
		score *= 1.1
	}
	if score > 100 {
		score = 100
	}
	return score, reason
}

func tagMatches(text string, tags []string) bool {
	for _, tag := range tags {
		t := strings.ToLower(tag)
		if strings.Contains(t, text) || strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// contentOverlap returns the fraction of the candidate's words found in the
// entry content.
func contentOverlap(text, content string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}

// filterExcluded drops suggestions whose target id or slug the caller asked
// to skip.
func filterExcluded(suggestions []LinkSuggestion, entries []corpus.Entry, excluded []string) []LinkSuggestion {
	if len(excluded) == 0 {
		return suggestions
	}
	slugByID := make(map[string]string, len(entries))
	for _, e := range entries {
		slugByID[e.ID] = e.Slug
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, x := range excluded {
		skip[strings.ToLower(strings.TrimSpace(x))] = struct{}{}
	}
	out := suggestions[:0]
	for _, s := range suggestions {
		if _, drop := skip[strings.ToLower(s.TargetID)]; drop {
			continue
		}
		if _, drop := skip[strings.ToLower(slugByID[s.TargetID])]; drop {
			continue
		}
		out = append(out, s)
	}
	return out
}

// existingLinkProfile counts internal anchors already present and derives a
// link frequency status from the word count.
func existingLinkProfile(content, plain string) LinkAnalysis {
	analysis := LinkAnalysis{Status: LinkingOptimal}

	internal := 0
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			href = strings.TrimSpace(href)
			if href == "" || href == "#" {
				return
			}
			if strings.HasPrefix(href, "/") || !strings.Contains(href, "://") {
				internal++
			}
		})
	}
	analysis.ExistingInternalLinks = internal

	wc := WordCount(plain)
	if wc == 0 {
		return analysis
	}
	analysis.LinksPerThousandWords = float64(internal) / float64(wc) * 1000

	// Roughly one internal link per 300 words reads naturally; past one per
	// 50 words the text starts to look like a link farm.
	minWanted := wc / 300
	maxWanted := wc / 50
	switch {
	case internal < minWanted:
		analysis.Status = LinkingNeedsMore
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Content has %d internal link(s); aim for at least %d at this length", internal, minWanted))
	case maxWanted > 0 && internal > maxWanted:
		analysis.Status = LinkingExcessive
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Content has %d internal links; trim toward %d to keep the text readable", internal, maxWanted))
	}
	return analysis
}
