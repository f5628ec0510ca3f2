package analyzer

import (
	"fmt"
	"sort"
	"strings"
)

// AnalyzeKeywords computes unigram, bigram and trigram densities over the
// tokenized words and classifies each against the configured thresholds.
// Phrase densities are measured against the number of sliding windows
// (totalWords - n + 1), not the raw word count.
func AnalyzeKeywords(words []string, targets []string, cfg KeywordConfig) KeywordAnalysis {
	totalWords := len(words)
	analysis := KeywordAnalysis{TotalWords: totalWords}
	if totalWords == 0 {
		return analysis
	}

	analysis.Unigrams = densityEntries(ngramFrequencies(words, 1), totalWords, cfg)
	analysis.Bigrams = densityEntries(ngramFrequencies(words, 2), totalWords-1, cfg)
	analysis.Trigrams = densityEntries(ngramFrequencies(words, 3), totalWords-2, cfg)

	merged := make([]KeywordDensity, 0, len(analysis.Unigrams)+len(analysis.Bigrams)+len(analysis.Trigrams))
	merged = append(merged, analysis.Unigrams...)
	merged = append(merged, analysis.Bigrams...)
	merged = append(merged, analysis.Trigrams...)
	sortByDensity(merged)
	if len(merged) > cfg.TopKeywords {
		merged = merged[:cfg.TopKeywords]
	}
	analysis.TopKeywords = merged

	for _, target := range targets {
		entry := targetDensity(words, target, cfg)
		if entry != nil {
			analysis.TargetKeywords = append(analysis.TargetKeywords, *entry)
		}
	}

	return analysis
}

func ngramFrequencies(words []string, n int) map[string]int {
	if len(words) < n {
		return nil
	}
	freq := make(map[string]int)
	if n == 1 {
		for _, w := range words {
			freq[w]++
		}
		return freq
	}
	for i := 0; i+n <= len(words); i++ {
		freq[strings.Join(words[i:i+n], " ")]++
	}
	return freq
}

func densityEntries(freq map[string]int, windows int, cfg KeywordConfig) []KeywordDensity {
	if windows <= 0 || len(freq) == 0 {
		return nil
	}
	entries := make([]KeywordDensity, 0, len(freq))
	for phrase, count := range freq {
		if count < cfg.MinFrequency {
			continue
		}
		entries = append(entries, buildDensity(phrase, count, windows, cfg))
	}
	sortByDensity(entries)
	return entries
}

func buildDensity(phrase string, count, windows int, cfg KeywordConfig) KeywordDensity {
	density := float64(count) / float64(windows) * 100
	classification := classifyDensity(density, cfg)
	return KeywordDensity{
		Keyword:         phrase,
		Frequency:       count,
		Density:         density,
		Classification:  classification,
		Recommendations: densityRecommendations(phrase, count, density, classification),
	}
}

func classifyDensity(density float64, cfg KeywordConfig) string {
	switch {
	case density < cfg.OptimalMin:
		return KeywordLow
	case density <= cfg.OptimalMax:
		return KeywordOptimal
	case density <= cfg.WarningThreshold:
		return KeywordHigh
	default:
		return KeywordExcessive
	}
}

func densityRecommendations(phrase string, count int, density float64, classification string) []string {
	switch classification {
	case KeywordLow:
		return []string{fmt.Sprintf("%q appears %d times (%.2f%%); use it more often if it is a focus keyword", phrase, count, density)}
	case KeywordHigh:
		return []string{fmt.Sprintf("%q is at %.2f%% density, approaching over-use; vary the wording", phrase, density)}
	case KeywordExcessive:
		return []string{fmt.Sprintf("%q is at %.2f%% density, which reads as keyword stuffing; reduce its usage", phrase, density)}
	}
	return nil
}

// targetDensity measures a caller-supplied keyword or phrase. Targets skip
// the minimum-frequency filter so a missing keyword still shows up as "low"
// with zero occurrences.
func targetDensity(words []string, target string, cfg KeywordConfig) *KeywordDensity {
	phrase := strings.Join(Tokenize(target), " ")
	if phrase == "" {
		return nil
	}
	n := len(strings.Fields(phrase))
	windows := len(words) - n + 1
	if windows <= 0 {
		entry := KeywordDensity{Keyword: phrase, Classification: KeywordLow}
		entry.Recommendations = []string{fmt.Sprintf("target keyword %q does not appear in the content", phrase)}
		return &entry
	}
	count := ngramFrequencies(words, n)[phrase]
	entry := buildDensity(phrase, count, windows, cfg)
	if count == 0 {
		entry.Recommendations = []string{fmt.Sprintf("target keyword %q does not appear in the content", phrase)}
	}
	return &entry
}

// sortByDensity orders entries by density descending, breaking ties by
// frequency then keyword so repeated runs produce identical output.
func sortByDensity(entries []KeywordDensity) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Density != entries[j].Density {
			return entries[i].Density > entries[j].Density
		}
		if entries[i].Frequency != entries[j].Frequency {
			return entries[i].Frequency > entries[j].Frequency
		}
		return entries[i].Keyword < entries[j].Keyword
	})
}
