package analyzer

import (
	"fmt"
	"regexp"
)

var (
	passiveBeVerbRe = regexp.MustCompile(`(?i)\b(?:am|is|are|was|were|be|been|being)\s+\w+(?:ed|en)\b`)
	passiveAgentRe  = regexp.MustCompile(`(?i)\bby\s+(?:the\s+|a\s+|an\s+)?\w+\s*$`)
)

// Reading ease classification bands, easiest first.
var readabilityBands = []struct {
	minEase        float64
	classification string
}{
	{90, "very-easy"},
	{80, "easy"},
	{70, "fairly-easy"},
	{60, "standard"},
	{50, "fairly-difficult"},
	{30, "difficult"},
}

// AnalyzeReadability computes Flesch Reading Ease and Flesch-Kincaid grade
// level over plain text, along with passive voice and complex word ratios.
func AnalyzeReadability(plain string) ReadabilityAnalysis {
	sentences := Sentences(plain)
	words := Tokenize(plain)
	if len(sentences) == 0 || len(words) == 0 {
		return ReadabilityAnalysis{
			Classification:  "very-difficult",
			Recommendations: []string{"Add readable body text before scoring readability"},
		}
	}

	syllables := 0
	complexWords := 0
	for _, w := range words {
		s := CountSyllables(w)
		syllables += s
		if s >= 3 {
			complexWords++
		}
	}

	avgWordsPerSentence := float64(len(words)) / float64(len(sentences))
	avgSyllablesPerWord := float64(syllables) / float64(len(words))

	readingEase := 206.835 - 1.015*avgWordsPerSentence - 84.6*avgSyllablesPerWord
	gradeLevel := 0.39*avgWordsPerSentence + 11.8*avgSyllablesPerWord - 15.59

	passiveCount := 0
	for _, s := range sentences {
		if isPassiveSentence(s) {
			passiveCount++
		}
	}

	analysis := ReadabilityAnalysis{
		FleschReadingEase:       readingEase,
		FleschKincaidGradeLevel: gradeLevel,
		AverageWordsPerSentence: avgWordsPerSentence,
		AverageSyllablesPerWord: avgSyllablesPerWord,
		PassiveVoicePercentage:  float64(passiveCount) / float64(len(sentences)) * 100,
		ComplexWordsPercentage:  float64(complexWords) / float64(len(words)) * 100,
		Classification:          classifyReadingEase(readingEase),
		Score:                   clampScore(readingEase),
	}

	if readingEase < 60 {
		analysis.Recommendations = append(analysis.Recommendations,
			"Simplify the wording; the text reads harder than standard prose")
	}
	if avgWordsPerSentence > 20 {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Break up long sentences (average %.1f words per sentence)", avgWordsPerSentence))
	}
	if gradeLevel > 12 {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("The text requires grade %.1f reading level; aim below grade 12", gradeLevel))
	}
	if analysis.PassiveVoicePercentage > 25 {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Reduce passive voice (%.0f%% of sentences)", analysis.PassiveVoicePercentage))
	}

	return analysis
}

// isPassiveSentence is a deliberate heuristic: a be-verb followed by a word
// with a past-participle ending, or a trailing "by <agent>" clause. It has
// known false positives and is kept as-is for score stability.
func isPassiveSentence(sentence string) bool {
	return passiveBeVerbRe.MatchString(sentence) || passiveAgentRe.MatchString(sentence)
}

func classifyReadingEase(ease float64) string {
	for _, band := range readabilityBands {
		if ease >= band.minEase {
			return band.classification
		}
	}
	return "very-difficult"
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
