package analyzer

import "fmt"

// Content types with known word count targets.
const (
	TypeTutorial = "tutorial"
	TypeGuide    = "guide"
	TypeNews     = "news"
	TypeOpinion  = "opinion"
	TypeReview   = "review"
	TypeDefault  = "default"
)

var lengthTargets = map[string]LengthRange{
	TypeTutorial: {Min: 1500, Max: 3000},
	TypeGuide:    {Min: 2000, Max: 4000},
	TypeNews:     {Min: 300, Max: 800},
	TypeOpinion:  {Min: 600, Max: 1200},
	TypeReview:   {Min: 800, Max: 1500},
	TypeDefault:  {Min: 800, Max: 2000},
}

// TargetRange returns the word count target for a content type. Unknown
// types fall back to the default range.
func TargetRange(contentType string) (string, LengthRange) {
	if r, ok := lengthTargets[contentType]; ok {
		return contentType, r
	}
	return TypeDefault, lengthTargets[TypeDefault]
}

// AnalyzeLength compares the plain text word count against the target range
// for the content type.
func AnalyzeLength(plain, contentType string) LengthAnalysis {
	resolvedType, target := TargetRange(contentType)
	count := WordCount(plain)

	analysis := LengthAnalysis{
		WordCount:        count,
		ContentType:      resolvedType,
		RecommendedRange: target,
	}

	switch {
	case count < target.Min:
		analysis.Status = LengthTooShort
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Content is %d words; %s content performs best between %d and %d words",
				count, resolvedType, target.Min, target.Max))
	case count > target.Max:
		analysis.Status = LengthTooLong
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Content is %d words, above the %d-%d word target for %s content; consider splitting it",
				count, target.Min, target.Max, resolvedType))
	default:
		analysis.Status = LengthOptimal
	}

	return analysis
}

// lengthScore maps a length analysis to its aggregate sub-score: 100 inside
// the target range, 85 within 20% outside either bound, 50 otherwise.
func lengthScore(a LengthAnalysis) float64 {
	switch a.Status {
	case LengthOptimal:
		return 100
	case LengthTooShort:
		if float64(a.WordCount) >= float64(a.RecommendedRange.Min)*0.8 {
			return 85
		}
	case LengthTooLong:
		if float64(a.WordCount) <= float64(a.RecommendedRange.Max)*1.2 {
			return 85
		}
	}
	return 50
}
