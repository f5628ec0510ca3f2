package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
)

var headingPattern = regexp.MustCompile(`(?is)<h([1-6])[^>]*>(.*?)</h[1-6]\s*>`)

// ParseHeadings scans the markup for h1-h6 elements in document order,
// keeping the character offset of each occurrence.
func ParseHeadings(markup string) []HeadingNode {
	matches := headingPattern.FindAllStringSubmatchIndex(markup, -1)
	if len(matches) == 0 {
		return nil
	}
	headings := make([]HeadingNode, 0, len(matches))
	for _, m := range matches {
		level, err := strconv.Atoi(markup[m[2]:m[3]])
		if err != nil {
			continue
		}
		inner := markup[m[4]:m[5]]
		headings = append(headings, HeadingNode{
			Text:     StripMarkup(inner),
			Level:    level,
			Position: m[0],
		})
	}
	return headings
}

// AnalyzeHeadings validates the heading sequence of the markup. Exactly one
// H1 is expected; levels must not jump by more than one step between
// adjacent headings.
func AnalyzeHeadings(markup string) HeadingAnalysis {
	headings := ParseHeadings(markup)
	analysis := HeadingAnalysis{Headings: headings}

	h1Count := 0
	for _, h := range headings {
		analysis.Outline = append(analysis.Outline, OutlineEntry{Text: h.Text, Level: h.Level})
		if h.Level == 1 {
			h1Count++
		}
	}

	if h1Count == 0 {
		analysis.Issues = append(analysis.Issues, HeadingIssue{
			Type:    IssueError,
			Message: "Missing H1 heading",
		})
	} else if h1Count > 1 {
		analysis.Issues = append(analysis.Issues, HeadingIssue{
			Type:    IssueWarning,
			Message: fmt.Sprintf("Multiple H1 headings found (%d); keep a single H1", h1Count),
		})
	}

	for i := 1; i < len(headings); i++ {
		prev, cur := headings[i-1], headings[i]
		if cur.Level > prev.Level+1 {
			analysis.Issues = append(analysis.Issues, HeadingIssue{
				Type:           IssueError,
				Message:        fmt.Sprintf("Heading level skipped from H%d to H%d", prev.Level, cur.Level),
				SuggestedLevel: prev.Level + 1,
			})
		}
	}

	analysis.IsValid = true
	for _, issue := range analysis.Issues {
		if issue.Type == IssueError {
			analysis.IsValid = false
			break
		}
	}

	switch {
	case len(headings) == 0:
		analysis.Recommendations = append(analysis.Recommendations,
			"Add headings to structure the content; start with a single H1")
	case len(headings) <= 2:
		analysis.Recommendations = append(analysis.Recommendations,
			"Consider adding more subheadings to break the content into sections")
	}
	for _, issue := range analysis.Issues {
		if issue.SuggestedLevel > 0 {
			analysis.Recommendations = append(analysis.Recommendations,
				fmt.Sprintf("Use H%d instead of skipping heading levels", issue.SuggestedLevel))
		}
	}

	return analysis
}

// headingErrorCount counts issues of type error, used by the aggregate
// scorer.
func headingErrorCount(a HeadingAnalysis) int {
	n := 0
	for _, issue := range a.Issues {
		if issue.Type == IssueError {
			n++
		}
	}
	return n
}
