package analyzer

import (
	"strings"
	"testing"
)

func TestParseHeadings(t *testing.T) {
	markup := `<h1 class="title">Main <em>Title</em></h1><p>intro</p><H2>Section</H2>`
	headings := ParseHeadings(markup)
	if len(headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(headings))
	}
	if headings[0].Level != 1 || headings[0].Text != "Main Title" {
		t.Errorf("unexpected first heading: %+v", headings[0])
	}
	if headings[1].Level != 2 || headings[1].Text != "Section" {
		t.Errorf("case-insensitive match failed: %+v", headings[1])
	}
	if headings[0].Position >= headings[1].Position {
		t.Errorf("positions not in document order: %d >= %d", headings[0].Position, headings[1].Position)
	}
}

func TestAnalyzeHeadings(t *testing.T) {
	t.Run("ValidHierarchy", func(t *testing.T) {
		analysis := AnalyzeHeadings(`<h1>A</h1><h2>B</h2><h3>C</h3><h2>D</h2>`)
		if !analysis.IsValid {
			t.Errorf("expected valid hierarchy, issues: %v", analysis.Issues)
		}
		if len(analysis.Outline) != 4 {
			t.Errorf("outline length = %d, want 4", len(analysis.Outline))
		}
	})

	t.Run("MissingH1", func(t *testing.T) {
		analysis := AnalyzeHeadings(`<h2>Only section</h2>`)
		if analysis.IsValid {
			t.Error("missing H1 should invalidate the hierarchy")
		}
		if len(analysis.Issues) != 1 || analysis.Issues[0].Message != "Missing H1 heading" {
			t.Errorf("unexpected issues: %v", analysis.Issues)
		}
	})

	t.Run("MultipleH1IsWarningOnly", func(t *testing.T) {
		analysis := AnalyzeHeadings(`<h1>One</h1><h1>Two</h1>`)
		if !analysis.IsValid {
			t.Error("duplicate H1 is a warning and should not invalidate")
		}
		if len(analysis.Issues) != 1 || analysis.Issues[0].Type != IssueWarning {
			t.Errorf("unexpected issues: %v", analysis.Issues)
		}
	})

	t.Run("SkippedLevel", func(t *testing.T) {
		analysis := AnalyzeHeadings(`<h1>Top</h1><h4>Deep</h4>`)
		if analysis.IsValid {
			t.Error("skipped level should invalidate the hierarchy")
		}
		var found bool
		for _, issue := range analysis.Issues {
			if issue.Message == "Heading level skipped from H1 to H4" {
				found = true
				if issue.SuggestedLevel != 2 {
					t.Errorf("suggested level = %d, want 2", issue.SuggestedLevel)
				}
			}
		}
		if !found {
			t.Errorf("skip issue not reported: %v", analysis.Issues)
		}
	})

	t.Run("DescendingLevelsAllowed", func(t *testing.T) {
		analysis := AnalyzeHeadings(`<h1>A</h1><h2>B</h2><h3>C</h3><h1>D</h1>`)
		for _, issue := range analysis.Issues {
			if strings.Contains(issue.Message, "skipped") {
				t.Errorf("moving back up levels should not be a skip: %v", issue)
			}
		}
	})

	t.Run("NoHeadings", func(t *testing.T) {
		analysis := AnalyzeHeadings(`<p>Just a paragraph.</p>`)
		if analysis.IsValid {
			t.Error("content without an H1 should be invalid")
		}
		if len(analysis.Recommendations) == 0 {
			t.Error("expected a recommendation to add headings")
		}
	})
}

func TestHeadingErrorCount(t *testing.T) {
	analysis := AnalyzeHeadings(`<h2>A</h2><h5>B</h5>`)
	// Missing H1 plus the H2 to H5 skip.
	if got := headingErrorCount(analysis); got != 2 {
		t.Errorf("headingErrorCount = %d, want 2", got)
	}
}
