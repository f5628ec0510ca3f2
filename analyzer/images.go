package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	imgTagPattern   = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	altAttrPattern  = regexp.MustCompile(`(?is)\balt\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	srcAttrPattern  = regexp.MustCompile(`(?is)\bsrc\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	filenameAltRe   = regexp.MustCompile(`(?i)^(?:[\w-]+\.(?:jpe?g|png|gif|webp|svg|bmp)|(?:img|dsc|image|photo)[-_]?\d+)$`)
	genericAltTerms = []string{"image", "photo", "picture", "graphic", "illustration", "img"}
)

// AnalyzeImages scans img tags and classifies alt text defects. Each image
// reports at most one issue; checks run in a fixed priority order with the
// generic-term check ahead of the length checks so a literal "img" reads as
// generic rather than merely short.
func AnalyzeImages(markup string, cfg ImageConfig) ImageAnalysis {
	tags := imgTagPattern.FindAllString(markup, -1)
	analysis := ImageAnalysis{TotalImages: len(tags)}
	if len(tags) == 0 {
		analysis.ComplianceScore = 100
		return analysis
	}

	for _, tag := range tags {
		src := firstAttrValue(srcAttrPattern, tag)
		alt, hasAlt := imageAlt(tag)

		if issue, severity := classifyAltText(alt, hasAlt, cfg); issue != "" {
			analysis.Issues = append(analysis.Issues, ImageIssue{
				Src:        src,
				Issue:      issue,
				CurrentAlt: alt,
				Severity:   severity,
			})
		} else {
			analysis.ValidImages++
		}
	}

	analysis.ComplianceScore = float64(analysis.ValidImages) / float64(analysis.TotalImages) * 100
	analysis.Recommendations = imageRecommendations(analysis)
	return analysis
}

// classifyAltText returns the first matching defect and its severity, or
// empty strings when the alt text passes every check.
func classifyAltText(alt string, hasAlt bool, cfg ImageConfig) (string, string) {
	switch {
	case !hasAlt:
		return ImageMissingAlt, IssueError
	case strings.TrimSpace(alt) == "":
		return ImageEmptyAlt, IssueError
	case isGenericAlt(alt):
		return ImageGenericAlt, IssueInfo
	case len(alt) < cfg.MinAltLength:
		return ImageAltTooShort, IssueWarning
	case len(alt) > cfg.MaxAltLength:
		return ImageAltTooLong, IssueWarning
	case filenameAltRe.MatchString(strings.TrimSpace(alt)):
		return ImageFilenameAlt, IssueWarning
	}
	return "", ""
}

// isGenericAlt reports whether the alt text is a generic placeholder term,
// either exactly or as a short string loosely containing one.
func isGenericAlt(alt string) bool {
	a := strings.ToLower(strings.TrimSpace(alt))
	if filenameAltRe.MatchString(a) {
		// Filename-shaped strings get their own classification.
		return false
	}
	for _, term := range genericAltTerms {
		if a == term {
			return true
		}
		if len(a) <= 15 && strings.Contains(a, term) {
			return true
		}
	}
	return false
}

func imageAlt(tag string) (string, bool) {
	m := altAttrPattern.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

func firstAttrValue(re *regexp.Regexp, tag string) string {
	m := re.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

func imageRecommendations(a ImageAnalysis) []string {
	counts := map[string]int{}
	for _, issue := range a.Issues {
		counts[issue.Issue]++
	}
	var recs []string
	if n := counts[ImageMissingAlt] + counts[ImageEmptyAlt]; n > 0 {
		recs = append(recs, fmt.Sprintf("Add descriptive alt text to %d image(s) missing it", n))
	}
	if n := counts[ImageGenericAlt] + counts[ImageFilenameAlt]; n > 0 {
		recs = append(recs, fmt.Sprintf("Replace placeholder alt text on %d image(s) with a real description", n))
	}
	if n := counts[ImageAltTooShort]; n > 0 {
		recs = append(recs, fmt.Sprintf("Expand the alt text of %d image(s); very short descriptions rarely help", n))
	}
	if n := counts[ImageAltTooLong]; n > 0 {
		recs = append(recs, fmt.Sprintf("Shorten the alt text of %d image(s); screen readers truncate long descriptions", n))
	}
	return recs
}
