package analyzer

// Options carries the optional parameters of an analysis request.
type Options struct {
	Title             string
	ContentType       string
	TargetKeywords    []string
	ExcludeDocumentID string
}

// KeywordConfig tunes keyword density classification.
type KeywordConfig struct {
	OptimalMin       float64 // density below this is "low"
	OptimalMax       float64 // density above this is "high"
	WarningThreshold float64 // density above this is "excessive"
	MinFrequency     int     // n-gram entries below this frequency are dropped
	TopKeywords      int     // size of the merged top-keyword list
}

// ImageConfig tunes alt text length checks.
type ImageConfig struct {
	MinAltLength int
	MaxAltLength int
}

// LinkConfig tunes the internal link suggestion engine.
type LinkConfig struct {
	MaxSuggestions    int
	MinRelevanceScore float64
	ExcludedURLs      []string
}

// Config aggregates per-component tuning. Zero values are replaced by
// DefaultConfig in New.
type Config struct {
	Keyword KeywordConfig
	Image   ImageConfig
	Link    LinkConfig
}

// DefaultConfig returns the thresholds the analyzers ship with.
func DefaultConfig() Config {
	return Config{
		Keyword: KeywordConfig{
			OptimalMin:       1.0,
			OptimalMax:       3.0,
			WarningThreshold: 5.0,
			MinFrequency:     2,
			TopKeywords:      10,
		},
		Image: ImageConfig{
			MinAltLength: 10,
			MaxAltLength: 125,
		},
		Link: LinkConfig{
			MaxSuggestions:    7,
			MinRelevanceScore: 30,
		},
	}
}

// Keyword classifications.
const (
	KeywordLow       = "low"
	KeywordOptimal   = "optimal"
	KeywordHigh      = "high"
	KeywordExcessive = "excessive"
)

// KeywordDensity describes how often a keyword or phrase occurs.
type KeywordDensity struct {
	Keyword         string   `json:"keyword"`
	Frequency       int      `json:"frequency"`
	Density         float64  `json:"density"`
	Classification  string   `json:"classification"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// KeywordAnalysis is the keyword density section of a result.
type KeywordAnalysis struct {
	TotalWords     int              `json:"totalWords"`
	Unigrams       []KeywordDensity `json:"unigrams"`
	Bigrams        []KeywordDensity `json:"bigrams"`
	Trigrams       []KeywordDensity `json:"trigrams"`
	TopKeywords    []KeywordDensity `json:"topKeywords"`
	TargetKeywords []KeywordDensity `json:"targetKeywords,omitempty"`
}

// HeadingNode is a heading occurrence in document order.
type HeadingNode struct {
	Text     string `json:"text"`
	Level    int    `json:"level"`
	Position int    `json:"position"`
}

// OutlineEntry is the flat outline projection of a heading.
type OutlineEntry struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Issue severities.
const (
	IssueError   = "error"
	IssueWarning = "warning"
	IssueInfo    = "info"
)

// HeadingIssue describes a structural problem in the heading sequence.
type HeadingIssue struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	SuggestedLevel int    `json:"suggestedLevel,omitempty"`
}

// HeadingAnalysis is the heading structure section of a result.
type HeadingAnalysis struct {
	Headings        []HeadingNode  `json:"headings"`
	Outline         []OutlineEntry `json:"outline"`
	IsValid         bool           `json:"isValid"`
	Issues          []HeadingIssue `json:"issues"`
	Recommendations []string       `json:"recommendations,omitempty"`
}

// ReadabilityAnalysis is the readability section of a result.
type ReadabilityAnalysis struct {
	FleschReadingEase       float64  `json:"fleschReadingEase"`
	FleschKincaidGradeLevel float64  `json:"fleschKincaidGradeLevel"`
	AverageWordsPerSentence float64  `json:"averageWordsPerSentence"`
	AverageSyllablesPerWord float64  `json:"averageSyllablesPerWord"`
	PassiveVoicePercentage  float64  `json:"passiveVoicePercentage"`
	ComplexWordsPercentage  float64  `json:"complexWordsPercentage"`
	Classification          string   `json:"classification"`
	Score                   float64  `json:"score"`
	Recommendations         []string `json:"recommendations,omitempty"`
}

// Image issue types.
const (
	ImageMissingAlt  = "missing-alt"
	ImageEmptyAlt    = "empty-alt"
	ImageGenericAlt  = "generic-alt"
	ImageAltTooShort = "too-short"
	ImageAltTooLong  = "too-long"
	ImageFilenameAlt = "filename-alt"
)

// ImageIssue describes a single image accessibility defect.
type ImageIssue struct {
	Src        string `json:"src"`
	Issue      string `json:"issue"`
	CurrentAlt string `json:"currentAlt"`
	Severity   string `json:"severity"`
}

// ImageAnalysis is the image accessibility section of a result.
type ImageAnalysis struct {
	TotalImages     int          `json:"totalImages"`
	ValidImages     int          `json:"validImages"`
	Issues          []ImageIssue `json:"issues"`
	ComplianceScore float64      `json:"complianceScore"`
	Recommendations []string     `json:"recommendations,omitempty"`
}

// LengthRange is an inclusive word count target.
type LengthRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Content length statuses.
const (
	LengthTooShort = "too-short"
	LengthOptimal  = "optimal"
	LengthTooLong  = "too-long"
)

// LengthAnalysis is the content length section of a result.
type LengthAnalysis struct {
	WordCount        int         `json:"wordCount"`
	ContentType      string      `json:"contentType"`
	RecommendedRange LengthRange `json:"recommendedRange"`
	Status           string      `json:"status"`
	Recommendations  []string    `json:"recommendations,omitempty"`
}

// LinkSuggestion is a ranked internal link opportunity.
type LinkSuggestion struct {
	TargetID       string  `json:"targetId"`
	AnchorText     string  `json:"anchorText"`
	ContextSnippet string  `json:"contextSnippet"`
	RelevanceScore float64 `json:"relevanceScore"`
	Position       int     `json:"position"`
	Reason         string  `json:"reason"`
}

// Internal linking statuses.
const (
	LinkingNeedsMore = "needs-more"
	LinkingOptimal   = "optimal"
	LinkingExcessive = "excessive"
)

// LinkAnalysis is the internal linking section of a result.
type LinkAnalysis struct {
	Suggestions           []LinkSuggestion `json:"suggestions"`
	ExistingInternalLinks int              `json:"existingInternalLinks"`
	LinksPerThousandWords float64          `json:"linksPerThousandWords"`
	Status                string           `json:"status"`
	Warnings              []string         `json:"warnings,omitempty"`
	Recommendations       []string         `json:"recommendations,omitempty"`
}

// Summary groups the human-readable takeaways of a result.
type Summary struct {
	Strengths     []string `json:"strengths"`
	Issues        []string `json:"issues"`
	PriorityFixes []string `json:"priority_fixes"`
	QuickWins     []string `json:"quick_wins"`
}

// Result is the complete content optimization report for one document.
type Result struct {
	Keywords        KeywordAnalysis     `json:"keywords"`
	Headings        HeadingAnalysis     `json:"headings"`
	Readability     ReadabilityAnalysis `json:"readability"`
	Images          ImageAnalysis       `json:"images"`
	ContentLength   LengthAnalysis      `json:"contentLength"`
	InternalLinking LinkAnalysis        `json:"internalLinking"`
	OverallScore    float64             `json:"overallScore"`
	Summary         Summary             `json:"summary"`
	Warnings        []string            `json:"warnings,omitempty"`
}
