package dto

type NumberFormat string

const (
	FormatGroupedApostrophe NumberFormat = "grouped_apostrophe"
	FormatGroupedComma      NumberFormat = "grouped_comma"
	FormatPlain             NumberFormat = "plain"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type QualityGrade string

const (
	GradeExcellent  QualityGrade = "excellent"
	GradeGood       QualityGrade = "good"
	GradeAcceptable QualityGrade = "acceptable"
	GradePoor       QualityGrade = "poor"
	GradeFailing    QualityGrade = "failing"
	GradeUnknown    QualityGrade = "unknown"
)

// Anchor is one detected identifier occurrence with its position in the
// source text. The same code may be detected more than once; deduplication
// happens during fusion, not here.
type Anchor struct {
	Code       string `json:"code"`
	Page       int    `json:"page"`
	Line       int    `json:"line"`
	CharOffset int    `json:"char_offset"`
}

// ValueToken is a numeral-shaped substring that survived normalization and
// the plausibility bound, annotated with the format it was written in.
type ValueToken struct {
	Raw        string       `json:"raw"`
	Magnitude  float64      `json:"magnitude"`
	Page       int          `json:"page"`
	Line       int          `json:"line"`
	CharOffset int          `json:"char_offset"`
	Format     NumberFormat `json:"format"`
}

// Candidate pairs an anchor with one value token in its neighborhood.
// Ephemeral: only the winning candidate survives correlation.
type Candidate struct {
	Anchor   Anchor     `json:"anchor"`
	Value    ValueToken `json:"value"`
	Distance int        `json:"distance"`
	Score    float64    `json:"score"`
}

type Issue struct {
	Identifier string   `json:"identifier,omitempty"`
	Severity   Severity `json:"severity"`
	Kind       string   `json:"kind"`
	Message    string   `json:"message"`
}

// SecurityRecord is the fused, validated result for one instrument.
type SecurityRecord struct {
	Identifier        string  `json:"identifier"`
	Name              string  `json:"name,omitempty"`
	Value             float64 `json:"value"`
	Currency          string  `json:"currency"`
	Confidence        float64 `json:"confidence"`
	SourceMethod      string  `json:"source_method"`
	CorrectionApplied bool    `json:"correction_applied"`
	CorrectionReason  string  `json:"correction_reason,omitempty"`
}

// MethodRecord is one (anchor, value) pairing produced by a single
// extraction method, before fusion.
type MethodRecord struct {
	Anchor     Anchor     `json:"anchor"`
	Value      ValueToken `json:"value"`
	Name       string     `json:"name,omitempty"`
	Currency   string     `json:"currency,omitempty"`
	Confidence float64    `json:"confidence"`
}

// MethodResult is the full output of one extraction method over one
// document. A failed method returns an empty result with Priority 0 so
// the other methods can still contribute.
type MethodResult struct {
	MethodName string         `json:"method_name"`
	Priority   float64        `json:"priority"`
	Records    []MethodRecord `json:"records"`
	Unmatched  []Anchor       `json:"unmatched,omitempty"`
}

// ReconciliationReport is the terminal output of a pipeline run.
// ReferenceTotal and AccuracyRatio are nil when the document exposes no
// stated total; the report is still returned in full.
type ReconciliationReport struct {
	RunID          string           `json:"run_id"`
	Records        []SecurityRecord `json:"records"`
	ExtractedTotal float64          `json:"extracted_total"`
	ReferenceTotal *float64         `json:"reference_total,omitempty"`
	AccuracyRatio  *float64         `json:"accuracy_ratio,omitempty"`
	QualityGrade   QualityGrade     `json:"quality_grade"`
	RequiresReview bool             `json:"requires_review"`
	Issues         []Issue          `json:"issues"`
	ProcessedAt    string           `json:"processed_at"`
}

// TableCell carries one cell of an externally produced layout table.
type TableCell struct {
	Text string `json:"text"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

type TableRow struct {
	Cells []TableCell `json:"cells"`
}

// Document is the input shape for one pipeline run. At least one of Pages
// or PDF must be set; Rows may be supplied directly by callers that already
// hold a layout-analysis result.
type Document struct {
	Pages   []string   `json:"pages,omitempty"`
	Rows    []TableRow `json:"rows,omitempty"`
	PDF     []byte     `json:"-"`
	Scanned bool       `json:"-"`
}

// FlatText joins all pages into one newline-separated string.
func (d *Document) FlatText() string {
	switch len(d.Pages) {
	case 0:
		return ""
	case 1:
		return d.Pages[0]
	}
	out := d.Pages[0]
	for _, p := range d.Pages[1:] {
		out += "\n" + p
	}
	return out
}
