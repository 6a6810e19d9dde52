package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aviadkim/statement-reconciler/client"
	"github.com/aviadkim/statement-reconciler/dto"
	"github.com/aviadkim/statement-reconciler/utils"
)

// MethodRunner is one extraction strategy over a document. Runners are
// independent of each other and strategy-agnostic to the fusion step; a
// runner that cannot contribute returns an empty result with priority 0
// instead of an error, so the remaining runners still count.
type MethodRunner interface {
	Name() string
	Priority() float64
	Run(ctx context.Context, doc *dto.Document, opts dto.ExtractionOptions) dto.MethodResult
}

// emptyResult signals graceful failure or non-applicability.
func emptyResult(name string) dto.MethodResult {
	return dto.MethodResult{MethodName: name, Priority: 0}
}

// TextScanRunner correlates anchors and value tokens over the raw
// concatenated text. The baseline strategy: always applicable, moderately
// reliable.
type TextScanRunner struct{}

func (TextScanRunner) Name() string { return "text_scan" }
func (TextScanRunner) Priority() float64 { return 0.6 }

func (r TextScanRunner) Run(ctx context.Context, doc *dto.Document, opts dto.ExtractionOptions) dto.MethodResult {
	if len(doc.Pages) == 0 || ctx.Err() != nil {
		return emptyResult(r.Name())
	}
	records, unmatched := scanPages(doc.Pages, opts, 1.0)
	return dto.MethodResult{
		MethodName: r.Name(),
		Priority:   r.Priority(),
		Records:    records,
		Unmatched:  unmatched,
	}
}

// TableRunner consumes the structured table representation of the
// statement, either supplied by the caller or fetched from the external
// layout backend. Structured rows pin values to their instrument, so the
// strategy outranks the raw-text scan.
type TableRunner struct {
	layout *client.LayoutClient
}

func NewTableRunner(layout *client.LayoutClient) *TableRunner {
	return &TableRunner{layout: layout}
}

func (*TableRunner) Name() string { return "table_structure" }
func (*TableRunner) Priority() float64 { return 0.9 }

func (t *TableRunner) Run(ctx context.Context, doc *dto.Document, opts dto.ExtractionOptions) dto.MethodResult {
	rows := doc.Rows
	if len(rows) == 0 {
		if t.layout == nil || len(doc.PDF) == 0 {
			return emptyResult(t.Name())
		}
		fetched, err := t.layout.ExtractTable(ctx, doc.PDF)
		if err != nil {
			// Backend failure degrades this method, never the pipeline.
			slog.Warn("table runner degraded", "error", err)
			return emptyResult(t.Name())
		}
		rows = fetched
	}

	var records []dto.MethodRecord
	var unmatched []dto.Anchor
	for i, row := range rows {
		rec, anchor, ok := extractFromRow(row, i+1, opts)
		if anchor == nil {
			continue
		}
		if !ok {
			unmatched = append(unmatched, *anchor)
			continue
		}
		records = append(records, rec)
	}
	return dto.MethodResult{
		MethodName: t.Name(),
		Priority:   t.Priority(),
		Records:    records,
		Unmatched:  unmatched,
	}
}

// extractFromRow finds the identifier and its value inside one table row.
// Returns the anchor even when no value parses so the gap can be reported.
func extractFromRow(row dto.TableRow, line int, opts dto.ExtractionOptions) (dto.MethodRecord, *dto.Anchor, bool) {
	var anchor *dto.Anchor
	var tokens []dto.ValueToken
	var name, currency string
	valueCells := 0

	for col, cell := range row.Cells {
		text := strings.TrimSpace(cell.Text)
		if text == "" {
			continue
		}

		if anchor == nil {
			if found := utils.ScanISINs(text, 1); len(found) > 0 {
				a := found[0]
				a.Line = line
				a.CharOffset = col
				anchor = &a
				continue
			}
		}

		cellTokens := utils.ScanValues(text, 1, opts.PlausibleBounds)
		if len(cellTokens) > 0 {
			valueCells++
			for _, tok := range cellTokens {
				tok.Line = line
				tok.CharOffset = col
				tokens = append(tokens, tok)
			}
			continue
		}

		if c := utils.CurrencyOnLine(text); c != "" && currency == "" {
			currency = c
			continue
		}
		if len(text) > len(name) {
			name = cleanInstrumentName(text)
		}
	}

	if anchor == nil {
		return dto.MethodRecord{}, nil, false
	}

	// Prefer values inside the typical band, then the rightmost column:
	// statements put the market value at the row's end, after quantities
	// and rates.
	best := -1
	for i, tok := range tokens {
		if best < 0 {
			best = i
			continue
		}
		bi, bb := opts.TypicalBounds.Contains(tokens[best].Magnitude), opts.TypicalBounds.Contains(tok.Magnitude)
		if bb != bi {
			if bb {
				best = i
			}
			continue
		}
		if tok.CharOffset >= tokens[best].CharOffset {
			best = i
		}
	}
	if best < 0 {
		return dto.MethodRecord{}, anchor, false
	}

	confidence := 0.8
	if valueCells == 1 {
		confidence = 0.95
	}
	return dto.MethodRecord{
		Anchor:     *anchor,
		Value:      tokens[best],
		Name:       name,
		Currency:   currency,
		Confidence: confidence,
	}, anchor, true
}

// OCRRunner rebuilds page text from the statement's embedded images when
// the PDF carries no usable embedded text. Applies only to scanned
// documents; everywhere else it stays silent.
type OCRRunner struct {
	pdf       PDFProcessor
	tesseract *client.TesseractClient
}

func NewOCRRunner(pdf PDFProcessor, tesseract *client.TesseractClient) *OCRRunner {
	return &OCRRunner{pdf: pdf, tesseract: tesseract}
}

func (*OCRRunner) Name() string { return "ocr_fallback" }
func (*OCRRunner) Priority() float64 { return 0.5 }

func (o *OCRRunner) Run(ctx context.Context, doc *dto.Document, opts dto.ExtractionOptions) dto.MethodResult {
	if !doc.Scanned || len(doc.PDF) == 0 || o.tesseract == nil {
		return emptyResult(o.Name())
	}

	images, err := o.pdf.ExtractImages(doc.PDF, "")
	if err != nil || len(images) == 0 {
		slog.Warn("ocr runner degraded", "error", err)
		return emptyResult(o.Name())
	}

	var pages []string
	var totalConf float64
	ocrPages := 0
	for _, img := range images {
		if ctx.Err() != nil {
			return emptyResult(o.Name())
		}
		text, conf, err := o.tesseract.ExtractTextFromImage(img)
		if err != nil {
			slog.Warn("ocr failed for a page", "error", err)
			continue
		}
		pages = append(pages, text)
		totalConf += conf
		ocrPages++
	}
	if ocrPages == 0 {
		return emptyResult(o.Name())
	}

	// Per-record confidence carries the OCR engine's own word confidence.
	scale := totalConf / float64(ocrPages) / 100.0
	records, unmatched := scanPages(pages, opts, scale)
	return dto.MethodResult{
		MethodName: o.Name(),
		Priority:   o.Priority(),
		Records:    records,
		Unmatched:  unmatched,
	}
}

// scanPages is the shared text strategy: detect anchors and tokens per
// page, correlate each anchor inside its proximity window, and attach name
// and currency context from the anchor's surroundings.
func scanPages(pages []string, opts dto.ExtractionOptions, confScale float64) ([]dto.MethodRecord, []dto.Anchor) {
	type pageScan struct {
		anchors []dto.Anchor
		tokens  []dto.ValueToken
		lines   []string
	}

	scans := make([]pageScan, 0, len(pages))
	var allTokens []dto.ValueToken
	for i, page := range pages {
		s := pageScan{
			anchors: utils.ScanISINs(page, i+1),
			tokens:  utils.ScanValues(page, i+1, opts.PlausibleBounds),
			lines:   strings.Split(page, "\n"),
		}
		allTokens = append(allTokens, s.tokens...)
		scans = append(scans, s)
	}

	dominant := opts.DominantFormat
	if dominant == "" {
		dominant = utils.DominantFormat(allTokens)
	}
	docCurrency := utils.DetectCurrency(strings.Join(pages, "\n"))

	var records []dto.MethodRecord
	var unmatched []dto.Anchor
	for _, s := range scans {
		for _, anchor := range s.anchors {
			cand, ok := utils.Correlate(anchor, s.tokens, dominant, opts)
			if !ok {
				unmatched = append(unmatched, anchor)
				continue
			}

			currency := docCurrency
			if anchor.Line-1 < len(s.lines) {
				if c := utils.CurrencyOnLine(s.lines[anchor.Line-1]); c != "" {
					currency = c
				}
			}
			records = append(records, dto.MethodRecord{
				Anchor:     anchor,
				Value:      cand.Value,
				Name:       extractInstrumentName(s.lines, anchor),
				Currency:   currency,
				Confidence: utils.NormalizeScore(cand.Score) * confScale,
			})
		}
	}
	return records, unmatched
}

// extractInstrumentName takes the descriptive text next to the anchor: the
// rest of its line first, the preceding line when the code leads the line.
func extractInstrumentName(lines []string, anchor dto.Anchor) string {
	if anchor.Line < 1 || anchor.Line > len(lines) {
		return ""
	}
	line := lines[anchor.Line-1]
	if idx := strings.Index(line, anchor.Code); idx >= 0 {
		if name := cleanInstrumentName(line[idx+len(anchor.Code):]); name != "" {
			return name
		}
	}
	if anchor.Line >= 2 {
		return cleanInstrumentName(lines[anchor.Line-2])
	}
	return ""
}

// cleanInstrumentName trims separators and cuts the text at the first
// numeral, where descriptive metadata starts.
func cleanInstrumentName(s string) string {
	s = strings.TrimLeft(s, " \t:;-|")
	if idx := strings.IndexAny(s, "0123456789"); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimRight(s, " \t:;-|.,")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
