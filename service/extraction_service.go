package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aviadkim/statement-reconciler/dto"
	"github.com/aviadkim/statement-reconciler/utils"
)

// A PDF whose embedded text is shorter than this is treated as scanned and
// routed through the OCR fallback.
const minEmbeddedTextLen = 20

// ExtractionService is the pipeline: document in, reconciliation report
// out. All state lives in the run; the service itself is safe for
// concurrent use across documents.
type ExtractionService struct {
	pdf     PDFProcessor
	runners []MethodRunner
}

func NewExtractionService(pdf PDFProcessor, runners ...MethodRunner) *ExtractionService {
	return &ExtractionService{pdf: pdf, runners: runners}
}

// Process runs every extraction method concurrently over the document,
// fuses their results and validates the fused set. The only hard error is
// a malformed input shape; backend failures and low accuracy resolve to a
// report with explicit confidence signaling.
func (s *ExtractionService) Process(ctx context.Context, doc *dto.Document, opts dto.ExtractionOptions) (*dto.ReconciliationReport, error) {
	if doc == nil || (len(doc.Pages) == 0 && len(doc.Rows) == 0 && len(doc.PDF) == 0) {
		return nil, dto.ErrNoInput
	}

	runID := uuid.NewString()
	log := slog.With("run_id", runID)

	if err := s.preparePages(doc, ""); err != nil {
		return nil, err
	}

	if opts.ReferenceTotal == nil {
		if total, ok := utils.DetectStatedTotal(doc.FlatText(), opts.TotalBounds); ok {
			log.Info("detected stated total", "total", total)
			opts.ReferenceTotal = &total
		}
	}

	results := make([]dto.MethodResult, len(s.runners))
	var wg sync.WaitGroup
	for i, runner := range s.runners {
		wg.Add(1)
		go func(i int, runner MethodRunner) {
			defer wg.Done()
			runnerCtx, cancel := context.WithTimeout(ctx, opts.RunnerTimeout)
			defer cancel()
			results[i] = runner.Run(runnerCtx, doc, opts)
			log.Debug("method finished",
				"method", runner.Name(),
				"records", len(results[i].Records),
				"priority", results[i].Priority)
		}(i, runner)
	}
	wg.Wait()

	// A cancelled run discards whatever the runners managed to produce;
	// there is no partial reporting.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, issues := Fuse(results, opts)
	report := Validate(records, issues, opts)
	report.RunID = runID

	log.Info("extraction completed",
		"records", len(report.Records),
		"extracted_total", report.ExtractedTotal,
		"grade", report.QualityGrade,
		"requires_review", report.RequiresReview)
	return report, nil
}

// ProcessPDF extracts page text from the raw PDF bytes and runs the
// pipeline over it. Image-only statements are flagged as scanned so the
// OCR runner takes over.
func (s *ExtractionService) ProcessPDF(ctx context.Context, pdfBytes []byte, password string, opts dto.ExtractionOptions) (*dto.ReconciliationReport, error) {
	if len(pdfBytes) == 0 {
		return nil, dto.ErrNoInput
	}
	doc := &dto.Document{PDF: pdfBytes}
	if err := s.preparePages(doc, password); err != nil {
		return nil, err
	}
	return s.Process(ctx, doc, opts)
}

// ProcessText is the flat-string convenience entry: page defaults to 1 and
// lines come from newline splitting.
func (s *ExtractionService) ProcessText(ctx context.Context, text string, opts dto.ExtractionOptions) (*dto.ReconciliationReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, dto.ErrNoInput
	}
	return s.Process(ctx, &dto.Document{Pages: []string{text}}, opts)
}

func (s *ExtractionService) preparePages(doc *dto.Document, password string) error {
	if len(doc.Pages) > 0 || len(doc.PDF) == 0 || s.pdf == nil {
		return nil
	}
	pages, err := s.pdf.ExtractPages(doc.PDF, password)
	if err != nil {
		return fmt.Errorf("failed to extract pdf text: %w", err)
	}
	doc.Pages = pages
	if len(strings.TrimSpace(doc.FlatText())) < minEmbeddedTextLen {
		doc.Scanned = true
	}
	return nil
}
