package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

//go:embed templates/analytics_report.html
var reportTemplateHTML string

var reportTemplate = template.Must(template.New("analytics_report").Parse(reportTemplateHTML))

// PDFRenderer prints an HTML document to PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromeRenderer drives a headless Chrome through chromedp.
type ChromeRenderer struct {
	Timeout time.Duration
}

func (r ChromeRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, nil
}

// ReportService renders analytics as a printable document.
type ReportService struct {
	analytics *AnalyticsService
	renderer  PDFRenderer
	log       *slog.Logger
}

func NewReportService(log *slog.Logger, analytics *AnalyticsService, renderer PDFRenderer) *ReportService {
	return &ReportService{
		analytics: analytics,
		renderer:  renderer,
		log:       log.With("service", "report"),
	}
}

type reportView struct {
	*Analytics
	Range string
}

func (s *ReportService) RenderHTML(ctx context.Context, actor Actor, in AnalyticsInput) (string, error) {
	data, err := s.analytics.Compute(ctx, actor, in)
	if err != nil {
		return "", err
	}

	view := reportView{Analytics: data}
	switch {
	case in.Timeframe != "":
		view.Range = "last " + in.Timeframe
	case in.StartDate != "" || in.EndDate != "":
		view.Range = fmt.Sprintf("%s to %s", orDash(in.StartDate), orDash(in.EndDate))
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", Internal(err, "failed to render report")
	}
	return buf.String(), nil
}

func (s *ReportService) RenderPDF(ctx context.Context, actor Actor, in AnalyticsInput) ([]byte, error) {
	html, err := s.RenderHTML(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		s.log.ErrorContext(ctx, "report rendering failed", "error", err)
		return nil, Internal(err, "failed to render report")
	}
	return pdf, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
