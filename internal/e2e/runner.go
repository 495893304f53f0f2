// Package e2e drives a deployed web client through the upload and tailor
// flow in a headless browser and checks the rendered result.
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scenario is one upload and tailor run.
type Scenario struct {
	Name           string
	Path           string // page path, "/" when empty
	ResumePath     string
	JobDescription string
	MinStories     int
}

// Result is a completed scenario.
type Result struct {
	Scenario string
	HTML     string
	Report   PageReport
	Duration time.Duration
}

// Runner launches one browser per scenario.
type Runner struct {
	BaseURL   string
	Timeout   time.Duration
	Headless  bool
	Selectors Selectors
	Logger    *zap.Logger
}

// NewRunner returns a headless Runner with default selectors and a two minute timeout.
func NewRunner(baseURL string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Timeout:   2 * time.Minute,
		Headless:  true,
		Selectors: DefaultSelectors(),
		Logger:    logger,
	}
}

func (r *Runner) validate(sc Scenario) error {
	if r.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if sc.ResumePath == "" {
		return fmt.Errorf("scenario %q: resume path is required", sc.Name)
	}
	if _, err := os.Stat(sc.ResumePath); err != nil {
		return fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return nil
}

func (r *Runner) pageURL(sc Scenario) string {
	p := sc.Path
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return r.BaseURL + p
}

// UploadAndTailor uploads the resume, submits the job description, waits for
// the tailored output and checks it.
func (r *Runner) UploadAndTailor(ctx context.Context, sc Scenario) (*Result, error) {
	if err := r.validate(sc); err != nil {
		return nil, err
	}
	resume, err := filepath.Abs(sc.ResumePath)
	if err != nil {
		return nil, err
	}
	logger := r.Logger.With(zap.String("scenario", sc.Name))
	start := time.Now()

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", r.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	sel := r.Selectors
	step := func(name string, actions ...chromedp.Action) error {
		logger.Debug("e2e step", zap.String("step", name))
		if err := chromedp.Run(browserCtx, actions...); err != nil {
			return &BrowserError{Scenario: sc.Name, Step: name, Cause: err}
		}
		return nil
	}

	if err := step("open", chromedp.Navigate(r.pageURL(sc)), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return nil, err
	}
	if err := step("upload", chromedp.SetUploadFiles(sel.FileInput, []string{resume}, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	if sc.JobDescription != "" {
		if err := step("job description",
			chromedp.WaitVisible(sel.JobDescription, chromedp.ByQuery),
			chromedp.SendKeys(sel.JobDescription, sc.JobDescription, chromedp.ByQuery),
		); err != nil {
			return nil, err
		}
	}
	var html string
	if err := step("submit",
		chromedp.Click(sel.Submit, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.WaitVisible(sel.Output, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, err
	}

	report, err := Inspect(html, sel)
	if err != nil {
		return nil, err
	}
	res := &Result{Scenario: sc.Name, HTML: html, Report: report, Duration: time.Since(start)}
	logger.Info("e2e scenario finished",
		zap.Int("story_cards", report.StoryCards),
		zap.Duration("duration", res.Duration))

	if problems := report.Check(sc.MinStories); len(problems) > 0 {
		return res, &AssertionError{Scenario: sc.Name, Problems: problems}
	}
	return res, nil
}

// RunAll runs scenarios with at most limit browsers at once. Every scenario
// runs to completion; results keep the input order and failures are joined.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario, limit int) ([]*Result, error) {
	if limit < 1 {
		limit = 1
	}
	results := make([]*Result, len(scenarios))
	errs := make([]error, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, sc := range scenarios {
		g.Go(func() error {
			results[i], errs[i] = r.UploadAndTailor(gctx, sc)
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}
