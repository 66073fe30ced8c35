// Package capture extracts readable page text through headless Chrome,
// mirroring what the browser extension captures so server-side captures and
// extension captures are interchangeable.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// extractScript pulls the readable text out of the rendered page. It
// prefers article and main regions and falls back to the body with
// navigation chrome stripped.
const extractScript = `
(function() {
	document.querySelectorAll('script, style, noscript, iframe').forEach(el => el.remove());

	let text = '';
	const article = document.querySelector('article');
	if (article) {
		text = article.innerText || article.textContent || '';
	} else {
		const main = document.querySelector('main');
		if (main) {
			text = main.innerText || main.textContent || '';
		}
	}
	if (text.trim().length < 100) {
		const body = document.body.cloneNode(true);
		body.querySelectorAll('nav, header, footer, aside, .sidebar, .menu, .navigation, .ad, .advertisement')
			.forEach(el => el.remove());
		text = body.innerText || body.textContent || '';
	}
	return {
		title: document.title || '',
		text: text,
	};
})()
`

// Page is one captured page before ingestion.
type Page struct {
	URL        string
	Title      string
	Content    string
	CapturedAt string
}

// Capturer drives a headless Chrome instance to fetch and extract pages.
type Capturer struct {
	profileDir string
	headless   bool
	timeout    time.Duration
	logger     *slog.Logger
}

type CapturerConfig struct {
	ProfileDir string // Chrome user data directory (persists cookies/sessions)
	Headless   bool
	Timeout    time.Duration // per-page bound (default: 60s)
	Logger     *slog.Logger
}

func NewCapturer(cfg CapturerConfig) *Capturer {
	if cfg.ProfileDir == "" {
		home, _ := os.UserHomeDir()
		cfg.ProfileDir = filepath.Join(home, ".webloom", "chrome-profile")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Capturer{
		profileDir: cfg.ProfileDir,
		headless:   cfg.Headless,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}
}

func (c *Capturer) newContext(parent context.Context) (context.Context, context.CancelFunc) {
	if err := os.MkdirAll(c.profileDir, 0o755); err != nil {
		c.logger.Error("failed to create profile dir", "dir", c.profileDir, "err", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(c.profileDir),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
	)
	if c.headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	return taskCtx, func() {
		taskCancel()
		allocCancel()
	}
}

// Capture fetches one page and returns its extracted text.
func (c *Capturer) Capture(ctx context.Context, url string) (*Page, error) {
	taskCtx, cancel := c.newContext(ctx)
	defer cancel()

	taskCtx, taskCancel := context.WithTimeout(taskCtx, c.timeout)
	defer taskCancel()

	c.logger.Info("capturing page", "url", url)

	var extracted struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(500*time.Millisecond), // let late scripts settle
		chromedp.Evaluate(extractScript, &extracted),
	)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}

	content := CleanText(extracted.Text)
	if content == "" {
		content = "No content found"
	}

	return &Page{
		URL:        url,
		Title:      strings.TrimSpace(extracted.Title),
		Content:    content,
		CapturedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

var (
	blankLinesRe = regexp.MustCompile(`\n\s*\n`)
	spacesRe     = regexp.MustCompile(`[ \t\r\f\v]+`)
)

// CleanText normalizes extracted page text: runs of spaces collapse to one,
// blank lines collapse to a single newline, and the result is trimmed.
func CleanText(s string) string {
	s = blankLinesRe.ReplaceAllString(s, "\n")
	s = spacesRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
