package tabs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pterm/pterm"
)

const maxPageSize = 2 << 20

// TitleTimeout bounds the lookup of one page title.
const TitleTimeout = 10 * time.Second

var titleTimeout = TitleTimeout

// ResolveTitles fills in missing titles by fetching each page and reading
// its <title>. Pages that cannot be fetched, or take longer than
// TitleTimeout, keep an empty title.
func ResolveTitles(ctx context.Context, hc *http.Client, cands []Candidate, log *pterm.Logger) []Candidate {
	if hc == nil {
		hc = http.DefaultClient
	}
	out := make([]Candidate, len(cands))
	copy(out, cands)
	for i := range out {
		if out[i].Title != "" {
			continue
		}
		title, err := fetchTitle(ctx, hc, out[i].URL)
		if err != nil {
			if log != nil {
				log.Debug("title lookup failed", log.Args("url", out[i].URL, "error", err))
			}
			continue
		}
		out[i].Title = title
	}
	return out
}

func fetchTitle(ctx context.Context, hc *http.Client, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", err
	}
	title := strings.TrimSpace(doc.Find("head title").First().Text())
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}
	return strings.Join(strings.Fields(title), " "), nil
}
