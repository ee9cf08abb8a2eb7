// Package tabs enumerates the pages a bulk import can choose from.
package tabs

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// Candidate is one page offered for import.
type Candidate struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// DisplayTitle returns the title, or "Untitled" when there is none.
func (c Candidate) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return "Untitled"
	}
	return c.Title
}

// Filter keeps the http and https candidates that are not on serviceHost or
// one of its subdomains. Order is preserved.
func Filter(cands []Candidate, serviceHost string) []Candidate {
	serviceHost = strings.ToLower(serviceHost)
	return lo.Filter(cands, func(c Candidate, _ int) bool {
		u, err := url.Parse(c.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return false
		}
		if serviceHost == "" {
			return true
		}
		host := strings.ToLower(u.Hostname())
		return host != serviceHost && !strings.HasSuffix(host, "."+serviceHost)
	})
}

// FromURLs numbers urls in order.
func FromURLs(urls []string) []Candidate {
	return lo.Map(urls, func(u string, i int) Candidate {
		return Candidate{ID: i + 1, URL: strings.TrimSpace(u)}
	})
}

// URLs returns the URL of each candidate.
func URLs(cands []Candidate) []string {
	return lo.Map(cands, func(c Candidate, _ int) string { return c.URL })
}

// ReadLines reads one candidate per line. Blank lines and lines starting
// with # are skipped; a tab separates an optional title from the URL.
func ReadLines(r io.Reader) ([]Candidate, error) {
	var out []Candidate
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, title, _ := strings.Cut(line, "\t")
		out = append(out, Candidate{
			ID:    len(out) + 1,
			URL:   strings.TrimSpace(u),
			Title: strings.TrimSpace(title),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return out, nil
}
