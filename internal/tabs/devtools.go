package tabs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// DevToolsSource lists the open tabs of a Chromium browser started with
// --remote-debugging-port.
type DevToolsSource struct {
	// Endpoint is the debugging address, e.g. http://127.0.0.1:9222.
	Endpoint string
	Client   *http.Client
}

type devtoolsTarget struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// List returns the open pages in browser order.
func (s DevToolsSource) List(ctx context.Context) ([]Candidate, error) {
	hc := s.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	endpoint := strings.TrimRight(s.Endpoint, "/") + "/json/list"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid devtools endpoint: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach browser at %s: %w", s.Endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("browser at %s answered %s", s.Endpoint, resp.Status)
	}

	var targets []devtoolsTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("failed to decode tab list: %w", err)
	}
	pages := lo.Filter(targets, func(t devtoolsTarget, _ int) bool { return t.Type == "page" })
	return lo.Map(pages, func(t devtoolsTarget, i int) Candidate {
		return Candidate{ID: i + 1, URL: t.URL, Title: t.Title}
	}), nil
}
