package tabs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	cands := []Candidate{
		{ID: 1, URL: "https://blog.example/soup"},
		{ID: 2, URL: "chrome://settings"},
		{ID: 3, URL: "https://mise-en-place.recipes/recipes/4"},
		{ID: 4, URL: "http://food.example/bread"},
		{ID: 5, URL: "https://app.mise-en-place.recipes/x"},
		{ID: 6, URL: "file:///tmp/x.html"},
		{ID: 7, URL: "not a url"},
		{ID: 8, URL: "https://notmise-en-place.recipes/ok"},
	}

	got := Filter(cands, "mise-en-place.recipes")
	assert.Equal(t, []int{1, 4, 8}, ids(got))

	got = Filter(cands, "")
	assert.Equal(t, []int{1, 3, 4, 5, 8}, ids(got))

	assert.Empty(t, Filter(nil, "x"))
}

func ids(cands []Candidate) []int {
	out := make([]int, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.ID)
	}
	return out
}

func TestReadLines(t *testing.T) {
	in := strings.Join([]string{
		"# weekend baking",
		"https://a.example/bread",
		"",
		"  https://b.example/cake\tChocolate cake  ",
		"https://c.example/pie",
	}, "\n")

	got, err := ReadLines(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Candidate{
		{ID: 1, URL: "https://a.example/bread"},
		{ID: 2, URL: "https://b.example/cake", Title: "Chocolate cake"},
		{ID: 3, URL: "https://c.example/pie"},
	}, got)
}

func TestFromURLs(t *testing.T) {
	got := FromURLs([]string{" https://a ", "https://b"})
	assert.Equal(t, []Candidate{{ID: 1, URL: "https://a"}, {ID: 2, URL: "https://b"}}, got)
	assert.Equal(t, []string{"https://a", "https://b"}, URLs(got))
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Untitled", Candidate{}.DisplayTitle())
	assert.Equal(t, "Soup", Candidate{Title: "Soup"}.DisplayTitle())
}

func TestDevToolsSource_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/json/list", r.URL.Path)
		fmt.Fprint(w, `[
			{"id":"A","type":"page","title":"Soup","url":"https://a.example/soup"},
			{"id":"B","type":"service_worker","title":"sw","url":"https://a.example/sw.js"},
			{"id":"C","type":"page","title":"","url":"https://b.example/bread"}
		]`)
	}))
	defer srv.Close()

	got, err := DevToolsSource{Endpoint: srv.URL + "/"}.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Candidate{
		{ID: 1, URL: "https://a.example/soup", Title: "Soup"},
		{ID: 2, URL: "https://b.example/bread"},
	}, got)
}

func TestDevToolsSource_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := DevToolsSource{Endpoint: srv.URL}.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	srv.Close()
	_, err = DevToolsSource{Endpoint: srv.URL}.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach browser")
}

func TestResolveTitles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/soup":
			fmt.Fprint(w, "<html><head><title>\n  Tomato   soup\n</title></head><body></body></html>")
		case "/og":
			fmt.Fprint(w, `<html><head><meta property="og:title" content="Sourdough"></head></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	in := []Candidate{
		{ID: 1, URL: srv.URL + "/soup"},
		{ID: 2, URL: srv.URL + "/og"},
		{ID: 3, URL: srv.URL + "/missing"},
		{ID: 4, URL: srv.URL + "/soup", Title: "Kept"},
	}
	got := ResolveTitles(context.Background(), srv.Client(), in, nil)

	assert.Equal(t, "Tomato soup", got[0].Title)
	assert.Equal(t, "Sourdough", got[1].Title)
	assert.Equal(t, "", got[2].Title)
	assert.Equal(t, "Untitled", got[2].DisplayTitle())
	assert.Equal(t, "Kept", got[3].Title)
	assert.Equal(t, "", in[0].Title, "input is not modified")
}

func TestResolveTitles_StalledPageTimesOut(t *testing.T) {
	old := titleTimeout
	titleTimeout = 50 * time.Millisecond
	t.Cleanup(func() { titleTimeout = old })

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stalled" {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		fmt.Fprint(w, "<html><head><title>Bread</title></head></html>")
	}))
	defer srv.Close()
	defer close(release)

	in := []Candidate{{ID: 1, URL: srv.URL + "/stalled"}, {ID: 2, URL: srv.URL + "/bread"}}
	start := time.Now()
	got := ResolveTitles(context.Background(), nil, in, nil)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, "", got[0].Title)
	assert.Equal(t, "Bread", got[1].Title)
}
