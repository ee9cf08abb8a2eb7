package update

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestUpgradeCommandForMethod(t *testing.T) {
	tests := []struct {
		method   InstallMethod
		expected string
	}{
		{InstallMethodBrew, "brew upgrade mise-en-place/tap/mep"},
		{InstallMethodNPM, "npm i -g @mise-en-place/cli@latest"},
		{InstallMethodGo, "go install github.com/mise-en-place/cli@latest"},
		{InstallMethodUnknown, "brew upgrade mise-en-place/tap/mep"},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			assert.Equal(t, tt.expected, suggestUpgradeCommandForMethod(tt.method))
		})
	}
}

func TestPathMatchesNPM(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/home/user/.npm-global/bin/mep", true},
		{"/home/user/.npm/bin/mep", true},
		{"/usr/local/lib/node_modules/.bin/mep", true},
		{"/home/user/.local/share/npm/bin/mep", true},
		{"/opt/homebrew/bin/mep", false},
		{"/home/user/go/bin/mep", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, pathMatchesNPM(tt.path))
		})
	}
}

func TestPathMatchesHomebrew(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/opt/homebrew/bin/mep", true},
		{"/usr/local/Cellar/mep/1.0/bin/mep", true},
		{"/home/linuxbrew/.linuxbrew/Cellar/mep/1.0/bin/mep", true},
		{"/home/user/.npm-global/bin/mep", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, pathMatchesHomebrew(tt.path))
		})
	}
}

func TestPathMatchesGo(t *testing.T) {
	t.Setenv("GOBIN", "/srv/tools")
	assert.True(t, pathMatchesGo("/home/user/go/bin/mep"))
	assert.True(t, pathMatchesGo("/srv/tools/mep"))
	assert.False(t, pathMatchesGo("/usr/local/bin/mep"))
}

func TestInstallMethodRulesPathPrecedence(t *testing.T) {
	t.Setenv("GOBIN", "")
	rules := installMethodRules()

	detect := func(path string) InstallMethod {
		for _, r := range rules {
			if r.check(path) {
				return r.method
			}
		}
		return InstallMethodUnknown
	}

	assert.Equal(t, InstallMethodNPM, detect("/home/user/.npm-global/bin/mep"))
	assert.Equal(t, InstallMethodBrew, detect("/opt/homebrew/bin/mep"))
	assert.Equal(t, InstallMethodGo, detect("/home/user/go/bin/mep"))
	assert.Equal(t, InstallMethodUnknown, detect("/usr/local/bin/mep"))
}

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"v1.2.3", "v1.3.0", true},
		{"1.2.3", "v1.2.3", false},
		{"v2.0.0", "1.9.9", false},
		{"1.0.0-rc.1", "1.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.latest, func(t *testing.T) {
			got, err := IsNewerVersion(tt.current, tt.latest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := IsNewerVersion("dev", "v1.0.0")
	assert.Error(t, err)
}

func TestFetchLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v0.4.0","html_url":"https://github.com/mise-en-place/cli/releases/tag/v0.4.0"}`)
	}))
	defer srv.Close()

	tag, url, err := fetchLatest(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "v0.4.0", tag)
	assert.Contains(t, url, "/releases/tag/v0.4.0")
}

func TestFetchLatest_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, err := fetchLatest(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
}
