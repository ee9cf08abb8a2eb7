// Package update finds newer releases of mep and how the running binary
// was installed.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const releasesURL = "https://api.github.com/repos/mise-en-place/cli/releases/latest"

// InstallMethod is how the binary got onto the machine.
type InstallMethod string

const (
	InstallMethodBrew    InstallMethod = "brew"
	InstallMethodGo      InstallMethod = "go"
	InstallMethodNPM     InstallMethod = "npm"
	InstallMethodUnknown InstallMethod = "unknown"
)

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// FetchLatest returns the tag and release page of the latest release.
func FetchLatest(ctx context.Context) (tag, url string, err error) {
	return fetchLatest(ctx, http.DefaultClient, releasesURL)
}

func fetchLatest(ctx context.Context, hc *http.Client, endpoint string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := hc.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status from GitHub: %s", resp.Status)
	}

	var r release
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", "", fmt.Errorf("invalid release response: %w", err)
	}
	if r.TagName == "" {
		return "", "", errors.New("release has no tag")
	}
	return r.TagName, r.HTMLURL, nil
}

// IsNewerVersion reports whether latest is newer than current. Both may
// carry a leading "v".
func IsNewerVersion(current, latest string) (bool, error) {
	cur, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return false, fmt.Errorf("invalid current version %q: %w", current, err)
	}
	lat, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return false, fmt.Errorf("invalid latest version %q: %w", latest, err)
	}
	return lat.GreaterThan(cur), nil
}

type installRule struct {
	method InstallMethod
	check  func(path string) bool
}

// installMethodRules are checked in order; the first match wins.
func installMethodRules() []installRule {
	return []installRule{
		{InstallMethodNPM, pathMatchesNPM},
		{InstallMethodBrew, pathMatchesHomebrew},
		{InstallMethodGo, pathMatchesGo},
	}
}

// DetectInstallMethod inspects the path of the running executable.
func DetectInstallMethod() (InstallMethod, string) {
	exe, err := os.Executable()
	if err != nil {
		return InstallMethodUnknown, ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	p := filepath.ToSlash(exe)
	for _, r := range installMethodRules() {
		if r.check(p) {
			return r.method, exe
		}
	}
	return InstallMethodUnknown, exe
}

// UpgradeCommand returns the argv that upgrades an installation made with
// method, or nil when there is none.
func UpgradeCommand(method InstallMethod) []string {
	switch method {
	case InstallMethodBrew:
		return []string{"brew", "upgrade", "mise-en-place/tap/mep"}
	case InstallMethodNPM:
		return []string{"npm", "i", "-g", "@mise-en-place/cli@latest"}
	case InstallMethodGo:
		return []string{"go", "install", "github.com/mise-en-place/cli@latest"}
	default:
		return nil
	}
}

func suggestUpgradeCommandForMethod(method InstallMethod) string {
	if argv := UpgradeCommand(method); argv != nil {
		return strings.Join(argv, " ")
	}
	return strings.Join(UpgradeCommand(InstallMethodBrew), " ")
}

// SuggestUpgradeCommand is the command to show the user for the running
// binary.
func SuggestUpgradeCommand() string {
	method, _ := DetectInstallMethod()
	return suggestUpgradeCommandForMethod(method)
}

func pathMatchesNPM(p string) bool {
	return strings.Contains(p, "/.npm-global/") ||
		strings.Contains(p, "/.npm/") ||
		strings.Contains(p, "/node_modules/") ||
		strings.Contains(p, "/share/npm/")
}

func pathMatchesHomebrew(p string) bool {
	return strings.HasPrefix(p, "/opt/homebrew/") ||
		strings.Contains(p, "/Cellar/") ||
		strings.Contains(p, "/.linuxbrew/")
}

func pathMatchesGo(p string) bool {
	if gobin := os.Getenv("GOBIN"); gobin != "" && strings.HasPrefix(p, filepath.ToSlash(gobin)+"/") {
		return true
	}
	return strings.Contains(p, "/go/bin/")
}
