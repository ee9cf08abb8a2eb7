package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/mise-en-place/cli/pkg/update"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:     "upgrade",
	Aliases: []string{"update"},
	Short:   "Upgrade mep to the latest version",
	Long: `Upgrade mep to the latest version.

Supported installation methods:
  - Homebrew (brew)
  - npm
  - go install

If your installation method cannot be detected, manual upgrade instructions will be provided.`,
	Args: cobra.NoArgs,
	RunE: runUpgrade,
}

func init() {
	upgradeCmd.Flags().Bool("dry-run", false, "Show what would be executed without running")
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	currentVersion := metadata.Version

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	pterm.Info.Println("Checking for updates...")

	latestTag, releaseURL, err := update.FetchLatest(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	isNewer, err := update.IsNewerVersion(currentVersion, latestTag)
	if err != nil {
		// Development builds have no comparable version; upgrade anyway.
		pterm.Warning.Printf("Could not compare versions (%s vs %s): %v\n", currentVersion, latestTag, err)
		pterm.Info.Println("Proceeding with upgrade...")
	} else if !isNewer {
		pterm.Success.Printf("You are already on the latest version (%s)\n", strings.TrimPrefix(currentVersion, "v"))
		return nil
	} else {
		pterm.Info.Printf("New version available: %s → %s\n", strings.TrimPrefix(currentVersion, "v"), strings.TrimPrefix(latestTag, "v"))
		if releaseURL != "" {
			pterm.Info.Printf("Release notes: %s\n", releaseURL)
		}
	}

	method, binaryPath := update.DetectInstallMethod()
	argv := update.UpgradeCommand(method)
	if argv == nil {
		printManualUpgradeInstructions(latestTag, binaryPath)
		return fmt.Errorf("could not detect installation method")
	}

	if dryRun {
		pterm.Info.Printf("Would run: %s\n", strings.Join(argv, " "))
		return nil
	}

	pterm.Info.Printf("Upgrading via %s...\n", method)
	c := exec.CommandContext(cmd.Context(), argv[0], argv[1:]...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Stdin = os.Stdin
	return c.Run()
}

// printManualUpgradeInstructions prints instructions for manually upgrading mep
func printManualUpgradeInstructions(version, binaryPath string) {
	version = strings.TrimPrefix(version, "v")

	downloadURL := fmt.Sprintf(
		"https://github.com/mise-en-place/cli/releases/download/v%s/mep_%s_%s_%s.tar.gz",
		version, version, runtime.GOOS, runtime.GOARCH,
	)

	if binaryPath == "" {
		binaryPath = "/usr/local/bin/mep"
	}

	pterm.Warning.Println("Could not detect installation method.")
	pterm.Info.Println("To upgrade manually, run:")
	pterm.Println()
	fmt.Printf("  wget %s -O /tmp/mep.tar.gz\n", downloadURL)
	fmt.Printf("  tar -xzf /tmp/mep.tar.gz -C /tmp\n")
	fmt.Printf("  sudo cp /tmp/mep %s\n", binaryPath)
	pterm.Println()
}
