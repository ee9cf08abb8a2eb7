package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mise-en-place/cli/internal/credentials"
	"github.com/mise-en-place/cli/pkg/api"
	"github.com/mise-en-place/cli/pkg/table"
	"github.com/mise-en-place/cli/pkg/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// AccountCmd shows who is signed in and how many imports are left.
type AccountCmd struct {
	auth  AuthService
	store credentials.Store
	now   func() time.Time
}

type whoamiJSON struct {
	Name      string     `json:"name"`
	Subject   string     `json:"subject,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
	Quota     *api.Quota `json:"quota"`
}

// WhoamiInput holds input for whoami.
type WhoamiInput struct {
	Output string
}

// Whoami prints the signed-in user. The quota is best-effort.
func (c AccountCmd) Whoami(ctx context.Context, in WhoamiInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}
	cred, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	if !cred.Valid() {
		return errNotLoggedIn
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	info, isJWT := credentials.Inspect(cred.Token)

	if in.Output == "json" {
		out := whoamiJSON{Name: cred.Name(), Subject: info.Subject, Expired: info.Expired(now())}
		if isJWT && !info.ExpiresAt.IsZero() {
			exp := info.ExpiresAt
			out.ExpiresAt = &exp
		}
		if q, err := c.auth.FetchQuota(ctx, cred.Token); err == nil {
			out.Quota = &q
		}
		return util.PrintPrettyJSON(out)
	}

	rows := pterm.TableData{{"Property", "Value"}}
	rows = append(rows, []string{"Name", cred.Name()})
	if isJWT {
		rows = append(rows, []string{"Account", util.OrDash(info.Subject)})
		expires := "-"
		if !info.ExpiresAt.IsZero() {
			expires = info.ExpiresAt.Local().Format(time.RFC3339)
			if info.Expired(now()) {
				expires += " (expired)"
			}
		}
		rows = append(rows, []string{"Token Expires", expires})
	}
	rows = append(rows, []string{"Quota", c.auth.QuotaLine(ctx, cred.Token)})
	table.PrintTableNoPad(rows, true)
	return nil
}

// QuotaInput holds input for quota.
type QuotaInput struct {
	Output string
}

// Quota prints how many imports are left this month.
func (c AccountCmd) Quota(ctx context.Context, in QuotaInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}
	token, err := requireToken(c.store)
	if err != nil {
		return err
	}

	if in.Output != "json" {
		pterm.Info.Println(c.auth.QuotaLine(ctx, token))
		return nil
	}

	q, err := c.auth.FetchQuota(ctx, token)
	if err != nil {
		reportUnauthorized(err)
		return util.CleanedUpAPIError{Err: err}
	}
	return util.PrintPrettyJSON(q)
}

// --- Cobra wiring ---

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show how many imports are left this month",
	Args:  cobra.NoArgs,
	RunE:  runQuota,
}

func init() {
	addOutputFlag(whoamiCmd)
	addOutputFlag(quotaCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a := getApp(cmd)
	c := AccountCmd{auth: a.client, store: a.store}
	return c.Whoami(cmd.Context(), WhoamiInput{Output: getOutput(cmd)})
}

func runQuota(cmd *cobra.Command, args []string) error {
	a := getApp(cmd)
	c := AccountCmd{auth: a.client, store: a.store}
	return c.Quota(cmd.Context(), QuotaInput{Output: getOutput(cmd)})
}

var _ AuthService = (*api.Client)(nil)
