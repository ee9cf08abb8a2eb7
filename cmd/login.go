package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mise-en-place/cli/internal/credentials"
	"github.com/mise-en-place/cli/internal/oauth"
	"github.com/mise-en-place/cli/pkg/api"
	"github.com/mise-en-place/cli/pkg/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// AuthService is the part of the API client used to sign in.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	FetchQuota(ctx context.Context, token string) (api.Quota, error)
	QuotaLine(ctx context.Context, token string) string
}

// SignInWaiter waits for a sign-in started in the browser.
type SignInWaiter interface {
	Wait(ctx context.Context, authURL string) (oauth.Result, error)
}

// LoginCmd handles signing in and out.
type LoginCmd struct {
	auth  AuthService
	store credentials.Store
}

// LoginInput holds input for a password login.
type LoginInput struct {
	Email    string
	Password string
}

// Login signs in with email and password and stores the token.
func (l LoginCmd) Login(ctx context.Context, in LoginInput) error {
	resp, err := l.auth.Login(ctx, strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		return util.CleanedUpAPIError{Err: err}
	}
	if err := l.store.Save(credentials.Credential{Token: resp.Token, DisplayName: resp.DisplayName}); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	pterm.Success.Println("Logged in successfully!")
	l.printWelcome(ctx, resp.Token, resp.DisplayName)
	return nil
}

// GoogleInput holds input for a browser sign-in.
type GoogleInput struct {
	AuthURL string
	Timeout time.Duration
}

// LoginWithGoogle sends the user to the Google sign-in page and waits for
// the token to land in the credential store.
func (l LoginCmd) LoginWithGoogle(ctx context.Context, w SignInWaiter, in GoogleInput) error {
	// A stale credential would end the wait on the first poll.
	if err := l.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	pterm.Info.Println("Sign in with Google in your browser. If it did not open, visit:")
	pterm.Println()
	pterm.Println(fmt.Sprintf("  %s", in.AuthURL))
	pterm.Println()
	pterm.Info.Println("Waiting for sign-in to complete...")

	res, err := w.Wait(ctx, in.AuthURL)
	if err != nil {
		return err
	}
	switch res.State {
	case oauth.StateCompleted:
		pterm.Success.Println("Logged in successfully!")
		l.printWelcome(ctx, res.Credential.Token, res.Credential.DisplayName)
		return nil
	case oauth.StateTimedOut:
		return fmt.Errorf("sign-in timed out after %s", in.Timeout.Round(time.Second))
	default:
		return fmt.Errorf("sign-in did not complete (%s)", res.State)
	}
}

func (l LoginCmd) printWelcome(ctx context.Context, token, name string) {
	pterm.Info.Printf("Welcome, %s\n", (&credentials.Credential{DisplayName: name}).Name())
	pterm.Info.Println(l.auth.QuotaLine(ctx, token))
}

// Logout forgets the stored credential.
func (l LoginCmd) Logout(ctx context.Context) error {
	if err := l.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	pterm.Success.Println("Logged out successfully")
	return nil
}

// --- Cobra wiring ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Mise en Place",
	Long: `Sign in with your email and password, or with Google using --google.

With --google a browser window opens on the Google sign-in page. The token
is handed back to mep on a local address once you finish signing in.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
	loginCmd.Flags().Bool("google", false, "Sign in with Google in the browser")
	loginCmd.Flags().Bool("no-browser", false, "Don't automatically open browser")
	loginCmd.Flags().Duration("timeout", 0, "How long to wait for browser sign-in (default from config, 5m)")
	loginCmd.MarkFlagsMutuallyExclusive("google", "email")
	loginCmd.MarkFlagsMutuallyExclusive("google", "password-stdin")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a := getApp(cmd)
	l := LoginCmd{auth: a.client, store: a.store}

	google, _ := cmd.Flags().GetBool("google")
	if google {
		return runGoogleLogin(cmd, a, l)
	}

	email, _ := cmd.Flags().GetString("email")
	passwordStdin, _ := cmd.Flags().GetBool("password-stdin")

	if email == "" {
		v, err := pterm.DefaultInteractiveTextInput.Show("Email")
		if err != nil {
			return err
		}
		email = v
	}

	var password string
	if passwordStdin {
		v, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
		password = v
	} else {
		v, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
		if err != nil {
			return err
		}
		password = v
	}

	return l.Login(cmd.Context(), LoginInput{Email: email, Password: password})
}

func runGoogleLogin(cmd *cobra.Command, a *app, l LoginCmd) error {
	noBrowser, _ := cmd.Flags().GetBool("no-browser")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = time.Duration(a.cfg.AuthTimeout)
	}

	srv, err := oauth.StartCallbackServer(a.store, a.log, a.cfg.BaseURL)
	if err != nil {
		return err
	}
	// Completion closes the server too; closing twice is harmless.
	defer srv.Close()

	w := oauth.NewWatcher(a.store,
		oauth.BrowserOpener{Callback: srv, NoBrowser: noBrowser, Log: a.log},
		oauth.WithPollInterval(time.Duration(a.cfg.PollInterval)),
		oauth.WithTimeout(timeout),
		oauth.WithLogger(a.log),
	)
	return l.LoginWithGoogle(cmd.Context(), w, GoogleInput{
		AuthURL: oauth.AuthorizationURL(a.cfg.BaseURL, srv.URL()),
		Timeout: timeout,
	})
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a := getApp(cmd)
	l := LoginCmd{auth: a.client, store: a.store}
	return l.Logout(cmd.Context())
}
