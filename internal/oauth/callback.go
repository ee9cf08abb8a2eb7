package oauth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mise-en-place/cli/internal/credentials"
	"github.com/pterm/pterm"
)

const callbackPath = "/callback"

// messageAuthSuccess is the message type posted by the provider's
// completion page.
const messageAuthSuccess = "AUTH_SUCCESS"

// AuthorizationURL returns the Google sign-in URL of the service at base.
// The extension marker tells the service to hand the token back to a
// client instead of starting a web session. The callback's state is
// repeated as a top-level parameter.
func AuthorizationURL(base, callback string) string {
	q := url.Values{}
	q.Set("extension", "1")
	if callback != "" {
		q.Set("redirect_uri", callback)
		if u, err := url.Parse(callback); err == nil && u.Query().Get("state") != "" {
			q.Set("state", u.Query().Get("state"))
		}
	}
	return strings.TrimRight(base, "/") + "/auth/google?" + q.Encode()
}

// CallbackServer receives the token from the provider's completion page on
// a loopback address and writes it to the credential store.
type CallbackServer struct {
	store credentials.Store
	log   *pterm.Logger
	ln    net.Listener
	srv   *http.Server
	// state is a per-login secret that every callback must echo back.
	state string
	// origin is the only Origin accepted on posted messages.
	origin string
}

type authMessage struct {
	Type     string `json:"type"`
	State    string `json:"state"`
	Token    string `json:"token"`
	UserName string `json:"userName"`
}

type messageReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// StartCallbackServer listens on a random loopback port and serves in the
// background until Close is called. serviceURL is the service the token
// comes from; posted messages are only accepted from its origin.
func StartCallbackServer(store credentials.Store, log *pterm.Logger, serviceURL string) (*CallbackServer, error) {
	origin, err := originOf(serviceURL)
	if err != nil {
		return nil, err
	}
	state, err := newState()
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}
	if log == nil {
		log = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}

	s := &CallbackServer{store: store, log: log, ln: ln, state: state, origin: origin}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+callbackPath, s.handleRedirect)
	mux.HandleFunc("POST "+callbackPath, s.handleMessage)
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("callback server stopped", log.Args("error", err))
		}
	}()
	return s, nil
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate sign-in state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func originOf(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid service URL %q", raw)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}

// URL is the callback address handed to the provider. It carries the
// state the provider must send back.
func (s *CallbackServer) URL() string {
	return "http://" + s.ln.Addr().String() + callbackPath + "?state=" + s.state
}

// State returns the secret expected on every callback.
func (s *CallbackServer) State() string { return s.state }

func (s *CallbackServer) validState(got string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(s.state)) == 1
}

// Close stops the server, letting an in-flight callback finish.
func (s *CallbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *CallbackServer) save(token, name string) error {
	return s.store.Save(credentials.Credential{Token: token, DisplayName: name})
}

// handleRedirect handles the browser being redirected to
// /callback?token=...&name=....
func (s *CallbackServer) handleRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")
	name := q.Get("name")
	if name == "" {
		name = q.Get("userName")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !s.validState(q.Get("state")) {
		s.log.Warn("rejected callback with a wrong state")
		w.WriteHeader(http.StatusForbidden)
		_ = callbackPage.Execute(w, pageData{Title: "Sign-in failed", Message: "This sign-in link does not belong to the running login. Start it again from the terminal."})
		return
	}
	if token == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = callbackPage.Execute(w, pageData{Title: "Sign-in failed", Message: "No token was received. Return to the terminal and try again."})
		return
	}
	if err := s.save(token, name); err != nil {
		s.log.Error("saving credential", s.log.Args("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = callbackPage.Execute(w, pageData{Title: "Sign-in failed", Message: "Could not store your credentials."})
		return
	}
	s.log.Debug("credential received via redirect")
	_ = callbackPage.Execute(w, pageData{Title: "Signed in", Message: "You can close this window and return to the terminal.", Close: true})
}

// handleMessage handles a JSON message posted by the completion page.
func (s *CallbackServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	reply := func(status int, m messageReply) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(m)
	}

	if o := strings.ToLower(r.Header.Get("Origin")); o != s.origin {
		s.log.Warn("rejected message from another origin", s.log.Args("origin", o))
		reply(http.StatusForbidden, messageReply{Error: "origin not allowed"})
		return
	}

	var msg authMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&msg); err != nil {
		reply(http.StatusBadRequest, messageReply{Error: "invalid message"})
		return
	}
	if msg.Type != messageAuthSuccess {
		reply(http.StatusOK, messageReply{Error: "Unknown message type"})
		return
	}
	state := msg.State
	if state == "" {
		state = r.URL.Query().Get("state")
	}
	if !s.validState(state) {
		s.log.Warn("rejected message with a wrong state")
		reply(http.StatusForbidden, messageReply{Error: "state mismatch"})
		return
	}
	if err := s.save(msg.Token, msg.UserName); err != nil {
		reply(http.StatusOK, messageReply{Error: err.Error()})
		return
	}
	s.log.Debug("credential received via message")
	reply(http.StatusOK, messageReply{Success: true})
}

type pageData struct {
	Title   string
	Message string
	Close   bool
}

var callbackPage = template.Must(template.New("callback").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .Close}}<script>setTimeout(function () { window.close(); }, 1000);</script>{{end}}
</body></html>
`))
