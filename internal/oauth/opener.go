package oauth

import (
	"context"

	"github.com/pkg/browser"
	"github.com/pterm/pterm"
)

// BrowserOpener opens the authorization URL in the system browser. A
// browser tab cannot be closed from here, so its Window closes the
// callback server instead.
type BrowserOpener struct {
	Callback  *CallbackServer
	NoBrowser bool
	Log       *pterm.Logger
}

func (o BrowserOpener) Open(ctx context.Context, url string) (Window, error) {
	if !o.NoBrowser {
		if err := browser.OpenURL(url); err != nil && o.Log != nil {
			// The URL is also printed, so the user can still open it by hand.
			o.Log.Warn("could not open browser", o.Log.Args("error", err))
		}
	}
	return callbackWindow{o.Callback}, nil
}

type callbackWindow struct {
	srv *CallbackServer
}

func (w callbackWindow) Close() error {
	if w.srv == nil {
		return nil
	}
	return w.srv.Close()
}
