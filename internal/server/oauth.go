package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
)

// HandshakeFlow starts and completes the Discogs three-legged authorization.
// Complete only succeeds for the owner that called Begin with the same token.
type HandshakeFlow interface {
	Begin(ctx context.Context, owner, callbackURL string) (*models.TemporaryCredential, error)
	Complete(ctx context.Context, owner string, cb services.Callback) (*models.AccessCredential, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Credential *models.AccessCredential
	err        error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the single Discogs callback of a CLI login.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	flow        HandshakeFlow
	owner       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler that completes flow for owner with the first callback it receives.
func NewOAuthHandler(flow HandshakeFlow, owner string) *OAuthHandler {
	return &OAuthHandler{
		flow:       flow,
		owner:      owner,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP exchanges the verifier for an access credential and sends the result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	cred, err := h.flow.Complete(r.Context(), h.owner, services.ParseCallback(r.URL.Query()))
	switch {
	case errors.Is(err, shared.ErrAuthorizationDenied):
		h.Send(OAuthResult{err: err})
		renderCallbackPage(w, http.StatusOK, callbackPage{
			Title:   "Authorization Denied",
			Message: "Discogs access was not granted. You can close this window.",
			Kind:    "denied",
		})
	case err != nil:
		h.Send(OAuthResult{err: err})
		renderCallbackPage(w, statusFor(err), callbackPage{
			Title:   "Authorization Failed",
			Message: err.Error(),
			Kind:    "failed",
		})
	default:
		h.Send(OAuthResult{Credential: cred})
		renderCallbackPage(w, http.StatusOK, callbackPage{
			Title:   "Authorization Successful",
			Message: "Connected as " + cred.Username + ". You can close this window and return to the terminal.",
			Kind:    "ok",
		})
	}
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

type callbackPage struct {
	Title   string
	Message string
	Kind    string
}

var callbackTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { margin: 0 0 1rem 0; }
        h1.ok { color: #333; }
        h1.denied { color: #b58900; }
        h1.failed { color: #dc322f; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1 class="{{.Kind}}">{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

func renderCallbackPage(w http.ResponseWriter, status int, page callbackPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackTemplate.Execute(w, page)
}
