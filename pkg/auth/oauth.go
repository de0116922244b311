package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/casetime/pkg/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4" // Used for sheets.SpreadsheetsScope
)

const (
	// LocalhostAuthPort is the port that the local web server will listen on
	// to capture the OAuth redirect.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// Scopes requested for every client: read and write access to spreadsheets.
var Scopes = []string{sheets.SpreadsheetsScope}

// NewHTTPClient returns an authorized client for the auth mode picked in the config.
// The choice is made once here; nothing downstream looks at credentials again.
func NewHTTPClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	switch cfg.Auth.Mode {
	case config.AuthServiceAccount:
		return serviceAccountClient(ctx, cfg.Path(cfg.Auth.ServiceAccountFile))
	case config.AuthOAuth, "":
		return GetClient(ctx, cfg.Path(cfg.Auth.CredentialsFile), cfg.Path(cfg.Auth.TokenFile), Scopes)
	default:
		return nil, fmt.Errorf("unknown auth mode '%s'", cfg.Auth.Mode)
	}
}

func serviceAccountClient(ctx context.Context, keyFile string) (*http.Client, error) {
	b, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file %s: %w", keyFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account file: %w", err)
	}
	return oauth2.NewClient(ctx, creds.TokenSource), nil
}

// GetConfig creates an oauth2.Config from the client secrets file and specified scopes.
func GetConfig(clientSecretsFile string, scopes []string) (*oauth2.Config, error) {
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	parsedURL, parseErr := url.Parse(config.RedirectURL)
	if parseErr != nil {
		log.Printf("Warning: Could not parse RedirectURL '%s': %v. Using it as is.", config.RedirectURL, parseErr)
	} else if parsedURL.Hostname() == "localhost" || parsedURL.Hostname() == "127.0.0.1" {
		// The local listener always binds LocalhostAuthPort, so the redirect must point at it.
		if parsedURL.Port() != "" && parsedURL.Port() != LocalhostAuthPort {
			log.Printf("Warning: Mismatch in localhost redirect port. credentials.json has '%s', forcing '%s'.", parsedURL.Port(), LocalhostAuthPort)
		}
		parsedURL.Host = net.JoinHostPort(parsedURL.Hostname(), LocalhostAuthPort)
		config.RedirectURL = parsedURL.String()
	} else if config.RedirectURL == "urn:ietf:wg:oauth:2.0:oob" {
		config.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
		log.Printf("Overriding 'urn:ietf:wg:oauth:2.0:oob' RedirectURL to: %s", config.RedirectURL)
	} else {
		log.Printf("Warning: Configured RedirectURL in credentials.json is not a localhost callback or OOB: %s. Ensure this is correct for your setup.", config.RedirectURL)
	}

	return config, nil
}

// GetClient retrieves an authenticated *http.Client.
// It loads the cached token, or runs the web authorization flow if there is none.
// Refreshed tokens are written back to tokenFile.
func GetClient(ctx context.Context, clientSecretsFile, tokenFile string, scopes []string) (*http.Client, error) {
	config, err := GetConfig(clientSecretsFile, scopes)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		log.Printf("No existing token found at %s. Initiating web authorization flow...", tokenFile)
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	src := &savingTokenSource{
		base: config.TokenSource(ctx, tok),
		path: tokenFile,
		last: tok,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// Reauthenticate discards the cached token and runs the authorization flow again.
func Reauthenticate(ctx context.Context, cfg *config.Config) error {
	tokenFile := cfg.Path(cfg.Auth.TokenFile)
	if _, err := os.Stat(tokenFile); err == nil {
		log.Printf("Removing existing token file at '%s'", tokenFile)
		if err := os.Remove(tokenFile); err != nil {
			return fmt.Errorf("could not delete token file '%s': %w. Please delete it manually", tokenFile, err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("could not check token file '%s', error %v", tokenFile, err)
	}

	_, err := GetClient(ctx, cfg.Path(cfg.Auth.CredentialsFile), tokenFile, Scopes)
	return err
}

// savingTokenSource persists every token that differs from the last one seen,
// so a refreshed access token or a rotated refresh token survives the process.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		if err := saveToken(s.path, tok); err != nil {
			log.Printf("Warning: Could not save refreshed token: %v", err)
		}
		s.last = tok
	}
	return tok, nil
}

// getTokenFromWeb initiates the OAuth 2.0 authorization code flow via a local web server.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	state := uuid.NewString()

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler:      callbackHandler(state, codeCh, errCh),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Printf("Local server listening on %s for OAuth2 redirect...", config.RedirectURL)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			sendErr(errCh, fmt.Errorf("HTTP server error: %w", err))
		}
	}()
	defer server.Shutdown(context.Background())

	// AccessTypeOffline is crucial to ensure a refresh token is returned.
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to authorize casetime:\n%s\n", authURL)
	log.Println("Waiting for authorization code...")

	select {
	case authCode := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exchangeCtx, authCode)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("authorization timed out. Please try again")
	}
}

// callbackHandler captures the authorization code from the OAuth redirect.
func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("oauth state mismatch in redirect URL"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Authorization code not found", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("authorization code not found in redirect URL"))
			return
		}
		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
	})
}

func sendErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken saves an oauth2.Token to a JSON file readable only by the owner.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to encode OAuth token: %w", err)
	}
	return nil
}
