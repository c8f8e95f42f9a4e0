package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	calendarapp "github.com/taskflow/backend/internal/application/calendar"
	"github.com/taskflow/backend/internal/domain/calendar"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	calendarv3 "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const defaultRevokeURL = "https://oauth2.googleapis.com/revoke"

var _ calendarapp.Provider = (*Provider)(nil)

// Provider implements the OAuth flow and opens Calendar v3 sessions
type Provider struct {
	oauth       *oauth2.Config
	httpClient  *http.Client
	apiEndpoint string // empty means the public Google endpoint
	revokeURL   string
	logger      *zap.Logger
}

// ProviderOption configures a Provider
type ProviderOption func(*Provider)

// WithHTTPClient sets the transport used for token and API calls
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithEndpoints points the provider at alternative token, API and revoke URLs
func WithEndpoints(authURL, tokenURL, apiEndpoint, revokeURL string) ProviderOption {
	return func(p *Provider) {
		p.oauth.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
		p.apiEndpoint = apiEndpoint
		p.revokeURL = revokeURL
	}
}

// WithProviderLogger sets the logger
func WithProviderLogger(l *zap.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = l
	}
}

// NewProvider builds a provider from the Google configuration
func NewProvider(cfg config.GoogleConfig, opts ...ProviderOption) *Provider {
	p := &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       []string{calendarv3.CalendarEventsScope},
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		revokeURL:  defaultRevokeURL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthCodeURL returns the consent URL. Offline access with a forced prompt
// makes Google issue a refresh token on every consent.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token pair
func (p *Provider) Exchange(ctx context.Context, code string) (*calendar.Token, error) {
	tok, err := p.oauth.Exchange(p.withClient(ctx), code)
	if err != nil {
		p.logger.Warn("OAuth code exchange failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", calendar.ErrAuthFailed, err)
	}
	return fromOAuthToken(tok), nil
}

// Revoke invalidates the grant at Google. A token Google no longer knows
// counts as revoked.
func (p *Provider) Revoke(ctx context.Context, token *calendar.Token) error {
	value := token.RefreshToken
	if value == "" {
		value = token.AccessToken
	}
	if value == "" {
		return nil
	}

	form := url.Values{"token": {value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", calendar.ErrCalendarUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusBadRequest {
		return nil
	}
	return fmt.Errorf("%w: revoke returned %d", calendar.ErrCalendarUnavailable, resp.StatusCode)
}

// NewClient opens a calendar session that refreshes the token as needed
func (p *Provider) NewClient(ctx context.Context, token *calendar.Token) (calendarapp.Client, error) {
	original := toOAuthToken(token)
	ts := oauth2.ReuseTokenSource(original, p.oauth.TokenSource(p.withClient(context.Background()), original))

	opts := []option.ClientOption{option.WithHTTPClient(&http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: p.httpClient.Transport},
		Timeout:   p.httpClient.Timeout,
	})}
	if p.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.apiEndpoint))
	}

	svc, err := calendarv3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &client{svc: svc, source: ts, original: original, userID: token.UserID}, nil
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func toOAuthToken(t *calendar.Token) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

func fromOAuthToken(t *oauth2.Token) *calendar.Token {
	return &calendar.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry.UTC(),
	}
}

// translateError maps transport errors onto calendar domain errors
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		if retrieve.ErrorCode == "invalid_grant" || strings.Contains(string(retrieve.Body), "invalid_grant") {
			return calendar.ErrReconnectRequired
		}
		return fmt.Errorf("%w: %v", calendar.ErrAuthFailed, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound, http.StatusGone:
			return calendar.ErrEventNotFound
		case http.StatusUnauthorized:
			return calendar.ErrReconnectRequired
		}
	}
	return fmt.Errorf("%w: %v", calendar.ErrCalendarUnavailable, err)
}
