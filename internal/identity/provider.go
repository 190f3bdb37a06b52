package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrUnknownIdentity = errors.New("unknown identity")

// Provider resolves authenticated identities. Authenticate maps a bearer
// credential to a stable owner id; ResolveEmail maps an owner id to the
// address reminders are delivered to.
type Provider interface {
	Authenticate(ctx context.Context, token string) (string, error)
	ResolveEmail(ctx context.Context, ownerID string) (string, error)
}

type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// HTTPProvider is a client for an external auth service exposing
// supabase-style user endpoints.
type HTTPProvider struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func NewHTTPProvider(config Config) *HTTPProvider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		serviceKey: config.ServiceKey,
		client:     &http.Client{Timeout: timeout},
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (p *HTTPProvider) Authenticate(ctx context.Context, token string) (string, error) {
	u, err := p.getUser(ctx, p.baseURL+"/auth/v1/user", token)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func (p *HTTPProvider) ResolveEmail(ctx context.Context, ownerID string) (string, error) {
	u, err := p.getUser(ctx, p.baseURL+"/auth/v1/admin/users/"+ownerID, p.serviceKey)
	if err != nil {
		return "", err
	}
	if u.Email == "" {
		return "", fmt.Errorf("owner %q has no email: %w", ownerID, ErrUnknownIdentity)
	}
	return u.Email, nil
}

func (p *HTTPProvider) getUser(ctx context.Context, url string, token string) (userResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return userResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return userResponse{}, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return userResponse{}, ErrUnknownIdentity
	default:
		return userResponse{}, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var u userResponse
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return userResponse{}, fmt.Errorf("failed to parse identity response: %w", err)
	}
	if u.ID == "" {
		return userResponse{}, ErrUnknownIdentity
	}
	return u, nil
}
