// internal/common/auth/google.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

// EarthEngineScope is the OAuth scope required for Earth Engine REST calls.
const EarthEngineScope = "https://www.googleapis.com/auth/earthengine"

const defaultTokenURL = "https://oauth2.googleapis.com/token"

// ServiceAccount holds the fields we need from a Google service-account key file.
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// LoadServiceAccount reads and validates a service-account key file.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if sa.Type != "service_account" {
		return nil, fmt.Errorf("unexpected credential type %q, want service_account", sa.Type)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, fmt.Errorf("credentials file missing client_email or private_key")
	}

	return &sa, nil
}

// TokenSource returns a cached, auto-refreshing OAuth2 token source using the
// two-legged JWT flow. Tokens are minted server-side with no user interaction.
func (sa *ServiceAccount) TokenSource(ctx context.Context, scopes ...string) oauth2.TokenSource {
	tokenURL := sa.TokenURI
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}

	cfg := &jwt.Config{
		Email:      sa.ClientEmail,
		PrivateKey: []byte(sa.PrivateKey),
		Scopes:     scopes,
		TokenURL:   tokenURL,
	}

	return oauth2.ReuseTokenSource(nil, cfg.TokenSource(ctx))
}
