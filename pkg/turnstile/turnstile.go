package turnstile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// Verifier checks a Cloudflare Turnstile response token before login proceeds.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

type client struct {
	cfg  config.TurnstileConfig
	http *http.Client
	logg *logger.Logger
}

type Params struct {
	Config config.TurnstileConfig
	Logger *logger.Logger
}

// New builds a Turnstile verifier. When verification is disabled every token
// passes; when enabled, an unreachable verify endpoint fails closed.
func New(p Params) (Verifier, error) {
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if p.Config.Enabled && strings.TrimSpace(p.Config.Secret) == "" {
		return nil, fmt.Errorf("turnstile secret is required when enabled")
	}

	return &client{
		cfg:  p.Config,
		http: &http.Client{Timeout: p.Config.Timeout},
		logg: p.Logger,
	}, nil
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (c *client) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if !c.cfg.Enabled {
		return true, nil
	}
	if strings.TrimSpace(token) == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", c.cfg.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("turnstile verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("turnstile verify: status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode verify response: %w", err)
	}
	if !body.Success {
		c.logg.Warn(c.logg.WithField(ctx, "error_codes", body.ErrorCodes), "turnstile rejected token")
	}
	return body.Success, nil
}
