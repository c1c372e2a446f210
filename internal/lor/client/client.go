// Package client talks to the Legends of Runeterra local game client API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/LoR-Companion/internal/lor/expedition"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/frame"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/match"
)

// DefaultPort is the port the game client listens on unless changed in its settings.
const DefaultPort = 21337

const (
	EndpointPositionalRectangles = "positional-rectangles"
	EndpointStaticDecklist       = "static-decklist"
	EndpointExpeditionsState     = "expeditions-state"
	EndpointGameResult           = "game-result"
)

// Config holds configuration for the local API client.
type Config struct {
	// BaseURL is the base URL of the local API (e.g., "http://localhost:21337")
	BaseURL string

	// APIKey is sent as the X-Riot-Token header and api_key query parameter when set.
	APIKey string

	// Timeout is the timeout for individual requests
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts
	MaxRetries int

	// RetryBaseDelay is the base delay for exponential backoff
	RetryBaseDelay time.Duration

	// RequestsPerSecond caps how often the local API is hit.
	RequestsPerSecond float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(port int) *Config {
	if port <= 0 {
		port = DefaultPort
	}
	return &Config{
		BaseURL:           fmt.Sprintf("http://localhost:%d", port),
		Timeout:           5 * time.Second,
		MaxRetries:        2,
		RetryBaseDelay:    250 * time.Millisecond,
		RequestsPerSecond: 20,
	}
}

// Client is an HTTP client for the game client's local API.
type Client struct {
	config      *Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// New creates a new local API client.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig(DefaultPort)
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: rate.NewLimiter(limit, 1),
	}
}

// Decklist is the payload of the static-decklist endpoint.
type Decklist struct {
	DeckCode    string         `json:"DeckCode"`
	CardsInDeck map[string]int `json:"CardsInDeck"`
}

// Empty reports whether the client returned no deck, as it does outside of a match.
func (d *Decklist) Empty() bool {
	return d == nil || (d.DeckCode == "" && len(d.CardsInDeck) == 0)
}

// GetEndpoint fetches GET /{endpoint} and returns the decoded JSON object.
func (c *Client) GetEndpoint(ctx context.Context, endpoint string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.doRequest(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", endpoint, err)
	}
	return result, nil
}

// GetPositionalRectangles fetches and classifies the current frame.
func (c *Client) GetPositionalRectangles(ctx context.Context) (*frame.GameFrame, error) {
	raw, err := c.GetEndpoint(ctx, EndpointPositionalRectangles)
	if err != nil {
		return nil, err
	}
	return frame.Parse(raw), nil
}

// GetStaticDecklist fetches the deck the player entered the match with.
func (c *Client) GetStaticDecklist(ctx context.Context) (*Decklist, error) {
	var decklist Decklist
	if err := c.doRequest(ctx, EndpointStaticDecklist, &decklist); err != nil {
		return nil, fmt.Errorf("failed to get decklist: %w", err)
	}
	return &decklist, nil
}

// GetExpeditionsState fetches the Expedition mode status.
func (c *Client) GetExpeditionsState(ctx context.Context) (*expedition.State, error) {
	raw, err := c.GetEndpoint(ctx, EndpointExpeditionsState)
	if err != nil {
		return nil, err
	}
	return expedition.Parse(raw), nil
}

// GetGameResult fetches the result of the most recent game.
func (c *Client) GetGameResult(ctx context.Context) (match.Result, error) {
	raw, err := c.GetEndpoint(ctx, EndpointGameResult)
	if err != nil {
		return match.Result{GameID: match.NoGameID}, err
	}
	return match.ParseResult(raw), nil
}

// IsHealthy checks if the game client is running and responding.
func (c *Client) IsHealthy(ctx context.Context) bool {
	_, err := c.GetEndpoint(ctx, EndpointPositionalRectangles)
	return err == nil
}

func (c *Client) endpointURL(endpoint string) string {
	u := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	if c.config.APIKey == "" {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "api_key=" + url.QueryEscape(c.config.APIKey)
}

// doRequest performs an HTTP request with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	target := c.endpointURL(endpoint)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			delay := c.config.RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("X-Riot-Token", c.config.APIKey)
		}

		retry, err := c.handle(req, result)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// handle executes one attempt and reports whether a failure is retryable.
func (c *Client) handle(req *http.Request, result interface{}) (bool, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		//nolint:errcheck // Ignore error on cleanup
		_ = resp.Body.Close()
	}()

	// Server errors (5xx) are retryable
	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return true, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return false, nil
}

// BaseURL returns the current base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}
