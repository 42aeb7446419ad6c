// Package github writes the destination side of a migration through the GitHub REST and
// GraphQL APIs. Every mutating call waits on a rate limit gate first.
package github

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	githublib "github.com/google/go-github/v70/github"
	"github.com/krrrr38/gl2gh/pkg/logger"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub clients for one destination organisation.
type Client struct {
	inner *githublib.Client
	// anon carries no credentials and only reads the public rate limit endpoint.
	anon  *githublib.Client
	gql   *githubv4.Client
	owner string

	baseURL      string
	retry        RetryPolicy
	contentDelay time.Duration

	clientGate   *Gate
	endpointGate *Gate
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, such as GitHub Enterprise Server.
func WithBaseURL(rawURL string) Option {
	return func(c *Client) { c.baseURL = rawURL }
}

// WithRetryPolicy replaces the retry policy for transient failures.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithContentDelay sets the pause before content-creating requests (comments, issues).
func WithContentDelay(d time.Duration) Option {
	return func(c *Client) { c.contentDelay = d }
}

// NewClientByPAT creates a client authenticated with a personal access token.
func NewClientByPAT(token, owner string, opts ...Option) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return NewClient(oauth2.NewClient(context.Background(), ts), owner, opts...)
}

// NewClientByApp creates a client authenticated as a GitHub App installation.
func NewClientByApp(appID, installationID int64, privateKey, owner string, opts ...Option) (*Client, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, []byte(privateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	return NewClient(&http.Client{Transport: itr}, owner, opts...)
}

// NewClient creates a client using an already authenticated HTTP client.
func NewClient(httpClient *http.Client, owner string, opts ...Option) (*Client, error) {
	c := &Client{
		inner:        githublib.NewClient(httpClient),
		anon:         githublib.NewClient(nil),
		gql:          githubv4.NewClient(httpClient),
		owner:        owner,
		retry:        DefaultRetryPolicy,
		contentDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL != "" {
		base, err := url.Parse(c.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", c.baseURL, err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		c.inner.BaseURL = base
		c.anon.BaseURL = base
		c.gql = githubv4.NewEnterpriseClient(graphQLURL(base), httpClient)
	}

	c.clientGate = NewGate("client", ClientQuota{client: c.inner})
	c.endpointGate = NewGate("endpoint", EndpointQuota{client: c.anon})
	return c, nil
}

// graphQLURL derives the GraphQL endpoint from a REST API root.
func graphQLURL(base *url.URL) string {
	u := *base
	if strings.HasSuffix(u.Path, "/api/v3/") {
		u.Path = strings.TrimSuffix(u.Path, "v3/") + "graphql"
	} else {
		u.Path += "graphql"
	}
	return u.String()
}

// Owner returns the destination organisation or user.
func (client *Client) Owner() string {
	return client.owner
}

// GetInner returns the underlying GitHub client
func (client *Client) GetInner() *githublib.Client {
	return client.inner
}

// do runs operation once the gate permits it, retrying transient failures. The gate is
// consulted again before every attempt.
func (client *Client) do(ctx context.Context, gate *Gate, operation func() error) error {
	return RetryableOperation(ctx, client.retry, func() error {
		if err := gate.Proceed(ctx); err != nil {
			return err
		}
		return operation()
	})
}

// pause waits before a content-creating request.
// https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api#calculating-points-for-the-secondary-rate-limit
func (client *Client) pause(ctx context.Context) error {
	if client.contentDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(client.contentDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryPolicy controls RetryableOperation.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy retries five times with exponential backoff starting at one second.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:    5,
	InitialDelay:  1 * time.Second,
	MaxDelay:      60 * time.Second,
	BackoffFactor: 2.0,
}

// RetryableOperation retries a GitHub API operation with exponential backoff
func RetryableOperation(ctx context.Context, policy RetryPolicy, operation func() error) error {
	var err error
	maxRetries := max(policy.MaxRetries, 1)

	for attempt := 0; attempt < maxRetries; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}

		if isRateLimitError(err) {
			return fmt.Errorf("rate limited: %w", err)
		} else if isRetryableError(err) {
			delay := calculateBackoff(attempt, policy.InitialDelay, policy.BackoffFactor, policy.MaxDelay)
			logger.Info(fmt.Sprintf("Retryable error: %v. Retrying after %s (attempt %d/%d)", err, delay, attempt+1, maxRetries))

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", maxRetries, err)
}

// isRateLimitError determines if an error is due to rate limiting
func isRateLimitError(err error) bool {
	var rateErr *githublib.RateLimitError
	var abuseErr *githublib.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return true
	}

	var errResp *githublib.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		statusCode := errResp.Response.StatusCode
		return (statusCode == http.StatusForbidden && errResp.Message == "rate limit") || statusCode == http.StatusTooManyRequests
	}

	return false
}

// isRetryableError determines if an error should be retried
func isRetryableError(err error) bool {
	var errResp *githublib.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		code := errResp.Response.StatusCode
		return code == http.StatusInternalServerError ||
			code == http.StatusBadGateway ||
			code == http.StatusServiceUnavailable ||
			code == http.StatusGatewayTimeout
	}

	var netErr *url.Error
	return errors.As(err, &netErr) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// calculateBackoff computes the backoff duration using exponential backoff with jitter
func calculateBackoff(attempt int, initialDelay time.Duration, factor float64, maxDelay time.Duration) time.Duration {
	backoff := float64(initialDelay) * math.Pow(factor, float64(attempt))

	// ±20% jitter
	jitter := backoff * 0.2 * (rand.Float64()*2 - 1)
	backoff = backoff + jitter

	if backoff > float64(maxDelay) {
		backoff = float64(maxDelay)
	}

	return time.Duration(backoff)
}
