package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrAuthentication is returned when a request still fails with an auth
// status after one fresh login. Retrying further would only repeat the
// same rejection.
var ErrAuthentication = errors.New("authentication rejected by server")

const searchPostsPath = "/xrpc/app.bsky.feed.searchPosts"

// Client talks to a Bluesky PDS for session management and to an AppView for
// post search. A session token obtained via Login is attached to every search
// request; when the server rejects it, the client re-authenticates once and
// retries the request before giving up.
type Client struct {
	pdsURL     string
	appViewURL string
	identifier string
	password   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter

	accessJwt string
}

func NewClient(pdsURL, appViewURL, identifier, password, userAgent string) *Client {
	return &Client{
		pdsURL:     pdsURL,
		appViewURL: appViewURL,
		identifier: identifier,
		password:   password,
		userAgent:  userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(350*time.Millisecond), 1),
	}
}

// Login creates a session on the PDS and stores the access token. Use an App
// Password, not the account password.
func (c *Client) Login(ctx context.Context) error {
	payload, err := json.Marshal(createSessionRequest{
		Identifier: c.identifier,
		Password:   c.password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.pdsURL+"/xrpc/com.atproto.server.createSession", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send session request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read session response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: login failed (status %d)", ErrAuthentication, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed (status %d): %s", resp.StatusCode, string(body))
	}

	var session createSessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return fmt.Errorf("failed to unmarshal session response: %w", err)
	}
	if session.AccessJwt == "" {
		return fmt.Errorf("login response contained no access token")
	}

	c.accessJwt = session.AccessJwt

	slog.Debug("Bluesky session created", "handle", session.Handle)

	return nil
}

// FetchPage retrieves one page of search results. An empty cursor requests
// the first page. On an auth rejection the client logs in again and retries
// the page once; a second rejection returns ErrAuthentication.
func (c *Client) FetchPage(ctx context.Context, query, lang string, limit int, cursor string) (*SearchPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	if c.accessJwt == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	page, status, err := c.searchPosts(ctx, query, lang, limit, cursor)
	if err == nil {
		return page, nil
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		slog.Warn("Bluesky session rejected, re-authenticating", "status", status)

		if loginErr := c.Login(ctx); loginErr != nil {
			return nil, loginErr
		}

		page, status, err = c.searchPosts(ctx, query, lang, limit, cursor)
		if err == nil {
			return page, nil
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, fmt.Errorf("%w: search rejected after re-login (status %d)", ErrAuthentication, status)
		}
	}

	return nil, err
}

func (c *Client) searchPosts(ctx context.Context, query, lang string, limit int, cursor string) (*SearchPage, int, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	if lang != "" {
		params.Set("lang", lang)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.appViewURL+searchPostsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("search failed (status %d): %s", resp.StatusCode, string(body))
	}

	var page SearchPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to unmarshal search response: %w", err)
	}

	return &page, resp.StatusCode, nil
}
