package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const DefaultAPIURL = "https://kapi.kakao.com"

// ErrUnauthorized means the provider rejected the access token (401-class
// response).
var ErrUnauthorized = errors.New("kakao rejected the access token")

// APIError is a non-401 failure reported by the Kakao API.
type APIError struct {
	StatusCode int
	Msg        string `json:"msg"`
	Code       int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kakao api error: status %d code %d: %s", e.StatusCode, e.Code, e.Msg)
}

// TokenInfo is the response of the token introspection endpoint.
type TokenInfo struct {
	ID        int64 `json:"id"`
	ExpiresIn int   `json:"expires_in"`
	AppID     int   `json:"app_id"`
}

// UserInfo is the response of the user profile endpoint. Only the fields the
// login flow consumes are mapped.
type UserInfo struct {
	ID           int64         `json:"id"`
	ConnectedAt  string        `json:"connected_at"`
	Properties   *Properties   `json:"properties"`
	KakaoAccount *KakaoAccount `json:"kakao_account"`
}

type Properties struct {
	Nickname string `json:"nickname"`
}

type KakaoAccount struct {
	Profile         *Profile `json:"profile"`
	Email           string   `json:"email"`
	IsEmailValid    *bool    `json:"is_email_valid"`
	IsEmailVerified *bool    `json:"is_email_verified"`
}

type Profile struct {
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profile_image_url"`
}

// Client talks to the Kakao user API with bearer access tokens.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Kakao API client. A nil http client gets a default one
// with a 10 second timeout.
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		baseURL: baseURL,
		client:  client,
	}
}

// TokenInfo introspects an access token.
// GET /v1/user/access_token_info
func (c *Client) TokenInfo(ctx context.Context, accessToken string) (*TokenInfo, error) {
	var info TokenInfo
	if err := c.do(ctx, http.MethodGet, "/v1/user/access_token_info", accessToken, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// UserMe fetches the canonical user profile for an access token.
// GET /v2/user/me
func (c *Client) UserMe(ctx context.Context, accessToken string) (*UserInfo, error) {
	var info UserInfo
	if err := c.do(ctx, http.MethodGet, "/v2/user/me", accessToken, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Logout invalidates the provider session for an access token.
// POST /v1/user/logout
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/v1/user/logout", accessToken, nil)
}

// Unlink disconnects the app from the Kakao account.
// POST /v1/user/unlink
func (c *Client) Unlink(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/v1/user/unlink", accessToken, nil)
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build kakao request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("kakao request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// The error body is best effort; the status code alone is enough.
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode kakao response: %w", err)
	}

	return nil
}
