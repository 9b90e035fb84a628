package instagram

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

	errs "igcancel/pkg/errors"
	"igcancel/pkg/logger"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Options configure a Client
type Options struct {
	SessionID string
	CSRFToken string
	UserAgent string
	AppID     string

	Timeout           time.Duration
	RequestsPerMinute int
	Burst             int

	// BaseURL overrides BaseURL, mainly for tests
	BaseURL string
}

// Client is an Instagram web API client bound to one session. It is not
// meant to be shared between concurrent runs.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    *rate.Limiter
	logger     logger.Logger
}

// NewClient creates a new Instagram API client
func NewClient(opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.AppID == "" {
		opts.AppID = DefaultAppID
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	cookies := []string{"sessionid=" + opts.SessionID}
	if opts.CSRFToken != "" {
		cookies = append(cookies, "csrftoken="+opts.CSRFToken)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		headers: map[string]string{
			"User-Agent":       opts.UserAgent,
			"Accept":           "*/*",
			"Accept-Language":  "en-US,en;q=0.9",
			"Cookie":           strings.Join(cookies, "; "),
			"X-CSRFToken":      opts.CSRFToken,
			"X-IG-App-ID":      opts.AppID,
			"X-Requested-With": "XMLHttpRequest",
			"Referer":          opts.BaseURL + "/",
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		limiter: rate.NewLimiter(limit, burst),
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest waits for the limiter and performs the request once
func (c *Client) doRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrorTypeCanceled, "request cancelled", ctx.Err())
		}
		return nil, errs.Wrap(errs.ErrorTypeRateLimit, "client rate limit", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrorTypeCanceled, "request cancelled", ctx.Err())
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// call performs a request and decodes a 200 JSON body into target
func (c *Client) call(ctx context.Context, method, rawURL string, body io.Reader, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	if err := c.checkResponseStatus(resp, data); err != nil {
		return err
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          rawURL,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview(data),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}
	return nil
}

// checkResponseStatus maps non-2xx responses to typed errors. A 400 body is
// inspected because Instagram reports expired sessions and spam blocks there.
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}
	if apiErr.Message != "" {
		fields["message"] = apiErr.Message
	}

	if resp.StatusCode == http.StatusBadRequest {
		switch {
		case apiErr.RequireLogin || apiErr.Message == "login_required" || apiErr.Message == "checkpoint_required" ||
			apiErr.ErrorType == "checkpoint_challenge_required":
			c.logger.WarnWithFields("session rejected", fields)
			return &errs.Error{Type: errs.ErrorTypeAuth, Message: "session is no longer valid", Code: resp.StatusCode}
		case apiErr.Spam || apiErr.Message == "feedback_required":
			c.logger.WarnWithFields("action blocked", fields)
			return &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "action blocked by Instagram", Code: resp.StatusCode}
		}
	}

	typed := errs.FromStatusCode(resp.StatusCode, statusMessage(resp.StatusCode, apiErr.Message))
	if typed.Type == errs.ErrorTypeServerError || typed.Type == errs.ErrorTypeUnknown {
		c.logger.ErrorWithFields("unexpected API error", fields)
	} else {
		c.logger.WarnWithFields("API error", fields)
	}
	return typed
}

func statusMessage(code int, message string) string {
	if message != "" {
		return message
	}
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "authentication required"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	}
	if code >= 500 {
		return "server error"
	}
	return fmt.Sprintf("unexpected status code: %d", code)
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// VerifySession checks that the session cookies are accepted and returns
// the logged-in username.
func (c *Client) VerifySession(ctx context.Context) (string, error) {
	var response SessionResponse
	if err := c.call(ctx, http.MethodGet, GetSessionURL(c.baseURL), nil, &response); err != nil {
		return "", err
	}
	if response.FormData.Username == "" {
		return "", &errs.Error{Type: errs.ErrorTypeAuth, Message: "session check returned no account"}
	}

	c.logger.InfoWithFields("session verified", map[string]interface{}{
		"username": response.FormData.Username,
	})
	return response.FormData.Username, nil
}

// ResolveUserID returns the numeric id of username
func (c *Client) ResolveUserID(ctx context.Context, username string) (string, error) {
	username = SanitizeUsername(username)
	if !IsValidUsername(username) {
		return "", &errs.Error{Type: errs.ErrorTypeNotFound, Message: fmt.Sprintf("invalid username %q", username)}
	}

	var response ProfileResponse
	if err := c.call(ctx, http.MethodGet, GetProfileURL(c.baseURL, username), nil, &response); err != nil {
		return "", err
	}

	if response.RequiresToLogin {
		return "", &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "Instagram requires authentication to view this profile",
			Code:    http.StatusUnauthorized,
		}
	}
	if response.Data.User == nil || response.Data.User.ID == "" {
		return "", &errs.Error{Type: errs.ErrorTypeNotFound, Message: fmt.Sprintf("user %s not found", username)}
	}

	c.logger.DebugWithFields("resolved user id", map[string]interface{}{
		"username": username,
		"user_id":  response.Data.User.ID,
	})
	return response.Data.User.ID, nil
}

// CancelFollowRequest withdraws the pending follow request to userID
func (c *Client) CancelFollowRequest(ctx context.Context, userID string) error {
	form := url.Values{}
	form.Set("user_id", userID)

	var response FriendshipResponse
	err := c.call(ctx, http.MethodPost, GetDestroyURL(c.baseURL, userID), strings.NewReader(form.Encode()), &response)
	if err != nil {
		return err
	}

	if response.Status != "ok" {
		msg := response.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %q", response.Status)
		}
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: msg}
	}
	if response.FriendshipStatus.OutgoingRequest {
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: "request still pending after cancel"}
	}

	c.logger.DebugWithFields("follow request withdrawn", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
