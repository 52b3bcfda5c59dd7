package flickr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	masci "gopkg.in/masci/flickr.v3"

	"flickrdl/pkg/errors"
	"flickrdl/pkg/logger"
)

// Credentials are the application key pair plus the user's OAuth access token
type Credentials struct {
	APIKey      string
	APISecret   string
	OAuthToken  string
	OAuthSecret string
}

// Client talks to the Flickr REST API. Requests are signed with OAuth 1.0a
// and answered as JSON.
type Client struct {
	httpClient *http.Client
	signer     *masci.FlickrClient
	endpoint   string
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a new Flickr API client
func NewClient(creds Credentials, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	signer := masci.NewFlickrClient(creds.APIKey, creds.APISecret)
	signer.OAuthToken = creds.OAuthToken
	signer.OAuthTokenSecret = creds.OAuthSecret

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		signer:   signer,
		endpoint: DefaultEndpoint,
		headers: map[string]string{
			"User-Agent": "flickrdl/1.0",
			"Accept":     "application/json",
		},
		logger: log,
	}
}

// SetEndpoint points the client at a different REST endpoint
func (c *Client) SetEndpoint(endpoint string) {
	if endpoint != "" {
		c.endpoint = endpoint
	}
}

// signedURL builds the signed request URL for method with args
func (c *Client) signedURL(method string, args url.Values) string {
	c.signer.Init()
	c.signer.EndpointUrl = c.endpoint
	c.signer.HTTPVerb = http.MethodGet

	for key, values := range args {
		for _, v := range values {
			c.signer.Args.Add(key, v)
		}
	}
	c.signer.Args.Set("method", method)
	c.signer.Args.Set("format", "json")
	c.signer.Args.Set("nojsoncallback", "1")

	if c.signer.OAuthToken != "" {
		c.signer.OAuthSign()
	} else {
		c.signer.Args.Set("api_key", c.signer.ApiKey)
	}

	return c.signer.GetUrl()
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    redact(req.URL),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      redact(req.URL),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      redact(req.URL),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// call invokes a REST method and returns the raw JSON stored under key.
// When target is non-nil the same value is decoded into it.
func (c *Client) call(ctx context.Context, method string, args url.Values, key string, target interface{}) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.signedURL(method, args), nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	var st status
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, c.parseError(method, body, resp.StatusCode, err)
	}
	if st.Stat != "ok" {
		c.logger.WarnWithFields("flickr API returned failure", map[string]interface{}{
			"api_method": method,
			"code":       st.Code,
			"message":    st.Message,
		})
		return nil, &errors.APIError{Method: method, Code: st.Code, Message: st.Message}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, c.parseError(method, body, resp.StatusCode, err)
	}

	raw, ok := envelope[key]
	if !ok {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("%s response has no %q object", method, key),
			Code:    resp.StatusCode,
		}
	}

	if target != nil {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, c.parseError(method, raw, resp.StatusCode, err)
		}
	}

	return raw, nil
}

func (c *Client) parseError(method string, body []byte, statusCode int, err error) error {
	bodyPreview := string(body)
	if len(bodyPreview) > 200 {
		bodyPreview = bodyPreview[:200] + "..."
	}

	c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
		"api_method":   method,
		"status":       statusCode,
		"error":        err.Error(),
		"body_preview": bodyPreview,
	})
	return &errors.Error{
		Type:    errors.ErrorTypeParsing,
		Message: fmt.Sprintf("failed to parse %s response: %v", method, err),
		Code:    statusCode,
	}
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode < 400 {
		return nil
	}

	errType := errors.TypeForStatusCode(resp.StatusCode)
	c.logger.WarnWithFields("unexpected HTTP status", map[string]interface{}{
		"status": resp.StatusCode,
		"type":   string(errType),
		"url":    redact(resp.Request.URL),
	})
	return &errors.Error{
		Type:    errType,
		Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		Code:    resp.StatusCode,
	}
}

// Login returns the account the OAuth token belongs to
func (c *Client) Login(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.call(ctx, MethodTestLogin, url.Values{}, "user", &user); err != nil {
		return nil, fmt.Errorf("failed to look up authenticated user: %w", err)
	}

	c.logger.DebugWithFields("authenticated", map[string]interface{}{
		"nsid":     user.ID,
		"username": user.Username.Content,
	})
	return &user, nil
}

// ListPage fetches one page of the listing for kind
func (c *Client) ListPage(ctx context.Context, kind Kind, userID string, page, perPage int) (*Listing, error) {
	var listing Listing
	if _, err := c.call(ctx, kind.Method(), listingArgs(userID, page, perPage), "photos", &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetInfo fetches flickr.photos.getInfo for a photo
func (c *Client) GetInfo(ctx context.Context, photoID string) (*PhotoInfo, json.RawMessage, error) {
	var info PhotoInfo
	raw, err := c.call(ctx, MethodPhotosGetInfo, photoArgs(photoID), "photo", &info)
	if err != nil {
		return nil, nil, err
	}
	return &info, raw, nil
}

// GetSizes fetches flickr.photos.getSizes for a photo
func (c *Client) GetSizes(ctx context.Context, photoID string) (*Sizes, json.RawMessage, error) {
	var sizes Sizes
	raw, err := c.call(ctx, MethodPhotosGetSizes, photoArgs(photoID), "sizes", &sizes)
	if err != nil {
		return nil, nil, err
	}
	return &sizes, raw, nil
}

// GetExif fetches flickr.photos.getExif for a photo
func (c *Client) GetExif(ctx context.Context, photoID string) (*Exif, json.RawMessage, error) {
	var exif Exif
	raw, err := c.call(ctx, MethodPhotosGetExif, photoArgs(photoID), "photo", &exif)
	if err != nil {
		return nil, nil, err
	}
	return &exif, raw, nil
}

// redact strips OAuth and signature parameters so URLs are safe to log
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	for key := range q {
		switch key {
		case "oauth_token", "oauth_signature", "api_sig", "oauth_nonce":
			q.Set(key, "REDACTED")
		}
	}
	clean := *u
	clean.RawQuery = q.Encode()
	return clean.String()
}
