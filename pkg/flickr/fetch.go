package flickr

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"flickrdl/pkg/errors"
	"flickrdl/pkg/logger"
)

// Blob is a downloaded media file
type Blob struct {
	Data        []byte
	ContentType string
}

// MediaFetcher downloads media files and checks their declared type
type MediaFetcher struct {
	httpClient *http.Client
	allowed    map[string]bool
	logger     logger.Logger
}

// NewMediaFetcher creates a fetcher that accepts only the given content types
func NewMediaFetcher(timeout time.Duration, allowedContentTypes []string, log logger.Logger) *MediaFetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	allowed := make(map[string]bool, len(allowedContentTypes))
	for _, ct := range allowedContentTypes {
		allowed[strings.ToLower(strings.TrimSpace(ct))] = true
	}

	return &MediaFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		allowed: allowed,
		logger:  log,
	}
}

// Get downloads url. A non-200 status, a missing Content-Type or one outside
// the allow-list is an error and no data is returned.
func (f *MediaFetcher) Get(ctx context.Context, url string) (*Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}
	req.Header.Set("User-Agent", "flickrdl/1.0")

	f.logger.DebugWithFields("downloading media", map[string]interface{}{
		"url": url,
	})

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.Error{
			Type:    errors.TypeForStatusCode(resp.StatusCode),
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}

	contentType, err := f.checkContentType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read media body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	f.logger.DebugWithFields("downloaded media", map[string]interface{}{
		"url":          url,
		"content_type": contentType,
		"size":         len(data),
	})

	return &Blob{Data: data, ContentType: contentType}, nil
}

// checkContentType normalises header and checks it against the allow-list
func (f *MediaFetcher) checkContentType(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", &errors.Error{
			Type:    errors.ErrorTypeContentType,
			Message: "response has no Content-Type",
		}
	}

	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", &errors.Error{
			Type:    errors.ErrorTypeContentType,
			Message: fmt.Sprintf("invalid Content-Type %q: %v", header, err),
		}
	}

	if !f.allowed[mediaType] {
		return "", &errors.Error{
			Type:    errors.ErrorTypeContentType,
			Message: fmt.Sprintf("content type %q is not allowed", mediaType),
		}
	}

	return mediaType, nil
}
