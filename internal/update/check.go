// Package update checks a release feed for a newer package version.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conn-castle/patchup/internal/messages"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}
var retryDelay = 250 * time.Millisecond

const fetchRetryCount = 1

// Descriptor is the release feed document: the newest published package.
type Descriptor struct {
	Version     string `json:"version"`
	Package     string `json:"package"`
	PublishedAt string `json:"published_at"`
}

// CheckResult captures a feed check outcome.
type CheckResult struct {
	Current  string
	Latest   string
	Package  string
	Outdated bool
}

// Check fetches the feed at feedURL and compares its version against
// currentVersion. Transient failures (network errors, 5xx) are retried once.
func Check(ctx context.Context, feedURL string, currentVersion string) (CheckResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	descriptor, err := fetchDescriptor(ctx, feedURL)
	if err != nil {
		return CheckResult{}, err
	}
	cmp, err := CompareVersions(currentVersion, descriptor.Version)
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{
		Current:  currentVersion,
		Latest:   descriptor.Version,
		Package:  descriptor.Package,
		Outdated: cmp < 0,
	}, nil
}

func fetchDescriptor(ctx context.Context, feedURL string) (Descriptor, error) {
	for attempt := 0; attempt <= fetchRetryCount; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return Descriptor{}, fmt.Errorf(messages.FeedCreateRequestFmt, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "patchup")

		resp, err := httpClient.Do(req)
		if err != nil {
			if shouldRetry(err, 0, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return Descriptor{}, fmt.Errorf(messages.FeedFetchFmt, err)
		}

		if resp.StatusCode != http.StatusOK {
			status := resp.StatusCode
			statusText := resp.Status
			_ = resp.Body.Close()
			if shouldRetry(nil, status, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return Descriptor{}, fmt.Errorf(messages.FeedFetchStatusFmt, statusText)
		}

		var descriptor Descriptor
		decodeErr := json.NewDecoder(resp.Body).Decode(&descriptor)
		_ = resp.Body.Close()
		if decodeErr != nil {
			return Descriptor{}, fmt.Errorf(messages.FeedDecodeFmt, decodeErr)
		}
		if strings.TrimSpace(descriptor.Version) == "" {
			return Descriptor{}, errors.New(messages.FeedMissingVersion)
		}
		return descriptor, nil
	}
	return Descriptor{}, fmt.Errorf(messages.FeedFetchFmt, errors.New("retry budget exhausted"))
}

func shouldRetry(err error, statusCode int, attempt int) bool {
	if attempt >= fetchRetryCount {
		return false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr)
	}
	return statusCode >= 500 && statusCode <= 599
}

// CompareVersions compares two dotted numeric versions segment by segment.
// Shorter versions compare as if padded with zeros, so 4.2 equals 4.2.0.0.
// It returns -1 if a < b, 0 if a == b, and 1 if a > b.
func CompareVersions(a string, b string) (int, error) {
	aParts, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	bParts, err := parseVersion(b)
	if err != nil {
		return 0, err
	}
	for len(aParts) < len(bParts) {
		aParts = append(aParts, 0)
	}
	for len(bParts) < len(aParts) {
		bParts = append(bParts, 0)
	}
	for i := range aParts {
		if aParts[i] < bParts[i] {
			return -1, nil
		}
		if aParts[i] > bParts[i] {
			return 1, nil
		}
	}
	return 0, nil
}

func parseVersion(raw string) ([]int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf(messages.FeedInvalidVersionFmt, raw, errors.New("empty"))
	}
	parts := strings.Split(trimmed, ".")
	out := make([]int, len(parts))
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf(messages.FeedInvalidVersionFmt, raw, err)
		}
		out[i] = value
	}
	return out, nil
}
