package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/aviadkim/statement-reconciler/dto"
)

// LayoutClient wraps the external document-layout-analysis backend that
// turns a statement into table rows. The backend is treated as unreliable:
// calls are rate limited, retried a bounded number of times on transient
// failures, and responses are cached by document checksum so re-submitting
// the same upload does not re-call the service.
type LayoutClient struct {
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	retryCount int
}

func NewLayoutClient(apiURL string, timeout time.Duration, retryCount int) *LayoutClient {
	return &LayoutClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		cache:      cache.New(10*time.Minute, 30*time.Minute),
		retryCount: retryCount,
	}
}

type layoutRequest struct {
	Document string `json:"document"`
}

type layoutResponse struct {
	Rows []dto.TableRow `json:"rows"`
}

// ExtractTable sends the document to the layout backend and returns its
// table representation. Transient failures (network errors, 5xx, 429) are
// retried with exponential backoff up to the configured attempt count.
func (c *LayoutClient) ExtractTable(ctx context.Context, pdfBytes []byte) ([]dto.TableRow, error) {
	sum := sha256.Sum256(pdfBytes)
	key := hex.EncodeToString(sum[:])
	if rows, ok := c.cache.Get(key); ok {
		slog.Debug("layout cache hit", "checksum", key[:12])
		return rows.([]dto.TableRow), nil
	}

	payload, err := json.Marshal(layoutRequest{
		Document: base64.StdEncoding.EncodeToString(pdfBytes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal layout request: %w", err)
	}

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 1; attempt <= c.retryCount; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		rows, retryable, err := c.call(ctx, payload)
		if err == nil {
			c.cache.Set(key, rows, cache.DefaultExpiration)
			return rows, nil
		}
		lastErr = err
		if !retryable {
			break
		}

		slog.Warn("layout backend call failed", "attempt", attempt, "error", err)
		if attempt < c.retryCount {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("layout backend exhausted after %d attempts: %w", c.retryCount, lastErr)
}

func (c *LayoutClient) call(ctx context.Context, payload []byte) ([]dto.TableRow, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("failed to build layout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("layout backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retryable := resp.StatusCode >= http.StatusInternalServerError ||
			resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("layout backend returned status %d: %s", resp.StatusCode, string(body))
	}

	var result layoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("failed to decode layout response: %w", err)
	}
	return result.Rows, false, nil
}
