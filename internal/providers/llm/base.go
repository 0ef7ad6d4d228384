package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/conv"
)

// maxErrorBody bounds how much of a failed response is kept in errors and logs.
const maxErrorBody = 1024

type baseProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func newBaseProvider(baseURL, apiKey, model string) baseProvider {
	return baseProvider{
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

// doRequest sends body as JSON and returns the raw response body of a 2xx reply.
// Any other outcome is a *core.TransportError.
func (b *baseProvider) doRequest(ctx context.Context, method, path string, body any, headers map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", core.KurtUserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &core.TransportError{Service: core.ServiceOracle, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Service: core.ServiceOracle, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.TransportError{
			Service:    core.ServiceOracle,
			StatusCode: resp.StatusCode,
			Body:       conv.Truncate(string(data), maxErrorBody),
		}
	}
	return data, nil
}
