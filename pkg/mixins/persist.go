package mixins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Persister stores the cleaned value of one mixin.
type Persister interface {
	Save(ctx context.Context, schemaKey string, value map[string]any, schemaURL string) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, schemaKey string, value map[string]any, schemaURL string) error

// Save calls f.
func (f PersisterFunc) Save(ctx context.Context, schemaKey string, value map[string]any, schemaURL string) error {
	return f(ctx, schemaKey, value, schemaURL)
}

const maxErrorBody = 4 << 10

// HTTPPersister PUTs `{"schemaUrl": ..., "value": ...}` to an endpoint per
// schema key. The endpoint template substitutes {key}.
type HTTPPersister struct {
	endpoint string
	client   *http.Client
}

// NewHTTPPersister constructs an HTTPPersister. A nil client uses
// http.DefaultClient.
func NewHTTPPersister(endpoint string, client *http.Client) (*HTTPPersister, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("mixins: persister endpoint is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPersister{endpoint: endpoint, client: client}, nil
}

type savePayload struct {
	SchemaURL string         `json:"schemaUrl"`
	Value     map[string]any `json:"value"`
}

// Save implements Persister.
func (p *HTTPPersister) Save(ctx context.Context, schemaKey string, value map[string]any, schemaURL string) error {
	if strings.TrimSpace(schemaKey) == "" {
		return errors.New("mixins: save: schema key is required")
	}
	if value == nil {
		value = map[string]any{}
	}
	body, err := json.Marshal(savePayload{SchemaURL: schemaURL, Value: value})
	if err != nil {
		return fmt.Errorf("mixins: save %s: encode: %w", schemaKey, err)
	}

	target := strings.ReplaceAll(p.endpoint, "{key}", url.PathEscape(schemaKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mixins: save %s: %w", schemaKey, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("mixins: save %s: %w", schemaKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &SaveError{
			SchemaKey:  schemaKey,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
