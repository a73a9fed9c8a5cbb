package metadatastore

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
	"time"
)

const ddoPath = "/api/v1/aquarius/assets/ddo"

// HTTPError is a non-2xx answer from the metadata cache or the provider.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("metadata store http %d", e.StatusCode)
	}
	return fmt.Sprintf("metadata store http %d: %s", e.StatusCode, b)
}

// AquariusStore is the HTTP client of an Aquarius metadata cache.
type AquariusStore struct {
	BaseURL string
	HTTP    *http.Client
}

var _ Store = (*AquariusStore)(nil)

// NewAquariusStore creates a client for the metadata cache at baseURL.
func NewAquariusStore(baseURL string) (*AquariusStore, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("config: metadata store URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("config: metadata store URL: %w", err)
	}
	return &AquariusStore{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}, nil
}

// StoreDDO publishes ddo and returns the document the cache recorded.
func (s *AquariusStore) StoreDDO(ctx context.Context, ddo *DDO) (*DDO, error) {
	if err := ddo.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(ddo)
	if err != nil {
		return nil, fmt.Errorf("marshal ddo: %w", err)
	}
	res, err := s.do(ctx, http.MethodPost, s.BaseURL+ddoPath, body)
	if err != nil {
		return nil, err
	}
	var out DDO
	if err := json.Unmarshal(res, &out); err != nil {
		return nil, fmt.Errorf("failed to decode stored ddo: %w", err)
	}
	return &out, nil
}

// RetrieveDDO fetches the document of did. A 404 maps to ErrNotFound.
func (s *AquariusStore) RetrieveDDO(ctx context.Context, did DID) (*DDO, error) {
	id, err := ParseDID(string(did))
	if err != nil {
		return nil, err
	}
	res, err := s.do(ctx, http.MethodGet, s.BaseURL+ddoPath+"/"+url.PathEscape(id.String()), nil)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	var out DDO
	if err := json.Unmarshal(res, &out); err != nil {
		return nil, fmt.Errorf("failed to decode ddo: %w", err)
	}
	return &out, nil
}

// GetAccessURL posts payload to the provider service named by token and
// returns the URL it answers with, either as plain text or as {"url": ...}.
func (s *AquariusStore) GetAccessURL(ctx context.Context, token AccessToken, payload any) (string, error) {
	if err := token.validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal access payload: %w", err)
	}
	endpoint := strings.TrimRight(token.ServiceEndpoint, "/") + "/" + url.PathEscape(token.ResourceID)
	res, err := s.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}

	var wrapped struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(res, &wrapped); err == nil && wrapped.URL != "" {
		return wrapped.URL, nil
	}
	accessURL := strings.Trim(strings.TrimSpace(string(res)), `"`)
	if accessURL == "" {
		return "", errors.New("provider returned an empty access url")
	}
	return accessURL, nil
}

func (s *AquariusStore) do(ctx context.Context, method, u string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}

	res, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: data}
	}
	return data, nil
}
