// Package cloudinary implements the media store port against the
// Cloudinary upload API. All calls go through a circuit breaker so a
// media outage degrades uploads without cascading into request pileups.
package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/salamjillani/mauritius-property-hub/internal/config"
	"github.com/salamjillani/mauritius-property-hub/internal/port/media"
	"github.com/salamjillani/mauritius-property-hub/internal/resilience"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Store implements media.Store using Cloudinary's signed upload API.
type Store struct {
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	breaker    *resilience.Breaker
	now        func() time.Time
}

// New creates a Cloudinary media store from config. The breaker guards
// every outbound call.
func New(cfg config.Media, breaker *resilience.Breaker) *Store {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Store{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    breaker,
		now:        time.Now,
	}
}

// sign computes the Cloudinary request signature: the sorted non-empty
// parameters joined as a query string, concatenated with the API secret,
// hashed with SHA-1.
func (s *Store) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + s.apiSecret))
	return hex.EncodeToString(sum[:])
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload stores a file and returns its public URL and ID.
func (s *Store) Upload(ctx context.Context, name string, r io.Reader) (*media.Asset, error) {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	params := map[string]string{"timestamp": timestamp}

	var body strings.Builder
	w := multipart.NewWriter(&body)
	if err := w.WriteField("api_key", s.apiKey); err != nil {
		return nil, fmt.Errorf("cloudinary form: %w", err)
	}
	if err := w.WriteField("timestamp", timestamp); err != nil {
		return nil, fmt.Errorf("cloudinary form: %w", err)
	}
	if err := w.WriteField("signature", s.sign(params)); err != nil {
		return nil, fmt.Errorf("cloudinary form: %w", err)
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("cloudinary form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("cloudinary read file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("cloudinary form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/image/upload", s.baseURL, s.cloudName)

	var asset *media.Asset
	err = s.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body.String()))
		if err != nil {
			return fmt.Errorf("cloudinary request: %w", err)
		}
		req.Header.Set("Content-Type", w.FormDataContentType())

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("cloudinary upload: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		var out uploadResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("cloudinary decode: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("cloudinary API %d: %s", resp.StatusCode, out.Error.Message)
		}

		asset = &media.Asset{URL: out.SecureURL, PublicID: out.PublicID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// Delete removes a stored object by public ID.
func (s *Store) Delete(ctx context.Context, publicID string) error {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	form := []string{
		"api_key=" + s.apiKey,
		"public_id=" + publicID,
		"timestamp=" + timestamp,
		"signature=" + s.sign(params),
	}
	url := fmt.Sprintf("%s/%s/image/destroy", s.baseURL, s.cloudName)

	return s.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(strings.Join(form, "&")))
		if err != nil {
			return fmt.Errorf("cloudinary request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("cloudinary destroy: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 {
			respBody, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("cloudinary API %d: %s", resp.StatusCode, string(respBody))
		}
		return nil
	})
}
