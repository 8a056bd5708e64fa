package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// ArangoHTTPStore implements GraphStore over ArangoDB's plain HTTP
// document API, following the same hand-rolled-client shape as
// pkg/qa.HTTPReasoningClient: no official driver is part of this
// module's dependency pack, so the REST surface is small enough to
// call directly.
type ArangoHTTPStore struct {
	BaseURL    string // e.g. http://localhost:8529
	Database   string
	User       string
	Password   string
	HTTPClient *http.Client
}

// ArangoConfig holds explicit connection settings.
type ArangoConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// NewArangoHTTPStore builds a store from explicit config.
func NewArangoHTTPStore(cfg ArangoConfig) *ArangoHTTPStore {
	port := cfg.Port
	if port == 0 {
		port = 8529
	}
	return &ArangoHTTPStore{
		BaseURL:    fmt.Sprintf("http://%s:%d", cfg.Host, port),
		Database:   cfg.Database,
		User:       cfg.User,
		Password:   cfg.Password,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewArangoHTTPStoreFromEnv reads ARANGO_{HOST,PORT,USER,PASSWORD,DB}
// per spec §6's environment contract.
func NewArangoHTTPStoreFromEnv() (*ArangoHTTPStore, error) {
	host := os.Getenv("ARANGO_HOST")
	if host == "" {
		return nil, fmt.Errorf("ARANGO_HOST is required")
	}
	db := os.Getenv("ARANGO_DB")
	if db == "" {
		return nil, fmt.Errorf("ARANGO_DB is required")
	}
	port := 8529
	if p := os.Getenv("ARANGO_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	return NewArangoHTTPStore(ArangoConfig{
		Host:     host,
		Port:     port,
		User:     os.Getenv("ARANGO_USER"),
		Password: os.Getenv("ARANGO_PASSWORD"),
		Database: db,
	}), nil
}

func (s *ArangoHTTPStore) documentURL(collection, key string) string {
	return fmt.Sprintf("%s/_db/%s/_api/document/%s/%s",
		s.BaseURL, url.PathEscape(s.Database), url.PathEscape(collection), url.PathEscape(key))
}

func (s *ArangoHTTPStore) collectionURL(collection string) string {
	return fmt.Sprintf("%s/_db/%s/_api/document/%s", s.BaseURL, url.PathEscape(s.Database), url.PathEscape(collection))
}

func (s *ArangoHTTPStore) do(ctx context.Context, method, reqURL string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal arango request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build arango request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.User != "" {
		req.SetBasicAuth(s.User, s.Password)
	}
	return s.HTTPClient.Do(req)
}

// GetDocument implements GraphStore.
func (s *ArangoHTTPStore) GetDocument(ctx context.Context, collection, key string) (map[string]any, bool, error) {
	resp, err := s.do(ctx, http.MethodGet, s.documentURL(collection, key), nil)
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("get %s/%s: status %d: %s", collection, key, resp.StatusCode, string(data))
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return doc, true, nil
}

// UpsertDocument implements GraphStore using Arango's
// overwriteMode=replace document import, which inserts when the key is
// absent and replaces in place otherwise.
func (s *ArangoHTTPStore) UpsertDocument(ctx context.Context, collection, key string, fields map[string]any) (bool, error) {
	_, existed, err := s.GetDocument(ctx, collection, key)
	if err != nil {
		return false, err
	}

	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["_key"] = key

	reqURL := s.collectionURL(collection) + "?overwrite=true&overwriteMode=replace"
	resp, err := s.do(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return false, fmt.Errorf("upsert %s/%s: %w", collection, key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("upsert %s/%s: status %d: %s", collection, key, resp.StatusCode, string(data))
	}
	return !existed, nil
}

// Close is a no-op: the HTTP client owns no persistent connection
// beyond its pooled transport.
func (s *ArangoHTTPStore) Close() error { return nil }
