package graphstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/c360/lawgraph/errors"
	"github.com/c360/lawgraph/mutation"
)

// Config holds configuration for the graph store client.
type Config struct {
	// BaseURL is the store's HTTP endpoint, e.g. "http://localhost:8080".
	BaseURL string

	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration

	// SnapshotPath, when set, receives the serialized transaction before
	// every commit attempt, so the last payload survives for inspection.
	SnapshotPath string

	// Logger for request logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "invalid base_url")
	}
	return nil
}

// Client talks to the graph store.
type Client struct {
	baseURL      string
	snapshotPath string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a graph store client from configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		snapshotPath: cfg.SnapshotPath,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger.With("component", "graphstore"),
	}, nil
}

// Ping verifies the store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.WrapInvalid(err, "Client", "Ping", "build request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapTransient(errors.ErrStoreUnavailable, "Client", "Ping", err.Error())
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return errors.WrapTransient(errors.ErrStoreUnavailable, "Client", "Ping",
			fmt.Sprintf("status %d", resp.StatusCode))
	}
	return nil
}

type storeResponse struct {
	Data struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		UIDs    map[string]string `json:"uids"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ApplySchema posts the case-law schema to the store's alter endpoint.
// The operation is additive and safe to repeat on every startup.
func (c *Client) ApplySchema(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/alter",
		bytes.NewReader([]byte(Schema)))
	if err != nil {
		return errors.WrapInvalid(err, "Client", "ApplySchema", "build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapTransient(errors.ErrStoreUnavailable, "Client", "ApplySchema", err.Error())
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return errors.WrapTransient(errors.ErrSchemaApply, "Client", "ApplySchema",
			fmt.Sprintf("status %d", resp.StatusCode))
	}

	var out storeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Some store versions return a non-JSON body on success.
		c.logger.Debug("schema response was not JSON, treating 200 as success")
		return nil
	}
	if len(out.Errors) > 0 {
		return errors.Wrap(errors.ErrSchemaApply, "Client", "ApplySchema", out.Errors[0].Message)
	}
	if out.Data.Code != "" && out.Data.Code != "Success" {
		return errors.Wrap(errors.ErrSchemaApply, "Client", "ApplySchema", out.Data.Code)
	}
	c.logger.Info("schema applied")
	return nil
}

// Result reports a committed transaction.
type Result struct {
	// Created maps blank node names to assigned uids for nodes the commit
	// created. Nodes matched by lookups do not appear here.
	Created map[string]string

	// Nodes is the number of set entries posted.
	Nodes int
}

// Mutate posts the transaction with commit-now semantics. The whole batch
// commits or none of it does; any failure leaves the store untouched and
// is reported transient so the cycle retries later.
func (c *Client) Mutate(ctx context.Context, tx *mutation.Transaction) (Result, error) {
	if tx.Empty() {
		return Result{}, nil
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		return Result{}, errors.WrapInvalid(err, "Client", "Mutate", "encode transaction")
	}
	if err := c.WriteSnapshot(tx); err != nil {
		c.logger.Warn("snapshot write failed", "error", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/mutate?commitNow=true", bytes.NewReader(payload))
	if err != nil {
		return Result{}, errors.WrapInvalid(err, "Client", "Mutate", "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, errors.WrapTransient(errors.ErrStoreUnavailable, "Client", "Mutate", err.Error())
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, errors.WrapTransient(errors.ErrCommitFailed, "Client", "Mutate",
			fmt.Sprintf("status %d: %s", resp.StatusCode, body))
	}

	var out storeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, errors.WrapTransient(errors.ErrCommitFailed, "Client", "Mutate",
			"unreadable response")
	}
	if len(out.Errors) > 0 {
		return Result{}, errors.WrapTransient(errors.ErrCommitFailed, "Client", "Mutate",
			out.Errors[0].Message)
	}
	if out.Data.Code != "Success" && len(out.Data.UIDs) == 0 {
		return Result{}, errors.WrapTransient(errors.ErrCommitFailed, "Client", "Mutate",
			fmt.Sprintf("unexpected response code %q", out.Data.Code))
	}

	c.logger.Info("transaction committed",
		"nodes", len(tx.Set), "lookups", len(tx.Lookups), "created", len(out.Data.UIDs))
	return Result{Created: out.Data.UIDs, Nodes: len(tx.Set)}, nil
}

// WriteSnapshot serializes the transaction to the configured snapshot file.
// A client without a snapshot path does nothing.
func (c *Client) WriteSnapshot(tx *mutation.Transaction) error {
	if c.snapshotPath == "" {
		return nil
	}
	payload, err := tx.Payload()
	if err != nil {
		return errors.WrapInvalid(err, "Client", "WriteSnapshot", "serialize transaction")
	}
	if err := os.WriteFile(c.snapshotPath, payload, 0o644); err != nil {
		return errors.Wrap(err, "Client", "WriteSnapshot", c.snapshotPath)
	}
	return nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
