package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	scope          = "https://www.googleapis.com/auth/devstorage.read_write"
	pingTimeout    = 5 * time.Second
	requestTimeout = 30 * time.Second
)

// ErrObjectNotFound is returned when the bucket has no object under the name.
var ErrObjectNotFound = errors.New("gcs object not found")

// Client talks to the Cloud Storage JSON API for a single default bucket.
type Client struct {
	httpClient    *http.Client
	defaultBucket string
	baseURL       string
	logg          *logger.Logger
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Object is an opened object stream. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer, msg string) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && logg != nil {
		logg.Warn(ctx, msg)
	}
}

// NewClient builds an authenticated client. Credentials come from the inline
// JSON, the credentials file, or application default credentials, in that order.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	ts, err := tokenSource(ctx, gcp)
	if err != nil {
		return nil, err
	}
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = requestTimeout

	client := NewClientWithHTTP(httpClient, cfg.BucketName, cfg.BaseURL, logg)
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}
	return client, nil
}

// NewClientWithHTTP wires a client around an already-authenticated HTTP client.
func NewClientWithHTTP(httpClient *http.Client, bucket, baseURL string, logg *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://storage.googleapis.com"
	}
	return &Client{
		httpClient:    httpClient,
		defaultBucket: bucket,
		baseURL:       strings.TrimRight(baseURL, "/"),
		logg:          logg,
	}
}

func tokenSource(ctx context.Context, gcp config.GCPConfig) (oauth2.TokenSource, error) {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return credentialsTokenSource(ctx, []byte(gcp.CredentialsJSON))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		data, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		return credentialsTokenSource(ctx, data)
	default:
		ts, err := google.DefaultTokenSource(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("default gcp credentials: %w", err)
		}
		return ts, nil
	}
}

func credentialsTokenSource(ctx context.Context, data []byte) (oauth2.TokenSource, error) {
	creds, err := google.CredentialsFromJSON(ctx, data, scope)
	if err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	return creds.TokenSource, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

func (c *Client) Close() error {
	return nil
}

// Ping lists at most one object to confirm the bucket is reachable with the current credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errors.New("gcs client not initialized")
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/storage/v1/b/%s/o?maxResults=1", c.baseURL, url.PathEscape(c.defaultBucket))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer closeBody(ctx, c.logg, resp.Body, "gcs: closing ping body failed")

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check failed", resp)
	}
	return nil
}

// Upload writes body to object in the default bucket using a simple media upload.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) error {
	if object == "" {
		return errors.New("object name is required")
	}
	u := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		c.baseURL, url.PathEscape(c.defaultBucket), url.QueryEscape(object))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gcs upload: %w", err)
	}
	defer closeBody(ctx, c.logg, resp.Body, "gcs: closing upload body failed")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError("gcs upload failed", resp)
	}
	return nil
}

// Open streams object content. A missing object yields ErrObjectNotFound.
func (c *Client) Open(ctx context.Context, object string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(object)+"?alt=media", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gcs download: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		closeBody(ctx, c.logg, resp.Body, "gcs: closing download body failed")
		return nil, ErrObjectNotFound
	case resp.StatusCode != http.StatusOK:
		defer closeBody(ctx, c.logg, resp.Body, "gcs: closing download body failed")
		return nil, statusError("gcs download failed", resp)
	}
	return &Object{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

// Delete removes object. Deleting a missing object yields ErrObjectNotFound.
func (c *Client) Delete(ctx context.Context, object string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(object), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gcs delete: %w", err)
	}
	defer closeBody(ctx, c.logg, resp.Body, "gcs: closing delete body failed")

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrObjectNotFound
	default:
		return statusError("gcs delete failed", resp)
	}
}

func (c *Client) objectURL(object string) string {
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s", c.baseURL, url.PathEscape(c.defaultBucket), url.PathEscape(object))
}

func statusError(prefix string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return fmt.Errorf("%s: %s: %s", prefix, resp.Status, msg)
	}
	return fmt.Errorf("%s: %s", prefix, resp.Status)
}
