package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tcfw/didkms/internal/utils/logging"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/keys"
	"github.com/tcfw/didkms/pkg/rotation"
	"github.com/tcfw/didkms/pkg/storage"
)

const (
	defaultMaxAttempts = 5
	maxErrorBody       = 1 << 16
)

// ResponseError is a failure reported by the API
type ResponseError struct {
	Status  int
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the request lost a race with another writer
func (e *ResponseError) Retryable() bool {
	return e.Status == http.StatusConflict && e.Code == rotation.ConcurrentModification.String()
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithBackoff(min, max time.Duration) ClientOption {
	return func(c *Client) {
		c.backoffMin, c.backoffMax = min, max
	}
}

type Client struct {
	addr  string
	token string
	http  *http.Client
	log   *logrus.Entry

	maxAttempts            int
	backoffMin, backoffMax time.Duration
}

func NewClient(addr, token string, opts ...ClientOption) *Client {
	c := &Client{
		addr:        strings.TrimSuffix(addr, "/"),
		token:       token,
		http:        &http.Client{Timeout: 30 * time.Second},
		log:         logging.Entry().WithField("component", "client"),
		maxAttempts: defaultMaxAttempts,
		backoffMin:  100 * time.Millisecond,
		backoffMax:  5 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RotateParams are the optional overrides of a rotation
type RotateParams struct {
	Use       string
	Algorithm string
	Size      int
	Curve     string
}

func (p RotateParams) query() url.Values {
	q := url.Values{}
	if p.Use != "" {
		q.Set("use", p.Use)
	}
	if p.Algorithm != "" {
		q.Set("alg", p.Algorithm)
	}
	if p.Size != 0 {
		q.Set("size", strconv.Itoa(p.Size))
	}
	if p.Curve != "" {
		q.Set("curve", p.Curve)
	}
	return q
}

// Rotate asks the daemon to rotate a key. Concurrent modification
// failures are retried with backoff.
func (c *Client) Rotate(ctx context.Context, id string, p RotateParams) (*w3cdid.Document, error) {
	bo := &backoff.Backoff{
		Min:    c.backoffMin,
		Max:    c.backoffMax,
		Jitter: true,
	}

	path := "/v1/identifiers/" + url.PathEscape(id) + "/keys/rotate?" + p.query().Encode()

	for attempt := 1; ; attempt++ {
		doc := &w3cdid.Document{}
		err := c.do(ctx, http.MethodPost, path, doc)
		if err == nil {
			return doc, nil
		}

		var re *ResponseError
		if !errors.As(err, &re) || !re.Retryable() || attempt >= c.maxAttempts {
			return nil, err
		}

		d := bo.Duration()
		c.log.WithFields(logging.Fields{
			"identifier": id,
			"attempt":    attempt,
			"waiting":    d,
		}).Info("identifier changed concurrently, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
	}
}

func (c *Client) Resolve(ctx context.Context, id string) (*w3cdid.Document, error) {
	doc := &w3cdid.Document{}
	if err := c.do(ctx, http.MethodGet, "/v1/identifiers/"+url.PathEscape(id), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) Keys(ctx context.Context, id string) ([]KeyView, error) {
	views := []KeyView{}
	if err := c.do(ctx, http.MethodGet, "/v1/identifiers/"+url.PathEscape(id)+"/keys", &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (c *Client) History(ctx context.Context, id string) ([]storage.Snapshot, error) {
	snaps := []storage.Snapshot{}
	if err := c.do(ctx, http.MethodGet, "/v1/identifiers/"+url.PathEscape(id)+"/history", &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling daemon")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}

	return nil
}

func decodeError(resp *http.Response) error {
	raw, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return errors.Wrap(err, "reading error response")
	}

	body := errorBody{}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Code == "" {
		return &ResponseError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(raw))}
	}

	return &ResponseError{Status: resp.StatusCode, Code: body.Error.Code, Message: body.Error.Message}
}

// ParseRotateParams validates CLI supplied overrides before they are sent
func ParseRotateParams(use, alg string, size int, curve string) (RotateParams, error) {
	p := RotateParams{Size: size}

	if use != "" {
		u, err := keys.ParseUse(use)
		if err != nil {
			return p, err
		}
		p.Use = string(u)
	}
	if alg != "" {
		a, err := keys.ParseAlgorithm(alg)
		if err != nil {
			return p, err
		}
		p.Algorithm = string(a)
	}
	if curve != "" {
		cv, err := keys.ParseCurve(curve)
		if err != nil {
			return p, err
		}
		p.Curve = string(cv)
	}
	if size < 0 {
		return p, errors.Wrapf(keys.ErrInvalidKeyParameters, "size %d", size)
	}

	return p, nil
}
