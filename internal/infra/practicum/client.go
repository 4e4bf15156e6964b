// internal/infra/practicum/client.go
package practicum

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/infra/metrics"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultTimeout  = 30 * time.Second
)

// Client talks to the Practicum homework status API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(endpoint, token string, httpClient *http.Client, logger *logrus.Entry) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: httpClient,
		logger:     logger.WithField("endpoint", endpoint),
	}
}

// FetchStatus requests homework statuses changed since the given moment and
// returns the decoded JSON body as is. The caller validates its shape.
func (c *Client) FetchStatus(ctx context.Context, since time.Time) (any, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid homework API endpoint %q", c.endpoint)
	}
	query := reqURL.Query()
	query.Set("from_date", strconv.FormatInt(since.Unix(), 10))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build homework API request")
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest("connection_error", time.Since(started))
		// url.Error quotes the full URL; from_date changes every cycle and
		// would make each report look like a new error.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &ConnectionError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordUpstreamRequest("bad_status", time.Since(started))
		c.logger.WithField("status_code", resp.StatusCode).Warn("Homework API returned unexpected status")
		return nil, &UpstreamError{Endpoint: c.endpoint, StatusCode: resp.StatusCode}
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.RecordUpstreamRequest("bad_body", time.Since(started))
		return nil, &homework.SchemaError{Reason: "body is not valid JSON", Err: err}
	}
	metrics.RecordUpstreamRequest("ok", time.Since(started))

	c.logger.WithField("from_date", since.Unix()).Debug("Homework statuses fetched")
	return body, nil
}
