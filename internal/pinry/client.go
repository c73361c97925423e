// Package pinry submits pins to a Pinry instance over its REST API.
package pinry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"pinsaver/internal/domain"
	"pinsaver/internal/metrics"
)

// PinsPath is appended verbatim to the configured service URL.
const PinsPath = "/api/v2/pins/"

// ErrNotConfigured is the error text returned when settings are incomplete.
const ErrNotConfigured = "Pinry URL and API key must be configured"

// Submitter sends a single pin and reports the normalized outcome.
type Submitter interface {
	Submit(ctx context.Context, settings domain.Settings, payload domain.PinPayload) domain.SubmissionResult
}

// Client implements Submitter with one POST per call and no retries.
type Client struct {
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewClient creates a Client. A nil httpClient uses a plain http.Client with no timeout.
func NewClient(httpClient *http.Client, logger logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		log:        logger.WithField("component", "pinry_client"),
	}
}

// Submit posts payload to <ServiceURL>/api/v2/pins/ using the token in settings.
func (c *Client) Submit(ctx context.Context, settings domain.Settings, payload domain.PinPayload) domain.SubmissionResult {
	result := c.submit(ctx, settings, payload)
	metrics.ObserveSubmission(string(result.Kind))
	return result
}

func (c *Client) submit(ctx context.Context, settings domain.Settings, payload domain.PinPayload) domain.SubmissionResult {
	if !settings.Configured() {
		return failure(domain.KindConfiguration, ErrNotConfigured, "")
	}

	endpoint := settings.ServiceURL + PinsPath
	log := c.log.WithFields(logrus.Fields{
		"endpoint":  endpoint,
		"image_url": payload.URL,
	})

	body, err := json.Marshal(payload)
	if err != nil {
		return failure(domain.KindNetwork, fmt.Sprintf("failed to encode pin: %v", err), "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Warn("Failed to build Pinry request")
		return failure(domain.KindNetwork, err.Error(), "")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+settings.APIToken)

	log.Debug("Sending pin to Pinry")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Pinry request failed")
		return failure(domain.KindNetwork, err.Error(), "")
	}
	defer resp.Body.Close()

	log = log.WithField("status", resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Warn("Failed to read Pinry response")
		return failure(domain.KindNetwork, err.Error(), "")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("details", string(raw)).Warn("Pinry rejected pin")
		msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp))
		return failure(domain.KindRemoteRejection, msg, string(raw))
	}

	var data json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		log.WithError(err).Warn("Pinry returned a malformed response")
		return failure(domain.KindMalformedResponse, fmt.Sprintf("invalid response from Pinry: %v", err), "")
	}

	log.Info("Pin saved")
	return domain.SubmissionResult{Success: true, Data: data}
}

func failure(kind domain.ErrorKind, msg, details string) domain.SubmissionResult {
	return domain.SubmissionResult{Kind: kind, Error: msg, Details: details}
}

// statusText prefers the server's reason phrase over Go's canonical one.
func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
