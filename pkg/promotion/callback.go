package promotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"

	xnet "github.com/akuity/devportal/pkg/net"
)

const maxCallbackResponseBytes = 4096

// NewWebhookCallback returns a SuccessCallback that POSTs the CallbackPayload
// as JSON to url. Any non-2xx response is an error. Link-local addresses are
// never dialed.
func NewWebhookCallback(url string) SuccessCallback {
	httpClient := cleanhttp.DefaultClient()
	httpClient.Transport = xnet.RestrictTransport(cleanhttp.DefaultTransport())
	return newWebhookCallback(url, httpClient)
}

func newWebhookCallback(url string, httpClient *http.Client) SuccessCallback {
	return func(ctx context.Context, payload CallbackPayload) error {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshaling callback payload: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("error creating callback request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("error calling webhook: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxCallbackResponseBytes))
			return fmt.Errorf(
				"webhook responded with status %d: %s",
				resp.StatusCode, bytes.TrimSpace(msg),
			)
		}
		return nil
	}
}
