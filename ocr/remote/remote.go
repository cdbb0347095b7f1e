/*
Package remote classifies glyph images with an HTTP recognition service.

The service receives a JSON object with the base64 encoded PNG image,

	{"image": "iVBORw0KGgo..."}

and answers with the recognized text in field "text" or "result". This is the
interface of common wrappers around OCR models such as ddddocr.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontocr.ocr'
func tracer() tracing.Trace {
	return tracing.Select("fontocr.ocr")
}

// DefaultTimeout limits a single recognition request.
const DefaultTimeout = 10 * time.Second

const maxResponseSize = 1 << 20

type request struct {
	Image string `json:"image"`
}

type response struct {
	Text   *string `json:"text"`
	Result *string `json:"result"`
	Error  string  `json:"error"`
}

// Client is a Classifier calling a recognition service.
type Client struct {
	URL        string
	Header     http.Header // additional request headers, e.g. for authorization
	HTTPClient *http.Client
}

// New creates a client for the service at url.
func New(url string) *Client {
	return &Client{
		URL:        url,
		Header:     make(http.Header),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Classify posts an image to the service and returns the recognized text.
func (c *Client) Classify(ctx context.Context, image []byte) (string, error) {
	body, err := json.Marshal(request{Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	for k, v := range c.Header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("recognition service: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("recognition service: invalid response: %w", err)
	}
	switch {
	case r.Error != "":
		return "", fmt.Errorf("recognition service: %s", r.Error)
	case r.Text != nil:
		return *r.Text, nil
	case r.Result != nil:
		return *r.Result, nil
	}
	tracer().Debugf("recognition service response without text: %s", data)
	return "", fmt.Errorf("recognition service: response contains no text")
}
