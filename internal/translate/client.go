// Package translate calls the machine-translation API and paces requests.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JonMunkholm/locgrid/internal/lang"
)

// DefaultEndpoint is the Google Cloud Translation v2 REST endpoint.
const DefaultEndpoint = "https://translation.googleapis.com/language/translate/v2"

// Request is one text to translate. An empty or "auto" Source lets the API
// detect the language.
type Request struct {
	Text   string
	Source string
	Target string
}

// Translator translates a single text.
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// APIError is a non-2xx or malformed response from the translation API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "translation API error: " + e.Body
	}
	return fmt.Sprintf("translation API error: %d - %s", e.Status, e.Body)
}

// Client is a Translator backed by the Translation v2 REST API.
type Client struct {
	endpoint string
	apiKey   string
	http     *resty.Client
}

// NewClient creates a client. An empty endpoint uses DefaultEndpoint.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     resty.New().SetTimeout(timeout),
	}
}

type requestBody struct {
	Q      string `json:"q"`
	Target string `json:"target"`
	Format string `json:"format"`
	Source string `json:"source,omitempty"`
}

type responseBody struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate sends one request. The text is sent as plain text, not HTML.
func (c *Client) Translate(ctx context.Context, req Request) (string, error) {
	body := requestBody{Q: req.Text, Target: req.Target, Format: "text"}
	if req.Source != "" && req.Source != "auto" {
		body.Source = req.Source
	}

	var out responseBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	if resp.IsError() {
		return "", &APIError{Status: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	if len(out.Data.Translations) == 0 {
		return "", &APIError{Status: resp.StatusCode(), Body: "response has no translations"}
	}
	return out.Data.Translations[0].TranslatedText, nil
}

// Text maps target through aliases and translates text. When source and the
// mapped target are the same language the text is returned without a call.
func Text(ctx context.Context, tr Translator, aliases *lang.Aliases, text, source, target string) (string, error) {
	mapped := aliases.Canonical(strings.ToLower(target))
	if source == mapped {
		return text, nil
	}
	return tr.Translate(ctx, Request{Text: text, Source: source, Target: mapped})
}
