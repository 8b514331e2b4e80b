// Package translate wraps the LibreTranslate API. The source language may be
// "auto" to let the service detect it.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ecastro/convobot/core"
)

// DefaultBaseURL is the public LibreTranslate endpoint; tests override it.
const DefaultBaseURL = "https://libretranslate.com/translate"

// Languages maps supported language codes to their display names.
var Languages = map[string]string{
	"es": "Español", "en": "English", "fr": "Français", "de": "Deutsch",
	"it": "Italiano", "pt": "Português", "ru": "Русский", "zh": "中文",
	"ja": "日本語", "ko": "한국어", "ar": "العربية", "nl": "Nederlands",
	"pl": "Polski", "tr": "Türkçe",
}

// Codes lists the accepted target language codes.
var Codes = codes()

// SourceCodes additionally accepts "auto" for service-side detection.
var SourceCodes = append([]string{"auto"}, Codes...)

func codes() []string {
	// Stable order keeps validation messages deterministic.
	out := []string{"es", "en", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko", "ar", "nl", "pl", "tr"}
	return out
}

// Descriptor declares the translate capability contract.
func Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:        "translate",
		Description: "Translate text between languages. Use for requests like 'translate hello world' or 'how do you say good morning in French'.",
		Args: []core.ArgSpec{
			{Name: "text", Type: core.ArgString, Required: true, Description: "Text to translate"},
			{Name: "from", Type: core.ArgCode, Required: false, Enum: SourceCodes, Description: "Source language code, auto to detect"},
			{Name: "to", Type: core.ArgCode, Required: true, Enum: Codes, Description: "Target language code"},
		},
	}
}

// Options configure the Client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client calls the LibreTranslate API. It implements core.Invoker.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient constructs a translator client.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{baseURL: opts.BaseURL, apiKey: opts.APIKey, httpc: opts.HTTPClient}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Invoke translates args["text"] from args["from"] (default auto) into
// args["to"].
func (c *Client) Invoke(ctx context.Context, args core.Args) (string, error) {
	text := args.String("text")
	source := args.String("from")
	if source == "" {
		source = "auto"
	}
	target := args.String("to")

	body, err := json.Marshal(translateRequest{Q: text, Source: source, Target: target, Format: "text", APIKey: c.apiKey})
	if err != nil {
		return "", fmt.Errorf("encode translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("call translate service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return "", core.NewValidationError("translate", "unsupported language pair %s → %s", source, target)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("translate service returned status %d", resp.StatusCode)
	}

	var data translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if data.TranslatedText == "" {
		return "", fmt.Errorf("translate service returned an empty translation")
	}

	return fmt.Sprintf("%s\n(%s → %s)", data.TranslatedText, languageName(source), languageName(target)), nil
}

func languageName(code string) string {
	if code == "auto" {
		return "detected"
	}
	if name, ok := Languages[code]; ok {
		return name
	}
	return code
}
