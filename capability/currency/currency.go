// Package currency converts amounts between currencies using the free
// exchangerate-api.com rate feed (no API key required).
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ecastro/convobot/core"
)

// DefaultBaseURL is the public rate endpoint; tests override it.
const DefaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// Codes is the known currency set. Unknown codes are rejected during
// argument validation, never sent upstream.
var Codes = []string{"USD", "EUR", "GBP", "JPY", "CNY", "MXN", "CAD", "AUD", "BRL", "INR", "KRW", "CHF"}

var symbols = map[string]string{
	"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥",
	"CNY": "¥", "MXN": "$", "CAD": "C$", "AUD": "A$",
	"BRL": "R$", "INR": "₹", "KRW": "₩", "CHF": "Fr",
}

// Descriptor declares the currency capability contract.
func Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:        "currency",
		Description: "Convert an amount of money between currencies using live exchange rates. Use for questions like 'convert 100 USD to EUR' or 'how much is 50 pounds in yen'.",
		Args: []core.ArgSpec{
			{Name: "amount", Type: core.ArgNumber, Required: true, Description: "Amount to convert"},
			{Name: "from", Type: core.ArgCode, Required: true, Enum: Codes, Description: "Source currency code"},
			{Name: "to", Type: core.ArgCode, Required: true, Enum: Codes, Description: "Target currency code"},
		},
	}
}

// Options configure the Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the exchange rate API. It implements core.Invoker.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient constructs a currency converter client.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{baseURL: opts.BaseURL, httpc: opts.HTTPClient}
}

type ratesResponse struct {
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Invoke converts args["amount"] from args["from"] to args["to"]. Arguments
// arrive validated and normalized by the registry.
func (c *Client) Invoke(ctx context.Context, args core.Args) (string, error) {
	amount := args.Number("amount")
	from := args.String("from")
	to := args.String("to")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, from), nil)
	if err != nil {
		return "", fmt.Errorf("build rate request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch rates for %s: %w", from, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rate service returned status %d for %s", resp.StatusCode, from)
	}

	var data ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode rate response: %w", err)
	}

	rate, ok := data.Rates[to]
	if !ok {
		return "", core.NewValidationError("currency", "no exchange rate available for %s", to)
	}

	converted := amount * rate
	msg := fmt.Sprintf("%s%.2f %s = %s%.2f %s (rate 1 %s = %.4f %s",
		symbols[from], amount, from,
		symbols[to], converted, to,
		from, rate, to)
	if data.Date != "" {
		msg += fmt.Sprintf(", as of %s", data.Date)
	}
	return msg + ")", nil
}
