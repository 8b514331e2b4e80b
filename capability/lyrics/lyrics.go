// Package lyrics looks up song lyrics through the free lyrics.ovh API.
package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecastro/convobot/core"
)

// DefaultBaseURL is the public lyrics endpoint; tests override it.
const DefaultBaseURL = "https://api.lyrics.ovh/v1"

// maxLines bounds how many lyric lines are returned in a reply.
const maxLines = 30

// Descriptor declares the lyrics capability contract.
func Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:        "lyrics",
		Description: "Look up the lyrics of a song given its artist and title, e.g. 'lyrics Queen - Bohemian Rhapsody'.",
		Args: []core.ArgSpec{
			{Name: "artist", Type: core.ArgString, Required: true, Description: "Artist or band name"},
			{Name: "title", Type: core.ArgString, Required: true, Description: "Song title"},
		},
	}
}

// Options configure the Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the lyrics API. It implements core.Invoker.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient constructs a lyrics lookup client.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{baseURL: opts.BaseURL, httpc: opts.HTTPClient}
}

type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
}

// Invoke fetches the lyrics for args["title"] by args["artist"]. A song the
// service does not know is reported as a user-correctable failure, not an
// upstream error.
func (c *Client) Invoke(ctx context.Context, args core.Args) (string, error) {
	artist := args.String("artist")
	title := args.String("title")

	u := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(artist), url.PathEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build lyrics request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("call lyrics service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", core.NewValidationError("lyrics", "no lyrics found for %q by %s, check the spelling", title, artist)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("lyrics service returned status %d", resp.StatusCode)
	}

	var data lyricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode lyrics response: %w", err)
	}

	text := strings.TrimSpace(data.Lyrics)
	if text == "" {
		return "", core.NewValidationError("lyrics", "lyrics for %q by %s are not available right now", title, artist)
	}

	return fmt.Sprintf("%s - %s\n\n%s", artist, title, clipLines(text, maxLines)), nil
}

func clipLines(text string, max int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= max {
		return text
	}
	clipped := strings.Join(lines[:max], "\n")
	return fmt.Sprintf("%s\n\n... (%d more lines)", clipped, len(lines)-max)
}
