package imdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"showscore/config"
)

// omdbClient resolves a show/season/episode triple to the episode's own
// canonical identifier via the OMDb API. Every failure path collapses to
// not-found; the resolver never propagates an error past its own boundary.
type omdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newOMDBClient(cfg config.OMDBSettings, httpc *http.Client) *omdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &omdbClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   httpc,
	}
}

func (c *omdbClient) configured() bool { return c.apiKey != "" }

// resolveEpisodeID returns the canonical per-episode identifier and its
// display title. A missing API key short-circuits to not-found without a
// network call; that is an expected deployment configuration, not an error.
func (c *omdbClient) resolveEpisodeID(ctx context.Context, seriesID string, season, episode int) (string, string, bool) {
	if !c.configured() {
		return "", "", false
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("i", seriesID)
	params.Set("Season", strconv.Itoa(season))
	params.Set("Episode", strconv.Itoa(episode))
	endpoint := c.baseURL + "/?" + params.Encode()

	var payload struct {
		Response string `json:"Response"`
		IMDBID   string `json:"imdbID"`
		Title    string `json:"Title"`
	}

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
				return fmt.Errorf("omdb lookup failed: %s", resp.Status)
			}
			return json.NewDecoder(resp.Body).Decode(&payload)
		},
		retry.Attempts(2),
		retry.Delay(300*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[omdb] resolve %s S%dE%d failed: %v", seriesID, season, episode, err)
		return "", "", false
	}

	if !strings.EqualFold(payload.Response, "True") || strings.TrimSpace(payload.IMDBID) == "" {
		return "", "", false
	}
	return payload.IMDBID, payload.Title, true
}
