package imdb

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// seasonStrategy is one attempt at locating an episode rating inside a season
// listing. Strategies run in priority order; the first extraction wins. The
// returned identifier is the episode's own id when the strategy could locate
// it, independent of whether rating extraction succeeded.
type seasonStrategy struct {
	name string
	run  func(ctx context.Context, seriesID string, season, episode int) (*extraction, string, error)
}

func (s *Service) seasonStrategies() []seasonStrategy {
	return []seasonStrategy{
		{MethodAnchor, s.anchorBlock},
		{MethodAJAX, s.ajaxListing},
		{MethodLoadAll, s.fullListing},
	}
}

// episodeAnchorRe matches the listing anchor that links to an episode's own
// title page; the ref tag embeds the episode ordinal.
func episodeAnchorRe(episode int) *regexp.Regexp {
	// The closing quote keeps ep_1 from matching inside ep_10.
	return regexp.MustCompile(`href="/title/(tt\d+)/[^"]*ttep_ep_?` + strconv.Itoa(episode) + `"`)
}

// Rating/vote patterns applied inside a bounded window after an anchor.
var windowRatingPatterns = []pattern{
	{"rating_component", regexp.MustCompile(`ipc-rating-star--rating[^>]*>(\d+(?:\.\d+)?)`)},
	{"span_rating", regexp.MustCompile(`(\d+\.\d+)</span>`)},
}

var windowVotePatterns = []pattern{
	{"comment_wrapped", regexp.MustCompile(`\(<!-- -->(.*?)<!-- -->\)`)},
	{"paren", regexp.MustCompile(`\(([\d.,KkMm&nbsp;\s]+)\)`)},
}

// anchorBlock fetches the season listing, finds the target episode's anchor
// and extracts rating, votes and title from a fixed-size span of markup after
// it. The window bounds worst-case backtracking on busy listing pages.
func (s *Service) anchorBlock(ctx context.Context, seriesID string, season, episode int) (*extraction, string, error) {
	params := url.Values{"season": {strconv.Itoa(season)}}
	label := fmt.Sprintf("season %d listing for %s", season, seriesID)
	page, err := s.fetcher.get(ctx, "/title/"+seriesID+"/episodes/", params, nil, label)
	if err != nil {
		return nil, "", err
	}

	loc := episodeAnchorRe(episode).FindStringSubmatchIndex(page.Body)
	if loc == nil {
		return nil, "", nil
	}
	episodeID := page.Body[loc[2]:loc[3]]

	end := loc[1] + s.anchorWindow
	if end > len(page.Body) {
		end = len(page.Body)
	}
	window := page.Body[loc[1]:end]

	rating, _, ok := matchRating(window, windowRatingPatterns)
	if !ok {
		return nil, episodeID, nil
	}
	title := matchEpisodeTitle(window, season, episode)
	return &extraction{
		Rating: rating,
		Votes:  matchVotes(window, windowVotePatterns),
		Title:  title,
		Method: MethodAnchor,
	}, episodeID, nil
}

// ajaxListing requests the incremental-loading endpoint for the block that
// contains the target episode. Listings load in fixed-size blocks, so the
// start offset is the episode ordinal rounded down to a block boundary.
func (s *Service) ajaxListing(ctx context.Context, seriesID string, season, episode int) (*extraction, string, error) {
	start := ((episode - 1) / s.blockSize) * s.blockSize
	params := url.Values{
		"season": {strconv.Itoa(season)},
		"start":  {strconv.Itoa(start)},
	}
	headers := http.Header{}
	headers.Set("X-Requested-With", "XMLHttpRequest")
	headers.Set("Referer", fmt.Sprintf("%s/title/%s/episodes/?season=%d", s.fetcher.baseURL, seriesID, season))

	label := fmt.Sprintf("season %d ajax block %d for %s", season, start, seriesID)
	page, err := s.fetcher.get(ctx, "/title/"+seriesID+"/episodes/_ajax", params, headers, label)
	if err != nil {
		return nil, "", err
	}

	episodeID := anchorEpisodeID(page.Body, episode)
	if ext := matchListing(page.Body, season, episode); ext != nil {
		ext.Method = MethodAJAX
		return ext, episodeID, nil
	}
	return nil, episodeID, nil
}

// fullListing loads the complete season in one response via mode=all, the
// slower but more thorough fallback when pagination assumptions fail.
func (s *Service) fullListing(ctx context.Context, seriesID string, season, episode int) (*extraction, string, error) {
	params := url.Values{
		"season": {strconv.Itoa(season)},
		"mode":   {"all"},
	}
	label := fmt.Sprintf("season %d full listing for %s", season, seriesID)
	page, err := s.fetcher.get(ctx, "/title/"+seriesID+"/episodes/", params, nil, label)
	if err != nil {
		return nil, "", err
	}

	episodeID := anchorEpisodeID(page.Body, episode)
	if ext := matchListing(page.Body, season, episode); ext != nil {
		ext.Method = MethodLoadAll
		return ext, episodeID, nil
	}
	return nil, episodeID, nil
}

func anchorEpisodeID(body string, episode int) string {
	if m := episodeAnchorRe(episode).FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// listingPatterns is the ordered pattern family for episode rows in listing
// markup: the S<season>.E<episode> marker with comment-wrapped vote counts,
// a looser variant of the same marker, and a bare episode-ordinal hook.
func listingPatterns(season, episode int) []pattern {
	se := `S` + strconv.Itoa(season) + `\.E` + strconv.Itoa(episode)
	ep := strconv.Itoa(episode)
	return []pattern{
		{"marker_block", regexp.MustCompile(`(?s)` + se + `\s*∙\s*([^<]+)</div>.*?(\d+\.\d+)</span>.*?\(<!-- -->(.*?)<!-- -->\)`)},
		{"marker_inline", regexp.MustCompile(`(?si)` + se + `[^>]*>([^<]+)<.*?(\d+\.\d+)</span>.*?\(([\d.,KkMm]+)\)`)},
		{"ordinal", regexp.MustCompile(`(?si)episode-` + ep + `\D.*?(\d+\.\d+)</span>.*?\(([\d.,KkMm]+)\)`)},
	}
}

func matchListing(body string, season, episode int) *extraction {
	for _, p := range listingPatterns(season, episode) {
		m := p.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		var title, ratingTok, votesTok string
		if len(m) >= 4 {
			title = strings.TrimSpace(html.UnescapeString(m[1]))
			ratingTok, votesTok = m[2], m[3]
		} else {
			title = "Episode " + strconv.Itoa(episode)
			ratingTok, votesTok = m[1], m[2]
		}
		rating, err := strconv.ParseFloat(ratingTok, 64)
		if err != nil {
			continue
		}
		return &extraction{Rating: rating, Votes: normalizeVotes(votesTok), Title: title}
	}
	return nil
}

func matchEpisodeTitle(window string, season, episode int) string {
	se := `S` + strconv.Itoa(season) + `\.E` + strconv.Itoa(episode)
	re := regexp.MustCompile(se + `\s*∙\s*([^<]+)`)
	if m := re.FindStringSubmatch(window); m != nil {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}
	return "Episode " + strconv.Itoa(episode)
}
