package imdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpisodeAnchorReOrdinalBoundary(t *testing.T) {
	body := `<a href="/title/tt0000010/?ref_=ttep_ep10">E10</a>
<a href="/title/tt0000001/?ref_=ttep_ep1">E1</a>`

	// Episode 1 must not match inside the ep_10 ref tag.
	m := episodeAnchorRe(1).FindStringSubmatch(body)
	require.NotNil(t, m)
	assert.Equal(t, "tt0000001", m[1])

	m = episodeAnchorRe(10).FindStringSubmatch(body)
	require.NotNil(t, m)
	assert.Equal(t, "tt0000010", m[1])
}

func TestEpisodeAnchorReUnderscoreVariant(t *testing.T) {
	body := `<a href="/title/tt0606035/?ref_=ttep_ep_5">link</a>`
	m := episodeAnchorRe(5).FindStringSubmatch(body)
	require.NotNil(t, m)
	assert.Equal(t, "tt0606035", m[1])
}

func TestMatchListingMarkerBlock(t *testing.T) {
	body := `<div>S2.E13 ∙ Flower on the Precipice</div>
<span class="score">9.1</span> junk (<!-- -->4,567<!-- -->)`

	ext := matchListing(body, 2, 13)
	require.NotNil(t, ext)
	assert.Equal(t, 9.1, ext.Rating)
	assert.Equal(t, "4,567", ext.Votes)
	assert.Equal(t, "Flower on the Precipice", ext.Title)
}

func TestMatchListingOrdinalFallback(t *testing.T) {
	// Two-group hit: no title is recoverable, so the ordinal placeholder
	// is substituted.
	body := `<div id="episode-7 row">stuff 8.3</span> more (1,024)`

	ext := matchListing(body, 1, 7)
	require.NotNil(t, ext)
	assert.Equal(t, 8.3, ext.Rating)
	assert.Equal(t, "1,024", ext.Votes)
	assert.Equal(t, "Episode 7", ext.Title)
}

func TestMatchListingNoMatch(t *testing.T) {
	assert.Nil(t, matchListing(`<html><body>empty listing</body></html>`, 1, 5))
}

func TestMatchListingWrongEpisode(t *testing.T) {
	body := `<div>S1.E4 ∙ Cursed</div> 7.9</span> (<!-- -->800<!-- -->)`
	assert.Nil(t, matchListing(body, 1, 5))
}

func TestMatchEpisodeTitle(t *testing.T) {
	window := `>S1.E5 ∙ Beat the Invisible Enemy</a><span>8.6</span>`
	assert.Equal(t, "Beat the Invisible Enemy", matchEpisodeTitle(window, 1, 5))

	assert.Equal(t, "Episode 5", matchEpisodeTitle(`no marker here`, 1, 5))
}

func TestWindowVotePatternsPlainParen(t *testing.T) {
	// Without comment artifacts the looser parenthesised form still hits.
	got := matchVotes(`<span>(2,345)</span>`, windowVotePatterns)
	assert.Equal(t, "2,345", got)
}
