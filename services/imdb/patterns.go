package imdb

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Method tags identify which strategy produced a result.
const (
	MethodJSONLD         = "json_ld"
	MethodAnchor         = "anchor"
	MethodAJAX           = "ajax"
	MethodLoadAll        = "load_all"
	MethodEpisodeIDFound = "episode_id_found"
)

const placeholderTitle = "Unknown Title"

// extraction is the uniform outcome of one successful strategy.
type extraction struct {
	Rating float64
	Votes  string
	Title  string
	Method string
}

// pattern pairs a descriptor with a compiled expression. Cascades are ordered
// lists evaluated until the first parseable match; a matched-but-malformed
// token counts as no match, never as a fault.
type pattern struct {
	name string
	re   *regexp.Regexp
}

// Rating patterns for a single title page, in decreasing specificity:
// inline JSON field, ARIA label text, rating-component markup, generic
// "X/10 based on" phrasing.
var ratingPatterns = []pattern{
	{"json_field", regexp.MustCompile(`"ratingValue"\s*:\s*"?(\d+(?:\.\d+)?)"?`)},
	{"aria_label", regexp.MustCompile(`(?i)IMDb rating:?\s*(\d+(?:\.\d+)?)\s*/\s*10`)},
	{"rating_component", regexp.MustCompile(`ipc-rating-star--rating[^>]*>(\d+(?:\.\d+)?)<`)},
	{"out_of_ten", regexp.MustCompile(`(?is)(\d+(?:\.\d+)?)\s*/\s*10\s*(?:<[^>]*>\s*)*based on`)},
}

var votePatterns = []pattern{
	{"json_count", regexp.MustCompile(`"ratingCount"\s*:\s*"?([\d,]+)"?`)},
	{"based_on", regexp.MustCompile(`(?i)based on\s+([\d.,]+[KkMm]?)\s+(?:user\s+)?ratings`)},
	{"votes_word", regexp.MustCompile(`(?i)([\d.,]+[KkMm]?)\s+votes`)},
}

var titlePatterns = []pattern{
	{"html_title", regexp.MustCompile(`<title>([^<]+)</title>`)},
	{"og_title", regexp.MustCompile(`property="og:title"\s+content="([^"]+)"`)},
}

var imdbTitleSuffixRe = regexp.MustCompile(`\s*-\s*IMDb.*$`)

// matchRating runs the rating cascade; the pattern name tags the result.
func matchRating(body string, patterns []pattern) (float64, string, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return v, p.name, true
	}
	return 0, "", false
}

// matchVotes runs the vote cascade; a missing count never blocks a rating.
func matchVotes(body string, patterns []pattern) string {
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(body); m != nil {
			return normalizeVotes(m[1])
		}
	}
	return "0"
}

func matchTitle(body string, patterns []pattern) string {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(html.UnescapeString(m[1]))
		title = strings.TrimSpace(imdbTitleSuffixRe.ReplaceAllString(title, ""))
		if title != "" {
			return title
		}
	}
	return placeholderTitle
}

var commentArtifactRe = regexp.MustCompile(`<!--.*?-->`)

// normalizeVotes strips whitespace, non-breaking-space encodings, enclosing
// parentheses and inline comment artifacts. Abbreviated counts such as
// "9.8K" are preserved as-is.
func normalizeVotes(raw string) string {
	v := commentArtifactRe.ReplaceAllString(raw, "")
	v = strings.ReplaceAll(v, "&nbsp;", "")
	v = strings.ReplaceAll(v, " ", "")
	v = strings.Join(strings.Fields(v), "")
	v = strings.TrimPrefix(v, "(")
	v = strings.TrimSuffix(v, ")")
	if v == "" {
		return "0"
	}
	return v
}

// structuredDataRating scans the JSON-LD islands embedded in a title page.
// Malformed or irrelevant blocks are skipped silently; the first block with a
// numeric aggregate rating wins.
func structuredDataRating(body string) *extraction {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	var out *extraction
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var block struct {
			Name            string `json:"name"`
			AggregateRating struct {
				RatingValue json.RawMessage `json:"ratingValue"`
				RatingCount json.RawMessage `json:"ratingCount"`
			} `json:"aggregateRating"`
		}
		if err := json.Unmarshal([]byte(sel.Text()), &block); err != nil {
			return true
		}
		rating, ok := rawNumber(block.AggregateRating.RatingValue)
		if !ok {
			return true
		}
		votes := "0"
		if c := rawToken(block.AggregateRating.RatingCount); c != "" {
			votes = normalizeVotes(c)
		}
		title := strings.TrimSpace(html.UnescapeString(block.Name))
		out = &extraction{Rating: rating, Votes: votes, Title: title, Method: MethodJSONLD}
		return false
	})
	return out
}

// rawToken returns a JSON scalar as its bare string form ("8.2" and 8.2 are
// equivalent in IMDb's islands).
func rawToken(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	return s
}

func rawNumber(raw json.RawMessage) (float64, bool) {
	s := rawToken(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
