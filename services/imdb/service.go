package imdb

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"

	"showscore/config"
	"showscore/models"
)

// Service runs extraction strategies for rating lookups against the origin
// site, falling back to the OMDb resolver when direct extraction fails.
// Strategies within one request run sequentially; nothing is shared between
// requests.
type Service struct {
	fetcher      *fetcher
	omdb         *omdbClient
	anchorWindow int
	blockSize    int
	batchLimit   int
	readTimeout  time.Duration
}

// NewService constructs the rating service. httpc may be nil, in which case a
// client with the configured connect/read timeouts is built.
func NewService(scraper config.ScraperSettings, omdb config.OMDBSettings, httpc *http.Client) *Service {
	return &Service{
		fetcher:      newFetcher(scraper, httpc),
		omdb:         newOMDBClient(omdb, httpc),
		anchorWindow: scraper.AnchorWindowBytes,
		blockSize:    scraper.ListingBlockSize,
		batchLimit:   scraper.BatchMaxParallel,
		readTimeout:  time.Duration(scraper.ReadTimeoutSec) * time.Second,
	}
}

// requestBudget bounds a whole lookup: at most three listing fetches, two
// title fetches and one resolver call, each bounded by the read timeout.
func (s *Service) requestBudget() time.Duration {
	return 6 * s.readTimeout
}

// TitleRating resolves the rating of a single title or episode identifier.
func (s *Service) TitleRating(ctx context.Context, rawID string) models.TitleRating {
	if err := ValidateID(rawID); err != nil {
		return failedTitle(rawID, "invalid IMDb id")
	}
	id := NormalizeID(rawID)

	ctx, cancel := context.WithTimeout(ctx, s.requestBudget())
	defer cancel()
	return s.titleLookup(ctx, id)
}

// titleLookup fetches the title page and runs the single-title cascade:
// structured-data islands first, then the textual pattern fallback family.
func (s *Service) titleLookup(ctx context.Context, id string) models.TitleRating {
	page, err := s.fetcher.get(ctx, "/title/"+id+"/", nil, nil, "title page for "+id)
	if err != nil {
		log.Printf("[imdb] title fetch failed for %s: %v", id, err)
		return failedTitle(id, fmt.Sprintf("could not load title %s", id))
	}

	if ext := structuredDataRating(page.Body); ext != nil {
		if ext.Title == "" {
			ext.Title = matchTitle(page.Body, titlePatterns)
		}
		return successTitle(id, ext)
	}

	if rating, name, ok := matchRating(page.Body, ratingPatterns); ok {
		return successTitle(id, &extraction{
			Rating: rating,
			Votes:  matchVotes(page.Body, votePatterns),
			Title:  matchTitle(page.Body, titlePatterns),
			Method: "pattern_" + name,
		})
	}

	return failedTitle(id, "no rating found for "+id)
}

// EpisodeRating resolves the rating of one episode of a show's season. The
// strategy cascade terminates on first success; a resolved-but-unrated
// episode identifier is surfaced via method "episode_id_found" so the caller
// can chain a direct lookup.
func (s *Service) EpisodeRating(ctx context.Context, rawID string, season, episode int) models.EpisodeRating {
	if err := ValidateID(rawID); err != nil {
		return failedEpisode(rawID, season, episode, "invalid IMDb id")
	}
	if season <= 0 || episode <= 0 {
		return failedEpisode(NormalizeID(rawID), season, episode, "season and episode must be positive")
	}
	id := NormalizeID(rawID)

	ctx, cancel := context.WithTimeout(ctx, s.requestBudget())
	defer cancel()

	var episodeID string
	for _, strat := range s.seasonStrategies() {
		ext, foundID, err := strat.run(ctx, id, season, episode)
		if err != nil {
			log.Printf("[imdb] %s strategy failed for %s S%dE%d: %v", strat.name, id, season, episode, err)
		}
		if episodeID == "" && foundID != "" {
			episodeID = foundID
		}
		if ext != nil {
			return successEpisode(id, season, episode, ext, episodeID)
		}
	}

	// Direct extraction exhausted. A captured episode id feeds the
	// single-title path before we give up on it.
	if episodeID != "" {
		if title := s.titleLookup(ctx, episodeID); title.Success {
			return episodeFromTitle(id, season, episode, episodeID, title)
		}
		out := failedEpisode(id, season, episode,
			fmt.Sprintf("episode id %s found but no rating extracted", episodeID))
		out.Method = strPtr(MethodEpisodeIDFound)
		out.EpisodeIMDBID = &episodeID
		return out
	}

	// No identifier from the listings; ask the external resolver. Without
	// credentials it declines silently and no network call is made.
	if resolvedID, _, ok := s.omdb.resolveEpisodeID(ctx, id, season, episode); ok {
		if title := s.titleLookup(ctx, resolvedID); title.Success {
			return episodeFromTitle(id, season, episode, resolvedID, title)
		}
		out := failedEpisode(id, season, episode,
			fmt.Sprintf("episode id %s resolved but no rating extracted", resolvedID))
		out.Method = strPtr(MethodEpisodeIDFound)
		out.EpisodeIMDBID = &resolvedID
		return out
	}

	return failedEpisode(id, season, episode,
		fmt.Sprintf("no rating found for %s S%dE%d", id, season, episode))
}

// BatchEpisodeRatings resolves many episodes with bounded parallelism. Each
// item runs its own independent strategy cascade.
func (s *Service) BatchEpisodeRatings(ctx context.Context, queries []models.EpisodeQuery) []models.EpisodeRating {
	results := make([]models.EpisodeRating, len(queries))
	p := pool.New().WithMaxGoroutines(s.batchLimit)
	for i, q := range queries {
		p.Go(func() {
			results[i] = s.EpisodeRating(ctx, q.IMDBID, q.Season, q.Episode)
		})
	}
	p.Wait()
	return results
}

func strPtr(v string) *string { return &v }

func successTitle(id string, ext *extraction) models.TitleRating {
	title := ext.Title
	if title == "" {
		title = placeholderTitle
	}
	return models.TitleRating{
		IMDBID:  id,
		Rating:  &ext.Rating,
		Votes:   &ext.Votes,
		Title:   &title,
		Success: true,
		Method:  &ext.Method,
	}
}

func failedTitle(id, reason string) models.TitleRating {
	return models.TitleRating{IMDBID: id, Error: &reason}
}

func successEpisode(id string, season, episode int, ext *extraction, episodeID string) models.EpisodeRating {
	title := ext.Title
	if title == "" {
		title = placeholderTitle
	}
	out := models.EpisodeRating{
		IMDBID:  id,
		Season:  season,
		Episode: episode,
		Rating:  &ext.Rating,
		Votes:   &ext.Votes,
		Title:   &title,
		Success: true,
		Method:  &ext.Method,
	}
	if episodeID != "" {
		out.EpisodeIMDBID = &episodeID
	}
	return out
}

func failedEpisode(id string, season, episode int, reason string) models.EpisodeRating {
	return models.EpisodeRating{
		IMDBID:  id,
		Season:  season,
		Episode: episode,
		Error:   &reason,
	}
}

// episodeFromTitle lifts a successful single-title lookup into the episode
// response shape, propagating the title path's method tag.
func episodeFromTitle(id string, season, episode int, episodeID string, title models.TitleRating) models.EpisodeRating {
	return models.EpisodeRating{
		IMDBID:        id,
		Season:        season,
		Episode:       episode,
		Rating:        title.Rating,
		Votes:         title.Votes,
		Title:         title.Title,
		Success:       true,
		Method:        title.Method,
		EpisodeIMDBID: &episodeID,
	}
}
