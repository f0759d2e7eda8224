package models

// TitleRating is the response shape for a single title or episode identifier
// lookup. Rating, Votes, Title and Method are null until a strategy succeeds.
type TitleRating struct {
	IMDBID  string   `json:"imdb_id"`
	Rating  *float64 `json:"rating"`
	Votes   *string  `json:"votes"`
	Title   *string  `json:"title"`
	Success bool     `json:"success"`
	Method  *string  `json:"method"`
	Error   *string  `json:"error"`
}

// EpisodeRating is the response shape for a show/season/episode lookup.
// EpisodeIMDBID is populated when an episode identifier was resolved even
// though no rating could be extracted (method "episode_id_found"), so the
// caller can chain a direct title lookup.
type EpisodeRating struct {
	IMDBID        string   `json:"imdb_id"`
	Season        int      `json:"season"`
	Episode       int      `json:"episode"`
	Rating        *float64 `json:"rating"`
	Votes         *string  `json:"votes"`
	Title         *string  `json:"title"`
	Success       bool     `json:"success"`
	Method        *string  `json:"method"`
	Error         *string  `json:"error"`
	EpisodeIMDBID *string  `json:"episode_imdb_id,omitempty"`
}

// EpisodeQuery identifies one episode in a batch rating request.
type EpisodeQuery struct {
	IMDBID  string `json:"imdb_id"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

type BatchRatingsRequest struct {
	Queries []EpisodeQuery `json:"queries"`
}

type BatchRatingsResponse struct {
	Results []EpisodeRating `json:"results"`
}
