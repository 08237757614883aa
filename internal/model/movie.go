package model

// Keyed exposes the natural identity used for idempotent upserts, so repeated
// ingestion runs converge on one document per logical item.
type Keyed interface {
	Key() map[string]interface{}
}

// Cinema is the theater reference embedded in a showtime block.
type Cinema struct {
	ID   int    `json:"id" bson:"id"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
}

// Showtime holds one theater's screening slots for a movie on a single day.
type Showtime struct {
	Cinema   Cinema   `json:"cinema" bson:"cinema"`
	Schedule []string `json:"schedule" bson:"schedule"`
}

// ProviderIDs carries the cross-provider identifiers attached to a movie.
type ProviderIDs struct {
	IMDB string `json:"imdb,omitempty" bson:"imdb,omitempty"`
	TMDB string `json:"tmdb,omitempty" bson:"tmdb,omitempty"`
}

// Movie is one catalog item as returned by the showtimes and upcoming feeds.
// The same shape covers both: upcoming items simply arrive without showtimes.
type Movie struct {
	ID          int         `json:"id" bson:"id"`
	Title       string      `json:"title" bson:"title"`
	Year        string      `json:"year,omitempty" bson:"year,omitempty"`
	ReleaseDate string      `json:"release_date,omitempty" bson:"release_date,omitempty"`
	Plot        string      `json:"plot,omitempty" bson:"plot,omitempty"`
	Durations   []int       `json:"durationMinutes,omitempty" bson:"durationMinutes,omitempty"`
	Poster      string      `json:"poster,omitempty" bson:"poster,omitempty"`
	Genres      []string    `json:"genres,omitempty" bson:"genres,omitempty"`
	IDs         ProviderIDs `json:"ids,omitempty" bson:"ids,omitempty"`
	Showtimes   []Showtime  `json:"showtimes,omitempty" bson:"showtimes,omitempty"`

	// ExtraImages is filled in by the enrichment step, never by the feed.
	ExtraImages []string `json:"extraImages,omitempty" bson:"extraImages,omitempty"`
}

// Key returns the natural identity of a movie across ingestion runs.
// The provider recycles numeric ids between listings, so the title is part
// of the key.
func (m Movie) Key() map[string]interface{} {
	return map[string]interface{}{"id": m.ID, "title": m.Title}
}

// ExtraImages is the per-movie image document kept in the aux collection,
// keyed by imdb id alone.
type ExtraImages struct {
	IMDBID string   `json:"imdbid" bson:"imdbid"`
	Poster string   `json:"poster,omitempty" bson:"poster,omitempty"`
	Images []string `json:"images,omitempty" bson:"images,omitempty"`
}

// Key returns the natural identity of an extra-images document.
func (x ExtraImages) Key() map[string]interface{} {
	return map[string]interface{}{"imdbid": x.IMDBID}
}

// ReferenceRecord is a flat genre or theater record. The provider is loose
// about key names (tabs and other control characters leak in), so records stay
// schemaless and are normalized before storage.
type ReferenceRecord map[string]interface{}
