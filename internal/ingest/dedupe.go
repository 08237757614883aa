package ingest

import "cinecatalog-api/internal/model"

// DedupeSchedules removes duplicate time slots from every showtime schedule.
// The upstream feed repeats slots when a screening is listed under several
// ticket types. First-seen order is kept. Applying it twice is a no-op.
func DedupeSchedules(movies []model.Movie) []model.Movie {
	for i := range movies {
		for j := range movies[i].Showtimes {
			movies[i].Showtimes[j].Schedule = uniq(movies[i].Showtimes[j].Schedule)
		}
	}
	return movies
}

func uniq(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
