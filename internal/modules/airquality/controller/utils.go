package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultFetchesLimit = 100
	maxFetchesLimit     = 1000
	fetchedAtLayout     = "02.01.2006 15:04:05"
)

func parseFetchesQuery(r *http.Request) (limit int, err error) {
	limit = defaultFetchesLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return 0, errors.New("invalid 'limit' (expected integer)")
		}
		if n <= 0 {
			return 0, errors.New("'limit' must be > 0")
		}
		if n > maxFetchesLimit {
			return 0, errors.New("'limit' must be <= 1000")
		}
		limit = n
	}
	return limit, nil
}

// parseIndex parses a reading index. Range checks against the snapshot are
// left to the service.
func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing reading index")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid reading index (expected integer)")
	}
	if n < 0 {
		return 0, errors.New("reading index must be >= 0")
	}
	return n, nil
}

func zeroAsNullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func formatFetchedAt(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(fetchedAtLayout)
}
