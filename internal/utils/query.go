package utils

import (
	"net/url"
	"strconv"
)

// QueryInt reads key as an integer inside [lo, hi]. Missing or malformed
// values give def; out-of-range values are clamped.
func QueryInt(q url.Values, key string, def, lo, hi int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return def
	}
	return min(max(n, lo), hi)
}
