package monitor

import (
	"strconv"
	"strings"

	"github.com/pratik-anurag/porter/internal/model"
)

// Filter keeps records whose name (case-insensitively) or port contains the
// trimmed query. An empty query keeps everything.
func Filter(recs []model.Record, query string) []model.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return recs
	}
	var out []model.Record
	for _, r := range recs {
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strconv.Itoa(r.Port), q) {
			out = append(out, r)
		}
	}
	return out
}
