// Package snapshot holds the set difference between two socket captures.
package snapshot

import "github.com/pratik-anurag/porter/internal/model"

// set is an unordered capture keyed by structural identity (icon excluded).
// Structurally equal records collapse into one.
type set map[model.Record]model.Record

func newSet(recs []model.Record) set {
	s := make(set, len(recs))
	for _, r := range recs {
		s[r.Fingerprint()] = r
	}
	return s
}

// Diff reports records present only in curr (added) and only in prev
// (removed). Order is unspecified.
func Diff(prev, curr []model.Record) (added, removed []model.Record) {
	ps, cs := newSet(prev), newSet(curr)
	for fp, r := range cs {
		if _, ok := ps[fp]; !ok {
			added = append(added, r)
		}
	}
	for fp, r := range ps {
		if _, ok := cs[fp]; !ok {
			removed = append(removed, r)
		}
	}
	return added, removed
}
