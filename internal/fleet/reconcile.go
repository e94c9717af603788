package fleet

import (
	"sort"
)

// Diff is the outcome of one reconciliation. Each slice is ordered by vehicle id.
type Diff struct {
	Created []Vehicle `json:"created"`
	Updated []Vehicle `json:"updated"`
	Removed []string  `json:"removed"`
}

// Empty reports whether the cycle changed nothing at all.
func (d Diff) Empty() bool {
	return len(d.Created) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Reconcile normalizes snapshot and diffs it against previous. The returned set holds exactly
// the vehicles of snapshot; when an id repeats, its last record wins. previous is not modified.
func Reconcile(previous map[string]Vehicle, snapshot []Record) (map[string]Vehicle, Diff) {
	next := make(map[string]Vehicle, len(snapshot))
	for _, r := range snapshot {
		next[r.ID] = Normalize(r)
	}

	var diff Diff
	for id, v := range next {
		if _, tracked := previous[id]; tracked {
			diff.Updated = append(diff.Updated, v)
		} else {
			diff.Created = append(diff.Created, v)
		}
	}
	for id := range previous {
		if _, ok := next[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}

	sortVehicles(diff.Created)
	sortVehicles(diff.Updated)
	sort.Strings(diff.Removed)

	return next, diff
}

func sortVehicles(vs []Vehicle) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].ID < vs[j].ID })
}
