package resource

import (
	"sort"

	"github.com/cuemby/gcsd/pkg/types"
)

// Constraint narrows candidate nodes beyond raw resource fit: an optional
// exclusion set (nodes already used by earlier bundles of the same
// placement group, for STRICT_SPREAD) and an optional required node (for
// STRICT_PACK, where every bundle after the first must land on the node
// the first one bound to).
type Constraint struct {
	Demand      types.Resources
	Exclude     map[string]bool
	RequireNode string
}

// Candidates runs the two-stage filter-then-score policy over a snapshot:
// first the hard predicate (alive, not excluded, resource fit), then a
// bin-packing utilization score, translated from
// beinian555-titan's filter.go/score.go into a multi-resource form. Ties
// are broken lexicographically on NodeID so decisions are debuggable and
// reproducible, per §4.4. Scheduling never mutates the snapshot or the
// manager; the caller commits via Manager.Reserve.
func Candidates(views []*types.ResourceView, c Constraint) []string {
	filtered := filter(views, c)
	sort.Slice(filtered, func(i, j int) bool {
		si := score(filtered[i], c.Demand)
		sj := score(filtered[j], c.Demand)
		if si != sj {
			return si > sj
		}
		return filtered[i].NodeID < filtered[j].NodeID
	})
	out := make([]string, len(filtered))
	for i, v := range filtered {
		out[i] = v.NodeID
	}
	return out
}

func filter(views []*types.ResourceView, c Constraint) []*types.ResourceView {
	var out []*types.ResourceView
	for _, v := range views {
		if c.RequireNode != "" && v.NodeID != c.RequireNode {
			continue
		}
		if c.Exclude[v.NodeID] {
			continue
		}
		if !v.Available.Fits(c.Demand) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// score is a bin-packing utilization score across every dimension named in
// demand: the higher the resulting utilization after placing demand, the
// higher the score, so the scheduler prefers to pack rather than spread by
// default (the caller inverts preference for a SPREAD strategy by widening
// Exclude as it places each bundle).
func score(v *types.ResourceView, demand types.Resources) float64 {
	var total float64
	var dims int
	for res, want := range demand {
		capacity := v.Total[res]
		if capacity <= 0 {
			continue
		}
		used := (v.Total[res] - v.Available[res]) + want
		total += (used / capacity) * 10
		dims++
	}
	if dims == 0 {
		return 0
	}
	return total
}
