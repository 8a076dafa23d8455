package processor

import (
	"sort"

	"sdrflow/models"
)

// Group is one candidate package: every trade booked in the same minute with
// the same effective date and currency, in input order.
type Group struct {
	Key    string
	Trades []models.NormalizedTrade
}

// GroupTrades partitions normalized trades by group key. Input order is
// preserved within each group (the detector's tie-breaking depends on it);
// groups themselves come back in sorted key order so a run is deterministic.
func GroupTrades(trades []models.NormalizedTrade) []Group {
	byKey := make(map[string]*Group)
	for _, t := range trades {
		g, ok := byKey[t.GroupKey]
		if !ok {
			g = &Group{Key: t.GroupKey}
			byKey[t.GroupKey] = g
		}
		g.Trades = append(g.Trades, t)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, *byKey[k])
	}
	return groups
}
