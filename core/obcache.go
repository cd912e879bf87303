package core

// StaleOrderbook reports whether cached, built for the components listed in
// cached.Pools, is still fresh against current (the live component list).
// A pool that has since disappeared from current invalidates the cache
// outright; otherwise it is stale the moment any contributing pool's
// timestamp strictly advances (equality is considered fresh).
func StaleOrderbook(cached Orderbook, current []Component) bool {
	byID := make(map[ComponentID]Component, len(current))
	for _, c := range current {
		byID[NormalizeComponentID(string(c.ID))] = c
	}
	for _, prev := range cached.Pools {
		cur, ok := byID[NormalizeComponentID(string(prev.ID))]
		if !ok {
			return true
		}
		if cur.LastUpdatedAt-prev.LastUpdatedAt > 0 {
			return true
		}
	}
	return false
}
