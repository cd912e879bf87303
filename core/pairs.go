package core

import "sort"

// pairKey is the dedup key: the two token addresses, base < quote.
type pairKey struct {
	base  Address
	quote Address
}

// EnumeratePairs generates the unordered, deduplicated pair set across every
// component with at least two tokens. Each pair is canonicalised so that
// (A, B) and (B, A) collapse into one entry, and the result is sorted
// lexicographically by (addrbase, addrquote).
func EnumeratePairs(components []Component) []PairTag {
	seen := make(map[pairKey]struct{})
	var pairs []PairTag

	for _, c := range components {
		toks := c.Tokens
		if len(toks) < 2 {
			continue
		}
		for i := 0; i < len(toks); i++ {
			for j := i + 1; j < len(toks); j++ {
				first, second := toks[i], toks[j]
				if second.Address < first.Address {
					first, second = second, first
				}
				key := pairKey{base: first.Address, quote: second.Address}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				pairs = append(pairs, PairTag{
					Base:      first.Symbol,
					Quote:     second.Symbol,
					AddrBase:  first.Address,
					AddrQuote: second.Address,
				})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].AddrBase != pairs[j].AddrBase {
			return pairs[i].AddrBase < pairs[j].AddrBase
		}
		return pairs[i].AddrQuote < pairs[j].AddrQuote
	})
	return pairs
}
