package core_test

import (
	"testing"

	core "dexstream/core"
)

func tok(addr, symbol string) core.Token {
	return core.Token{Address: core.Address(addr), Symbol: symbol}
}

func TestEnumeratePairsDedupAndSort(t *testing.T) {
	a, b, c := tok("0xaaaa", "A"), tok("0xbbbb", "B"), tok("0xcccc", "C")
	components := []core.Component{
		{ID: "p1", Tokens: []core.Token{a, b}},
		{ID: "p2", Tokens: []core.Token{b, a}},
		{ID: "p3", Tokens: []core.Token{a, c}},
	}

	pairs := core.EnumeratePairs(components)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 deduplicated pairs, got %d: %+v", len(pairs), pairs)
	}
	if pairs[0].AddrBase != a.Address || pairs[0].AddrQuote != b.Address {
		t.Fatalf("expected (A,B) first, got %+v", pairs[0])
	}
	if pairs[1].AddrBase != a.Address || pairs[1].AddrQuote != c.Address {
		t.Fatalf("expected (A,C) second, got %+v", pairs[1])
	}
}

func TestEnumeratePairsSkipsSingleTokenComponents(t *testing.T) {
	components := []core.Component{
		{ID: "p1", Tokens: []core.Token{tok("0xaaaa", "A")}},
	}
	if pairs := core.EnumeratePairs(components); len(pairs) != 0 {
		t.Fatalf("expected no pairs from a single-token component, got %+v", pairs)
	}
}
