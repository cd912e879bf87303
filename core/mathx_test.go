package core_test

import (
	"errors"
	"testing"

	core "dexstream/core"
)

func TestRoutingFindsDirectHop(t *testing.T) {
	a, b := core.Address("0xaaaa"), core.Address("0xbbbb")
	components := []core.Component{
		{ID: "pool1", Tokens: []core.Token{{Address: a}, {Address: b}}},
	}
	path, err := core.Routing(components, a, b, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 1 || path[0] != "pool1" {
		t.Fatalf("expected [pool1], got %v", path)
	}
}

func TestRoutingSameTokenFails(t *testing.T) {
	a := core.Address("0xaaaa")
	if _, err := core.Routing(nil, a, a, 3); !errors.Is(err, core.ErrSameToken) {
		t.Fatalf("expected ErrSameToken, got %v", err)
	}
}

func TestRoutingNoPathFails(t *testing.T) {
	a, b := core.Address("0xaaaa"), core.Address("0xbbbb")
	if _, err := core.Routing(nil, a, b, 3); !errors.Is(err, core.ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestConstantProductQuote(t *testing.T) {
	out := core.ConstantProductQuote(1000, 1000, 100, 30)
	if out <= 0 || out >= 100 {
		t.Fatalf("expected a positive output smaller than the input amount, got %f", out)
	}
}

func TestConstantProductQuoteZeroInputs(t *testing.T) {
	if out := core.ConstantProductQuote(0, 1000, 100, 30); out != 0 {
		t.Fatalf("expected 0 for empty reserve, got %f", out)
	}
}

type fakeQuoter struct{ rate float64 }

func (f fakeQuoter) AmountOut(amountIn float64, baseForQuote bool) (float64, error) {
	if amountIn <= 0 {
		return 0, errors.New("non-positive amount")
	}
	return amountIn * f.rate, nil
}

func TestBuildOrderbookAggregatesQuoters(t *testing.T) {
	states := []core.ProtoState{
		{Component: core.Component{ID: "p1"}, Protosim: fakeQuoter{rate: 2.0}},
		{Component: core.Component{ID: "p2"}, Protosim: "not a quoter"},
	}
	base := core.Token{Symbol: "A"}
	quote := core.Token{Symbol: "B"}
	bids, asks, err := core.BuildOrderbook(states, base, quote, 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bids) != 3 || len(asks) != 3 {
		t.Fatalf("expected 3 levels per side from the one quoting component, got bids=%d asks=%d", len(bids), len(asks))
	}
}

func TestBuildOrderbookNoQuoters(t *testing.T) {
	states := []core.ProtoState{{Component: core.Component{ID: "p1"}, Protosim: "opaque"}}
	if _, _, err := core.BuildOrderbook(states, core.Token{}, core.Token{}, 1, 3); !errors.Is(err, core.ErrNoQuoters) {
		t.Fatalf("expected ErrNoQuoters, got %v", err)
	}
}
