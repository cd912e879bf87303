package core

// mathx.go holds the pure, allocation-light math the HTTP surface's
// orderbook endpoint runs: path-finding across the component graph, the constant-product quote primitive, and orderbook
// aggregation from per-pool quotes. None of it touches the network, the
// cache, or SharedState; every function here is a plain transform over
// values its caller already holds.

import (
	"container/heap"
	"errors"
	"sort"
)

var (
	ErrSameToken  = errors.New("input and output token are identical")
	ErrNoRoute    = errors.New("no route found within the hop budget")
	ErrNoQuoters  = errors.New("no component produced a usable quote")
)

// Quoter is implemented by a live simulation object capable of pricing a
// swap through its pool. The upstream streaming library's simulation type
// is expected to satisfy this; BuildOrderbook silently skips any
// ProtoState whose Simulation does not.
type Quoter interface {
	AmountOut(amountIn float64, baseForQuote bool) (float64, error)
}

// routeEdge is one component's (tokenFrom -> tokenTo) hop in the routing
// graph built by buildGraph.
type routeEdge struct {
	component ComponentID
	to        Address
}

func buildGraph(components []Component) map[Address][]routeEdge {
	graph := make(map[Address][]routeEdge)
	for _, c := range components {
		for i := range c.Tokens {
			for j := range c.Tokens {
				if i == j {
					continue
				}
				a, b := c.Tokens[i].Address, c.Tokens[j].Address
				graph[a] = append(graph[a], routeEdge{component: c.ID, to: b})
			}
		}
	}
	return graph
}

// routeNode is one entry in the Dijkstra frontier: the token reached, the
// hop count to reach it and the component path taken.
type routeNode struct {
	token Address
	hops  int
	path  []ComponentID
}

type routeQueue []*routeNode

func (q routeQueue) Len() int            { return len(q) }
func (q routeQueue) Less(i, j int) bool  { return q[i].hops < q[j].hops }
func (q routeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *routeQueue) Push(x interface{}) { *q = append(*q, x.(*routeNode)) }
func (q *routeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Routing finds the cheapest (fewest-hop) path of components connecting
// from to to, within maxHops. It operates purely on which components share
// which tokens; it does not weigh routes by price, since per-pool reserve
// state lives in the opaque Simulation objects, not in Component.
func Routing(components []Component, from, to Address, maxHops int) ([]ComponentID, error) {
	if from == to {
		return nil, ErrSameToken
	}
	graph := buildGraph(components)
	best := map[Address]int{from: 0}
	q := &routeQueue{{token: from, hops: 0}}
	heap.Init(q)
	for q.Len() > 0 {
		n := heap.Pop(q).(*routeNode)
		if n.hops > maxHops {
			continue
		}
		if n.token == to {
			return n.path, nil
		}
		for _, e := range graph[n.token] {
			cost := n.hops + 1
			if d, ok := best[e.to]; !ok || cost < d {
				best[e.to] = cost
				path := append(append([]ComponentID(nil), n.path...), e.component)
				heap.Push(q, &routeNode{token: e.to, hops: cost, path: path})
			}
		}
	}
	return nil, ErrNoRoute
}

// ConstantProductQuote prices a single-hop swap through an x*y=k pool with
// the given reserves and fee (in basis points), the same formula the AMM
// pool primitives this service's components ultimately wrap use on-chain.
func ConstantProductQuote(reserveIn, reserveOut, amountIn float64, feeBps int) float64 {
	if reserveIn <= 0 || reserveOut <= 0 || amountIn <= 0 {
		return 0
	}
	feeAdj := 1 - float64(feeBps)/10_000
	amountInAfterFee := amountIn * feeAdj
	return (amountInAfterFee * reserveOut) / (reserveIn + amountInAfterFee)
}

// BuildOrderbook samples each quoting component's simulation at `steps`
// amounts spaced by sensitivity, in both directions, and merges the results
// into sorted bid/ask levels. Components whose Simulation does not
// implement Quoter are skipped; if none do, ErrNoQuoters is returned so the
// caller can distinguish "empty book" from "nothing to quote".
func BuildOrderbook(states []ProtoState, base, quote Token, sensitivity float64, steps int) ([]BookLevel, []BookLevel, error) {
	if sensitivity <= 0 {
		sensitivity = 0.1
	}
	if steps <= 0 {
		steps = 10
	}
	var bids, asks []BookLevel
	quoters := 0
	for _, st := range states {
		q, ok := st.Protosim.(Quoter)
		if !ok {
			continue
		}
		quoters++
		for i := 1; i <= steps; i++ {
			amt := sensitivity * float64(i)

			if out, err := q.AmountOut(amt, true); err == nil && out > 0 {
				asks = append(asks, BookLevel{Price: amt / out, Amount: out})
			}
			if out, err := q.AmountOut(amt, false); err == nil && out > 0 {
				bids = append(bids, BookLevel{Price: out / amt, Amount: amt})
			}
		}
	}
	if quoters == 0 {
		return nil, nil, ErrNoQuoters
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })
	return bids, asks, nil
}
