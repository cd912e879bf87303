package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dexstream/core"
	"dexstream/pkg/cache"
)

func errf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// envelope writes the uniform {success, error, data, ts} response body
// every endpoint shares. status is the HTTP status code; the envelope
// itself still carries success/error regardless of it. Every failure except
// an undecodable request body (400) answers 200 and lets the envelope carry
// the verdict.
func envelope[T any](w http.ResponseWriter, status int, data *T, err error) {
	resp := core.Envelope[T]{Ts: time.Now().Unix()}
	if err != nil {
		resp.Success = false
		resp.Error = err.Error()
	} else {
		resp.Success = true
		resp.Data = data
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func ok[T any](w http.ResponseWriter, data T) {
	envelope(w, http.StatusOK, &data, nil)
}

func fail[T any](w http.ResponseWriter, status int, err error) {
	var zero *T
	envelope(w, status, zero, err)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	ok(w, "Gm!")
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !s.checkReadAuth(w, r) {
		return
	}
	ok(w, core.Version{Version: s.cfg.Version})
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	if !s.checkReadAuth(w, r) {
		return
	}
	names := make([]string, 0, len(s.networks))
	for name := range s.networks {
		names = append(names, name)
	}
	ok(w, names)
}

// checkReadAuth runs the read-path's single header check. It returns false
// (and has already written the failure envelope) if the request should
// stop here.
func (s *Server) checkReadAuth(w http.ResponseWriter, r *http.Request) bool {
	if err := core.PrevalidateRead(s.cfg.WebAPIKey, r.Header.Get(core.HeaderAPIKey)); err != nil {
		fail[any](w, http.StatusOK, err)
		return false
	}
	return true
}

func (s *Server) handleStatus(nc *NetworkContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.checkReadAuth(w, r) {
			return
		}
		status, _ := cache.Get[core.StreamStatus](r.Context(), nc.Cache, cache.Keys.Status(nc.Network.Name))
		latest, _ := cache.Get[uint64](r.Context(), nc.Cache, cache.Keys.Latest(nc.Network.Name))
		ok(w, core.Status{Stream: status, Latest: itoa(latest)})
	}
}

func (s *Server) handleTokens(nc *NetworkContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.checkReadAuth(w, r) {
			return
		}
		tokens, _ := cache.Get[[]core.Token](r.Context(), nc.Cache, cache.Keys.Tokens(nc.Network.Name))
		ok(w, tokens)
	}
}

func (s *Server) handleComponents(nc *NetworkContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.checkReadAuth(w, r) {
			return
		}
		components, _ := cache.Get[[]core.Component](r.Context(), nc.Cache, cache.Keys.Components(nc.Network.Name))
		ok(w, components)
	}
}

func (s *Server) handlePairs(nc *NetworkContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.checkReadAuth(w, r) {
			return
		}
		components, _ := cache.Get[[]core.Component](r.Context(), nc.Cache, cache.Keys.Components(nc.Network.Name))
		ok(w, core.EnumeratePairs(components))
	}
}

// handleOrderbook implements the full compute algorithm from the orderbook
// endpoint: pre-validation, token/tag resolution, routing to the native
// asset on both legs, component/simulation gathering, the cache
// short-circuit, valuation, the pure build, and the cache write-back.
func (s *Server) handleOrderbook(nc *NetworkContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status, _ := cache.Get[core.StreamStatus](ctx, nc.Cache, cache.Keys.Status(nc.Network.Name))
		if err := core.PrevalidateCompute(nc.State.Initialised(), status, s.cfg.WebAPIKey, r.Header.Get(core.HeaderAPIKey)); err != nil {
			fail[core.Orderbook](w, http.StatusOK, err)
			return
		}

		var params core.OrderbookRequestParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			fail[core.Orderbook](w, http.StatusBadRequest, err)
			return
		}

		halves := strings.SplitN(params.Tag, "-", 2)
		if len(halves) != 2 || !core.ValidAddress(halves[0]) || !core.ValidAddress(halves[1]) {
			fail[core.Orderbook](w, http.StatusOK, errf("malformed pair tag %q", params.Tag))
			return
		}
		tokens, _ := cache.Get[[]core.Token](ctx, nc.Cache, cache.Keys.Tokens(nc.Network.Name))
		base, ok1 := findToken(tokens, halves[0])
		quote, ok2 := findToken(tokens, halves[1])
		if !ok1 {
			fail[core.Orderbook](w, http.StatusOK, errf("Couldn't find tokens[0]"))
			return
		}
		if !ok2 {
			fail[core.Orderbook](w, http.StatusOK, errf("Couldn't find tokens[1]"))
			return
		}

		components, _ := cache.Get[[]core.Component](ctx, nc.Cache, cache.Keys.Components(nc.Network.Name))

		baseToNative, _ := core.Routing(components, base.Address, nc.Network.NativeAsset, 3)
		quoteToNative, _ := core.Routing(components, quote.Address, nc.Network.NativeAsset, 3)
		toNativeSet := make(map[core.ComponentID]struct{})
		for _, id := range baseToNative {
			toNativeSet[id] = struct{}{}
		}
		for _, id := range quoteToNative {
			toNativeSet[id] = struct{}{}
		}

		var ptss, toNativePtss []core.ProtoState
		for _, c := range components {
			sim, found := nc.State.Simulation(c.ID)
			if c.HasTokens(base.Address, quote.Address) {
				if !found {
					s.logger.WithField("component", c.ID).Warn("missing simulation for pair component")
				} else {
					ptss = append(ptss, core.ProtoState{Component: c, Protosim: sim})
				}
			}
			if _, inPath := toNativeSet[c.ID]; inPath && found {
				toNativePtss = append(toNativePtss, core.ProtoState{Component: c, Protosim: sim})
			}
		}
		if len(ptss) == 0 {
			fail[core.Orderbook](w, http.StatusOK, errf("pair %s has 0 associated pools and multi-hop is not enabled", params.Tag))
			return
		}

		singlePoint := params.Point != nil
		if !singlePoint {
			if cached, found := cache.Get[core.Orderbook](ctx, nc.Cache, cache.Keys.Orderbook(nc.Network.Name, params.Tag)); found {
				if !core.StaleOrderbook(cached, components) {
					ok(w, cached)
					return
				}
			}
		}

		baseWorthEth, err := nativeValuation(toNativePtss, base)
		if err != nil {
			fail[core.Orderbook](w, http.StatusOK, errf("Couldn't find the quote path from %s to ETH", base.Symbol))
			return
		}
		quoteWorthEth, err := nativeValuation(toNativePtss, quote)
		if err != nil {
			fail[core.Orderbook](w, http.StatusOK, errf("Couldn't find the quote path from %s to ETH", quote.Symbol))
			return
		}

		bids, asks, err := core.BuildOrderbook(ptss, base, quote, params.Sensitivity, params.Steps)
		if err != nil {
			fail[core.Orderbook](w, http.StatusOK, err)
			return
		}
		pools := make([]core.Component, 0, len(ptss))
		for _, p := range ptss {
			pools = append(pools, p.Component)
		}
		latest, _ := cache.Get[uint64](ctx, nc.Cache, cache.Keys.Latest(nc.Network.Name))
		book := core.Orderbook{
			Network:       nc.Network.Name,
			Base:          base,
			Quote:         quote,
			Block:         latest,
			Timestamp:     time.Now().Unix(),
			Pools:         pools,
			Bids:          bids,
			Asks:          asks,
			BaseWorthEth:  baseWorthEth,
			QuoteWorthEth: quoteWorthEth,
		}

		if !singlePoint {
			cache.Set(ctx, nc.Cache, cache.Keys.Orderbook(nc.Network.Name, params.Tag), book)
		}
		ok(w, book)
	}
}

// handleExecute implements the execute algorithm: intersect the request's
// components with the current authoritative list, then hand off to the
// injected executor.
func (s *Server) handleExecute(nc *NetworkContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status, _ := cache.Get[core.StreamStatus](ctx, nc.Cache, cache.Keys.Status(nc.Network.Name))
		if err := core.PrevalidateCompute(nc.State.Initialised(), status, s.cfg.WebAPIKey, r.Header.Get(core.HeaderAPIKey)); err != nil {
			fail[core.ExecutionPayload](w, http.StatusOK, err)
			return
		}
		var req core.ExecutionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail[core.ExecutionPayload](w, http.StatusBadRequest, err)
			return
		}
		if s.executor == nil {
			fail[core.ExecutionPayload](w, http.StatusOK, errf("execution engine is not configured"))
			return
		}
		current := nc.State.Components()
		originals := core.IntersectComponents(req.Components, current)
		payload, err := s.executor.Build(nc.Network.Name, req, originals)
		if err != nil {
			fail[core.ExecutionPayload](w, http.StatusOK, err)
			return
		}
		ok(w, payload)
	}
}

// findToken resolves addr (lowercased) against the token list.
func findToken(tokens []core.Token, addr string) (core.Token, bool) {
	target := core.NormalizeAddress(addr)
	for _, t := range tokens {
		if t.Address == target {
			return t, true
		}
	}
	return core.Token{}, false
}

// nativeValuation feeds 1 unit of tok through every quoting component in
// path, in slice order, each AmountOut result becoming the next input;
// components that are not Quoters or fail to quote are skipped. The caller
// passes the components of both legs' routes to the native asset. A path
// with no quoting components anywhere along it is an error.
func nativeValuation(path []core.ProtoState, tok core.Token) (float64, error) {
	if len(path) == 0 {
		return 0, errf("no routing path for %s", tok.Symbol)
	}
	amount := 1.0
	quoted := false
	for _, p := range path {
		q, isQuoter := p.Protosim.(core.Quoter)
		if !isQuoter {
			continue
		}
		out, err := q.AmountOut(amount, true)
		if err != nil || out <= 0 {
			continue
		}
		amount = out
		quoted = true
	}
	if !quoted {
		return 0, errf("no quoting component along the route")
	}
	return amount, nil
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}
