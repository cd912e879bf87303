// Package tychoclient is the default, minimal upstream adapter: it speaks
// newline-delimited JSON over plain HTTP to whatever endpoint a network's
// UpstreamEndpoint names. It satisfies core/upstream's StreamBuilder and
// TokenClient contracts; a deployment that talks to a richer streaming
// provider supplies its own implementation instead of this one.
package tychoclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"dexstream/core"
	"dexstream/core/upstream"
)

// Client is a stateless HTTP caller; a single value serves every network,
// since the network's endpoint is threaded through on each call rather
// than fixed at construction.
type Client struct {
	httpc  *http.Client
	apiKey string
}

// New returns a Client that attaches apiKey (if non-empty) as a bearer
// token on every outbound request.
func New(apiKey string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{httpc: httpc, apiKey: apiKey}
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// ForNetwork binds Client to a fixed endpoint, producing the
// upstream.TokenClient the worker actually holds (the interface's Tokens
// method carries only a chain tag, not an endpoint).
func (c *Client) ForNetwork(endpoint string) upstream.TokenClient {
	return boundClient{Client: c, endpoint: endpoint}
}

type boundClient struct {
	*Client
	endpoint string
}

func (b boundClient) Tokens(ctx context.Context, chainTag string) ([]core.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"/tokens?chain="+chainTag, nil)
	if err != nil {
		return nil, err
	}
	b.authorize(req)
	resp, err := b.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokens: upstream returned %s", resp.Status)
	}
	var tokens []core.Token
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// stream is the upstream.Stream implementation backing Dial.
type stream struct {
	updates chan upstream.BlockUpdate
	errs    chan error
	cancel  context.CancelFunc
	body    io.ReadCloser
}

func (s *stream) Updates() <-chan upstream.BlockUpdate { return s.updates }
func (s *stream) Err() <-chan error                    { return s.errs }
func (s *stream) Close() error {
	s.cancel()
	return s.body.Close()
}

// Dial implements upstream.StreamBuilder by opening a long-lived GET to
// "<endpoint>/stream?chain=<tag>" and decoding one JSON block update per
// newline (newline-delimited JSON, the simplest framing both a Go client
// and most HTTP streaming providers agree on).
func (c *Client) Dial(ctx context.Context, endpoint, chainTag string) (upstream.Stream, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, endpoint+"/stream?chain="+chainTag, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	c.authorize(req)
	resp, err := c.httpc.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		cancel()
		resp.Body.Close()
		return nil, fmt.Errorf("stream: upstream returned %s", resp.Status)
	}

	st := &stream{
		updates: make(chan upstream.BlockUpdate, 1),
		errs:    make(chan error, 1),
		cancel:  cancel,
		body:    resp.Body,
	}
	go st.pump()
	return st, nil
}

// wireUpdate mirrors the upstream streaming provider's own delta shape
// (see core/upstream's BlockUpdate doc comment): ids are already
// lowercased by the provider.
type wireUpdate struct {
	Block        uint64                                `json:"block_number"`
	Components   map[core.ComponentID]core.Component   `json:"new_pairs"`
	States       map[core.ComponentID]core.Simulation   `json:"states"`
	RemovedPairs map[core.ComponentID]core.Component    `json:"removed_pairs"`
}

func (s *stream) pump() {
	defer close(s.updates)
	defer close(s.errs)
	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var wu wireUpdate
		if err := json.Unmarshal(line, &wu); err != nil {
			s.errs <- err
			return
		}
		removed := make([]core.ComponentID, 0, len(wu.RemovedPairs))
		for id := range wu.RemovedPairs {
			removed = append(removed, id)
		}
		s.updates <- upstream.BlockUpdate{
			Block:        wu.Block,
			Components:   wu.Components,
			Protosims:    wu.States,
			RemovedPairs: removed,
		}
	}
	if err := scanner.Err(); err != nil {
		s.errs <- err
	}
}
