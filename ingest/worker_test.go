package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"dexstream/core"
	"dexstream/core/upstream"
	"dexstream/ingest"
	"dexstream/pkg/cache"
)

var errTokenFetch = errors.New("token fetch failed")

type fakeTokenClient struct {
	tokens []core.Token
	err    error
}

func (f fakeTokenClient) Tokens(ctx context.Context, chainTag string) ([]core.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

type fakeStream struct {
	updates chan upstream.BlockUpdate
	errs    chan error
}

func (s *fakeStream) Updates() <-chan upstream.BlockUpdate { return s.updates }
func (s *fakeStream) Err() <-chan error                    { return s.errs }
func (s *fakeStream) Close() error                         { return nil }

type fakeBuilder struct{ stream *fakeStream }

func (b fakeBuilder) Dial(ctx context.Context, endpoint, chainTag string) (upstream.Stream, error) {
	return b.stream, nil
}

func newTestWorker(t *testing.T) (*ingest.Worker, *fakeStream) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := cache.NewWithClient(client, nil)

	fs := &fakeStream{updates: make(chan upstream.BlockUpdate, 4), errs: make(chan error, 1)}
	w := &ingest.Worker{
		Network: core.Network{Name: "testnet", ChainTag: "test"},
		Builder: fakeBuilder{stream: fs},
		Tokens:  fakeTokenClient{tokens: []core.Token{{Address: "0xaaaa", Symbol: "A"}}},
		Cache:   store,
		State:   core.NewSharedState(),
		Logger:  log.NewEntry(log.StandardLogger()),
	}
	return w, fs
}

func TestWorkerFirstSyncInstallsSnapshot(t *testing.T) {
	w, fs := newTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := core.Component{ID: "0xpool", Tokens: []core.Token{{Address: "0xaaaa"}, {Address: "0xbbbb"}}}
	fs.updates <- upstream.BlockUpdate{
		Block:      1,
		Components: map[core.ComponentID]core.Component{"0xpool": pool},
		Protosims:  map[core.ComponentID]core.Simulation{"0xpool": 1},
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}

	if !w.State.Initialised() {
		t.Fatalf("expected state to be initialised after the first tick")
	}
	components, ok := cache.Get[[]core.Component](context.Background(), w.Cache, cache.Keys.Components("testnet"))
	if !ok || len(components) != 1 || components[0].ID != "0xpool" {
		t.Fatalf("expected the installed component to be cached, got %+v, ok=%v", components, ok)
	}
	status, _ := cache.Get[core.StreamStatus](context.Background(), w.Cache, cache.Keys.Status("testnet"))
	if status != core.StatusRunning {
		t.Fatalf("expected status Running after first sync, got %v", status)
	}
}

func TestFetchTokensPersistsToCache(t *testing.T) {
	w, _ := newTestWorker(t)
	ctx := context.Background()

	if err := w.FetchTokens(ctx); err != nil {
		t.Fatalf("FetchTokens: %v", err)
	}
	tokens, ok := cache.Get[[]core.Token](ctx, w.Cache, cache.Keys.Tokens("testnet"))
	if !ok || len(tokens) != 1 || tokens[0].Address != "0xaaaa" {
		t.Fatalf("expected fetched tokens to be cached, got %+v, ok=%v", tokens, ok)
	}
}

func TestFetchTokensPropagatesFailure(t *testing.T) {
	w, _ := newTestWorker(t)
	w.Tokens = fakeTokenClient{err: errTokenFetch}

	if err := w.FetchTokens(context.Background()); err == nil {
		t.Fatalf("expected FetchTokens to propagate the client error")
	}
}

func TestWorkerSkipsNullAddressComponentsOnFirstSync(t *testing.T) {
	w, fs := newTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nullID := core.ComponentID(core.NullAddressSentinel)
	fs.updates <- upstream.BlockUpdate{
		Block:      1,
		Components: map[core.ComponentID]core.Component{nullID: {ID: nullID}},
		Protosims:  map[core.ComponentID]core.Simulation{nullID: 1},
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	components, _ := cache.Get[[]core.Component](context.Background(), w.Cache, cache.Keys.Components("testnet"))
	if len(components) != 0 {
		t.Fatalf("expected the null-address component to be filtered out, got %+v", components)
	}
}
