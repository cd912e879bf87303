package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routes assembles the full router: the top-level routes, then one nested
// mount per registered network carrying that network's status/tokens/
// components/pairs/orderbook/execute routes.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jsonContentType)
	r.Use(cors(s.cfg))
	r.Use(requestLogger(s.logger))
	r.Use(metrics)

	r.Get("/", s.handleRoot)
	r.Get("/version", s.handleVersion)
	r.Get("/metrics", metricsHandler().ServeHTTP)

	r.Route("/api", func(api chi.Router) {
		api.Get("/", s.handleRoot)
		api.Get("/version", s.handleVersion)
		api.Get("/networks", s.handleNetworks)

		for name, nc := range s.networks {
			nc := nc
			api.Route("/"+name, func(net chi.Router) {
				net.Get("/status", s.handleStatus(nc))
				net.Get("/tokens", s.handleTokens(nc))
				net.Get("/components", s.handleComponents(nc))
				net.Get("/pairs", s.handlePairs(nc))
				net.Post("/orderbook", s.handleOrderbook(nc))
				net.Post("/execute", s.handleExecute(nc))
			})
		}
	})

	return r
}

func routePattern(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return r.URL.Path
	}
	if p := rc.RoutePattern(); p != "" {
		return p
	}
	return r.URL.Path
}
