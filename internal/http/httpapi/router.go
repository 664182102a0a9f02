package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bannergen/internal/http/handlers"
	"bannergen/internal/infra"
	"bannergen/internal/middleware"
)

// Options carries the cross-cutting pieces the router installs.
type Options struct {
	Logger      infra.Logger
	CORSOrigins []string
	Limiter     *middleware.Limiter
	Country     middleware.CountryLookup
	// TrustedProxies gates X-Forwarded-For; the zero value keys clients on
	// the socket peer.
	TrustedProxies middleware.TrustedProxies
	// StaticDir, when set, is served under /static for the filesystem blob store.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if !opts.TrustedProxies.Empty() {
		r.Use(middleware.RealIP(opts.TrustedProxies))
	}
	r.Use(
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.Country(opts.Country),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/banners", app.Banners)

	generate := func(r chi.Router) {
		r.Get("/", app.GenerateInfo)
		r.Group(func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(middleware.RateLimit(opts.Limiter, opts.Logger))
			}
			r.Post("/", app.Generate)
		})
	}
	r.Route("/generate", generate)
	r.Route("/v1/generate", generate)

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
