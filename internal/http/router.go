package http

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sopatech/backstage/internal/albums"
	"github.com/sopatech/backstage/internal/artists"
	"github.com/sopatech/backstage/internal/dashboard"
	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/managers"
	"github.com/sopatech/backstage/internal/metrics"
	"github.com/sopatech/backstage/internal/musics"
	"github.com/sopatech/backstage/internal/users"
)

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Handlers bundles the resource handlers the router mounts.
type Handlers struct {
	Users     *users.Handler
	Artists   *artists.Handler
	Managers  *managers.Handler
	Albums    *albums.Handler
	Musics    *musics.Handler
	Dashboard *dashboard.Handler
}

func NewRouter(logger *slog.Logger, codec *identity.Codec, resolver *identity.Resolver, h Handlers) http.Handler {
	mux := http.NewServeMux()

	wrap := func(hh http.Handler) http.Handler {
		return chain(hh,
			Recoverer(logger),
			RealIP,
			RequestLogger(logger),
		)
	}

	auth := identity.Authenticate(codec, resolver)
	protected := func(fn http.HandlerFunc) http.Handler {
		return wrap(auth(fn))
	}

	// Public
	mux.Handle("POST /register", wrap(http.HandlerFunc(h.Users.Register)))
	mux.Handle("POST /login", wrap(http.HandlerFunc(h.Users.Login)))
	mux.Handle("POST /token/refresh", wrap(http.HandlerFunc(h.Users.Refresh)))
	mux.Handle("POST /password/forgot", wrap(http.HandlerFunc(h.Users.ForgotPassword)))
	mux.Handle("POST /password/reset", wrap(http.HandlerFunc(h.Users.ResetPassword)))

	// Managers (user profiles)
	mux.Handle("POST /managers", protected(h.Managers.Create))
	mux.Handle("GET /managers", protected(h.Managers.List))
	mux.Handle("GET /managers/{id}", protected(h.Managers.Get))
	mux.Handle("PUT /managers/{id}", protected(h.Managers.Update))
	mux.Handle("DELETE /managers/{id}", protected(h.Managers.Delete))

	// Artists
	mux.Handle("POST /artists", protected(h.Artists.Create))
	mux.Handle("GET /artists", protected(h.Artists.List))
	mux.Handle("GET /artists/{id}", protected(h.Artists.Get))
	mux.Handle("PUT /artists/{id}", protected(h.Artists.Update))
	mux.Handle("DELETE /artists/{id}", protected(h.Artists.Delete))

	// Albums
	mux.Handle("POST /albums", protected(h.Albums.Create))
	mux.Handle("GET /albums", protected(h.Albums.List))
	mux.Handle("GET /albums/{id}", protected(h.Albums.Get))
	mux.Handle("PUT /albums/{id}", protected(h.Albums.Update))
	mux.Handle("DELETE /albums/{id}", protected(h.Albums.Delete))
	mux.Handle("POST /albums/{id}/image", protected(h.Albums.UploadImage))

	// Musics
	mux.Handle("POST /musics", protected(h.Musics.Create))
	mux.Handle("GET /musics", protected(h.Musics.List))
	mux.Handle("GET /musics/{id}", protected(h.Musics.Get))
	mux.Handle("PUT /musics/{id}", protected(h.Musics.Update))
	mux.Handle("DELETE /musics/{id}", protected(h.Musics.Delete))

	// Dashboard
	mux.Handle("GET /dashboard", protected(h.Dashboard.Overview))
	mux.Handle("GET /dashboard/top-artists", protected(h.Dashboard.TopArtists))
	mux.Handle("GET /dashboard/genres", protected(h.Dashboard.GenreBreakdown))

	// Operational
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return otelhttp.NewHandler(mux, "http.server")
}
