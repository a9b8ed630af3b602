package filters_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta"
	"github.com/dmitrymomot/delta/filters"
)

func newCORSApp(t *testing.T, params delta.Params) *delta.App {
	t.Helper()
	return newTestApp(t,
		delta.WithFilter("cors", filters.ClassCORS, params),
		delta.WithAction("main", "", "api", text("payload")),
	)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("default configuration allows all origins", func(t *testing.T) {
		t.Parallel()

		app := newCORSApp(t, nil)
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := serve(app, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "payload", rec.Body.String())
	})

	t.Run("no CORS headers when Origin header is missing", func(t *testing.T) {
		t.Parallel()

		app := newCORSApp(t, nil)
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/api", nil))
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("specific origins list", func(t *testing.T) {
		t.Parallel()

		app := newCORSApp(t, delta.Params{
			"allow_origins": []any{"http://allowed.com", "http://also-allowed.com"},
		})

		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("Origin", "http://allowed.com")
		rec := serve(app, req)
		require.Equal(t, "http://allowed.com", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("Origin", "http://evil.com")
		rec = serve(app, req)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "payload", rec.Body.String())
	})

	t.Run("preflight stops the chain with 204", func(t *testing.T) {
		t.Parallel()

		app := newCORSApp(t, delta.Params{"max_age": 600})
		req := httptest.NewRequest(http.MethodOptions, "/api", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := serve(app, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Body.String())
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		require.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("credentials echo the origin", func(t *testing.T) {
		t.Parallel()

		app := newCORSApp(t, delta.Params{"allow_credentials": true})
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := serve(app, req)

		require.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("origin func overrides list", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t,
			delta.WithFilterClass("cors", func(delta.Params) (delta.Filter, error) {
				return filters.CORS(
					filters.WithAllowOrigins("http://listed.com"),
					filters.WithAllowOriginFunc(func(origin string) bool { return origin == "http://dynamic.com" }),
					filters.WithExposeHeaders("X-Total"),
				), nil
			}),
			delta.WithFilter("cors", "cors", nil),
			delta.WithAction("main", "", "api", text("payload")),
		)

		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("Origin", "http://dynamic.com")
		rec := serve(app, req)
		require.Equal(t, "http://dynamic.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "X-Total", rec.Header().Get("Access-Control-Expose-Headers"))

		req = httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("Origin", "http://listed.com")
		rec = serve(app, req)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
