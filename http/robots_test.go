package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/realty"
	realtyhttp "github.com/fwojciec/realty/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestRobotsService_Allowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		robots string
		path   string
		want   bool
	}{
		{
			name:   "allows when no rule matches",
			robots: "User-agent: *\nDisallow: /admin/\n",
			path:   "/globe",
			want:   true,
		},
		{
			name:   "disallows matching prefix",
			robots: "User-agent: *\nDisallow: /globe\n",
			path:   "/globe?page=2",
			want:   false,
		},
		{
			name:   "empty disallow allows everything",
			robots: "User-agent: *\nDisallow:\n",
			path:   "/globe",
			want:   true,
		},
		{
			name:   "longest match wins",
			robots: "User-agent: *\nDisallow: /\nAllow: /globe\n",
			path:   "/globe",
			want:   true,
		},
		{
			name:   "longer disallow beats shorter allow",
			robots: "User-agent: *\nAllow: /globe\nDisallow: /globe/private\n",
			path:   "/globe/private/1",
			want:   false,
		},
		{
			name:   "wildcard pattern",
			robots: "User-agent: *\nDisallow: /*?sort=\n",
			path:   "/globe?sort=price",
			want:   false,
		},
		{
			name:   "end anchor",
			robots: "User-agent: *\nDisallow: /*.pdf$\n",
			path:   "/globe/report.pdf?x=1",
			want:   true,
		},
		{
			name:   "specific group overrides wildcard",
			robots: "User-agent: *\nDisallow: /\n\nUser-agent: BenignCrawlerProject\nAllow: /\n",
			path:   "/globe",
			want:   true,
		},
		{
			name:   "specific group applies to the crawler",
			robots: "User-agent: *\nAllow: /\n\nUser-agent: benigncrawlerproject\nDisallow: /globe\n",
			path:   "/globe",
			want:   false,
		},
		{
			name:   "other agents' rules are ignored",
			robots: "User-agent: OtherBot\nDisallow: /\n",
			path:   "/globe",
			want:   true,
		},
		{
			name:   "agents sharing a group",
			robots: "User-agent: OtherBot\nUser-agent: BenignCrawlerProject\nDisallow: /globe\n",
			path:   "/globe",
			want:   false,
		},
		{
			name:   "comments are ignored",
			robots: "# keep out\nUser-agent: * # everyone\nDisallow: /globe # listings\n",
			path:   "/globe",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := robotsServer(t, http.StatusOK, tt.robots)
			svc := realtyhttp.NewRobotsService(srv.Client(), "")

			got, err := svc.Allowed(context.Background(), srv.URL+tt.path)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRobotsService_MissingRobotsAllowsAll(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		srv, _ := robotsServer(t, status, "User-agent: *\nDisallow: /\n")
		svc := realtyhttp.NewRobotsService(srv.Client(), "")

		got, err := svc.Allowed(context.Background(), srv.URL+"/globe")

		require.NoError(t, err)
		assert.True(t, got, "status %d", status)
	}
}

func TestRobotsService_Sitemaps(t *testing.T) {
	t.Parallel()

	srv, _ := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /private\n\nSitemap: https://example.com/sitemap.xml\nSitemap: https://example.com/news.xml\n")
	svc := realtyhttp.NewRobotsService(srv.Client(), "")

	got, err := svc.Sitemaps(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/sitemap.xml", "https://example.com/news.xml"}, got)
}

func TestRobotsService_CachesPerHost(t *testing.T) {
	t.Parallel()

	srv, hits := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /private\n")
	svc := realtyhttp.NewRobotsService(srv.Client(), "")

	for _, path := range []string{"/globe", "/mesa", "/private"} {
		_, err := svc.Allowed(context.Background(), srv.URL+path)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), hits.Load())
}

func TestRobotsService_SendsUserAgent(t *testing.T) {
	t.Parallel()

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.UserAgent()
		http.NotFound(w, r)
	}))
	defer srv.Close()

	svc := realtyhttp.NewRobotsService(srv.Client(), "")

	_, err := svc.Allowed(context.Background(), srv.URL+"/globe")

	require.NoError(t, err)
	assert.Equal(t, realtyhttp.DefaultUserAgent, got)
}

func TestRobotsService_InvalidURL(t *testing.T) {
	t.Parallel()

	svc := realtyhttp.NewRobotsService(nil, "")

	_, err := svc.Allowed(context.Background(), "not a url")

	assert.Equal(t, realty.EINVALID, realty.ErrorCode(err))
}

func TestRobotsService_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv, _ := robotsServer(t, http.StatusOK, "User-agent: *\nAllow: /\n")
	svc := realtyhttp.NewRobotsService(srv.Client(), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Allowed(ctx, srv.URL+"/globe")

	require.ErrorIs(t, err, context.Canceled)
}
