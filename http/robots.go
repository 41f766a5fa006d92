package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/fwojciec/realty"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// Ensure RobotsService implements realty.RobotsPolicy.
var _ realty.RobotsPolicy = (*RobotsService)(nil)

// RobotsService answers robots exclusion questions for a user agent.
// Each host's robots.txt is fetched once and cached for the life of the
// service.
//
// A robots.txt that is missing, returns a non-2xx status or cannot be
// fetched allows everything. Context errors are returned.
type RobotsService struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	cache map[string]*robotsFile
	group singleflight.Group
}

// NewRobotsService creates a RobotsService. If client is nil,
// http.DefaultClient is used. An empty userAgent uses DefaultUserAgent.
func NewRobotsService(client *http.Client, userAgent string) *RobotsService {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RobotsService{
		client:    client,
		userAgent: userAgent,
		cache:     make(map[string]*robotsFile),
	}
}

// Allowed reports whether the service's user agent may fetch rawURL.
func (s *RobotsService) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false, realty.Errorf(realty.EINVALID, "invalid URL: %s", rawURL)
	}
	if u.Path == "/robots.txt" {
		return true, nil
	}

	file, err := s.load(ctx, u)
	if err != nil {
		return false, err
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return file.allowed(target), nil
}

// Sitemaps returns the Sitemap directives of the site hosting rawURL.
func (s *RobotsService) Sitemaps(ctx context.Context, rawURL string) ([]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, realty.Errorf(realty.EINVALID, "invalid URL: %s", rawURL)
	}
	file, err := s.load(ctx, u)
	if err != nil {
		return nil, err
	}
	return file.sitemaps, nil
}

// load returns the cached robots.txt for u's host, fetching it on first use.
func (s *RobotsService) load(ctx context.Context, u *url.URL) (*robotsFile, error) {
	key := u.Scheme + "://" + u.Host

	s.mu.Lock()
	file, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return file, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		file, err := s.fetch(ctx, key+"/robots.txt")
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[key] = file
		s.mu.Unlock()
		return file, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*robotsFile), nil
}

func (s *RobotsService) fetch(ctx context.Context, robotsURL string) (*robotsFile, error) {
	resp, err := get(ctx, s.client, s.userAgent, robotsURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &robotsFile{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &robotsFile{}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &robotsFile{}, nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return &robotsFile{}, nil
	}
	return &robotsFile{
		group:    data.FindGroup(s.userAgent),
		sitemaps: data.Sitemaps,
	}, nil
}

// robotsFile is the part of a host's robots.txt that applies to the
// service's user agent.
type robotsFile struct {
	group    *robotstxt.Group // nil allows everything
	sitemaps []string
}

func (f *robotsFile) allowed(path string) bool {
	if f.group == nil {
		return true
	}
	return f.group.Test(path)
}
