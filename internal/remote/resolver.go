// Package remote resolves links to pages on the remote wiki. The engine
// never calls the wiki; these URLs go into CLI output and logs so a human
// can jump to the page a sync touched.
package remote

import (
	"fmt"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/internal/runtimeconfig"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

const (
	routeGroup = "wiki"
	routeSpace = "space"
	routePage  = "page"
)

// LinkResolver builds wiki URLs from a go-urlkit route table.
type LinkResolver struct {
	log     interfaces.Logger
	manager *urlkit.RouteManager
}

// Option configures a LinkResolver.
type Option func(*LinkResolver)

// WithLogger attaches a logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *LinkResolver) {
		if logger != nil {
			r.log = logger
		}
	}
}

// New constructs a resolver from remote configuration. An explicit Routes
// table wins over the generated one; with no base URL the resolver stays
// disabled and every lookup returns the empty string.
func New(cfg runtimeconfig.RemoteConfig, opts ...Option) *LinkResolver {
	r := &LinkResolver{log: logging.NoOp()}
	for _, opt := range opts {
		opt(r)
	}

	switch {
	case cfg.Routes != nil:
		r.manager = urlkit.NewRouteManager(cfg.Routes)
	case strings.TrimSpace(cfg.BaseURL) != "":
		r.manager = urlkit.NewRouteManager(&urlkit.Config{
			Groups: []urlkit.GroupConfig{
				{
					Name:    routeGroup,
					BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
					Paths: map[string]string{
						routeSpace: cfg.SpacePath,
						routePage:  cfg.PagePath,
					},
				},
			},
		})
	}
	return r
}

// Enabled reports whether the resolver has a route table to build from.
func (r *LinkResolver) Enabled() bool {
	return r != nil && r.manager != nil
}

// PageURL returns the link to a page, or "" when the resolver is disabled.
func (r *LinkResolver) PageURL(space, pageKey string) (string, error) {
	if !r.Enabled() {
		return "", nil
	}
	builder, err := r.safeBuilder(routePage)
	if err != nil {
		return "", err
	}
	url, err := builder.
		WithParam("space", space).
		WithParam("page", pageKey).
		Build()
	if err != nil {
		return "", fmt.Errorf("remote: build page url: %w", err)
	}
	return url, nil
}

// SpaceURL returns the link to a space, or "" when the resolver is disabled.
func (r *LinkResolver) SpaceURL(space string) (string, error) {
	if !r.Enabled() {
		return "", nil
	}
	builder, err := r.safeBuilder(routeSpace)
	if err != nil {
		return "", err
	}
	url, err := builder.WithParam("space", space).Build()
	if err != nil {
		return "", fmt.Errorf("remote: build space url: %w", err)
	}
	return url, nil
}

// safeBuilder shields callers from urlkit's panic on unknown groups and
// routes.
func (r *LinkResolver) safeBuilder(route string) (builder *urlkit.Builder, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("remote: route %q not configured: %v", route, rec)
		}
	}()
	builder = r.manager.Group(routeGroup).Builder(route)
	return builder, err
}
