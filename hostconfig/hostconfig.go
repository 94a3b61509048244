// Package hostconfig resolves the per-hostname proxy configuration that
// drives translation: origin URL, language pair, skip lists, and the
// path-translation flag. Configurations come from Postgres or a watched
// YAML file, usually behind a short-lived in-process cache.
package hostconfig

import (
	"context"
	"errors"

	"github.com/ZaguanLabs/webproxy"
)

// ErrHostNotFound is returned when no configuration exists for a hostname.
// The proxy maps it to a 404.
var ErrHostNotFound = errors.New("hostconfig: host not found")

// Resolver maps a request hostname to its host configuration.
type Resolver interface {
	Resolve(ctx context.Context, hostname string) (*webproxy.HostConfig, error)
}
