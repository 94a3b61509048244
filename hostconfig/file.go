package hostconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ZaguanLabs/webproxy"
)

type hostEntry struct {
	Hostname           string    `yaml:"hostname"`
	Origin             string    `yaml:"origin"`
	SourceLang         string    `yaml:"source_lang"`
	TargetLang         string    `yaml:"target_lang"`
	SkipWords          []string  `yaml:"skip_words"`
	SkipPaths          []string  `yaml:"skip_paths"`
	SkipSelectors      []string  `yaml:"skip_selectors"`
	TranslatePaths     bool      `yaml:"translate_paths"`
	CacheDisabledUntil time.Time `yaml:"cache_disabled_until"`
}

type fileSchema struct {
	Hosts []hostEntry `yaml:"hosts"`
}

// FileResolver serves host configurations from a YAML file. Watch reloads
// the file on change, so edits take effect without a restart.
type FileResolver struct {
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	hosts map[string]*webproxy.HostConfig
}

// NewFileResolver loads the file once and fails on a broken initial
// configuration. Later reloads are best-effort.
func NewFileResolver(path string, logger *zap.Logger) (*FileResolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &FileResolver{path: path, logger: logger}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileResolver) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("hostconfig: read %s: %w", r.path, err)
	}
	var schema fileSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("hostconfig: parse %s: %w", r.path, err)
	}

	hosts := make(map[string]*webproxy.HostConfig, len(schema.Hosts))
	for _, entry := range schema.Hosts {
		if entry.Hostname == "" || entry.Origin == "" {
			return fmt.Errorf("hostconfig: entry in %s missing hostname or origin", r.path)
		}
		hosts[strings.ToLower(entry.Hostname)] = &webproxy.HostConfig{
			Hostname:           entry.Hostname,
			OriginBaseURL:      entry.Origin,
			SourceLang:         entry.SourceLang,
			TargetLang:         entry.TargetLang,
			SkipWords:          entry.SkipWords,
			SkipPaths:          entry.SkipPaths,
			SkipSelectors:      entry.SkipSelectors,
			TranslatePaths:     entry.TranslatePaths,
			CacheDisabledUntil: entry.CacheDisabledUntil,
		}
	}

	r.mu.Lock()
	r.hosts = hosts
	r.mu.Unlock()
	return nil
}

func (r *FileResolver) Resolve(_ context.Context, hostname string) (*webproxy.HostConfig, error) {
	r.mu.RLock()
	cfg, ok := r.hosts[strings.ToLower(hostname)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrHostNotFound
	}
	// Copy so callers can't mutate the shared map entry.
	out := *cfg
	return &out, nil
}

// Watch reloads the configuration whenever the file changes, until ctx is
// done. A reload failure keeps the previous configuration and logs the
// error.
func (r *FileResolver) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("hostconfig: create watcher: %w", err)
	}
	// Watch the directory: editors replace the file rather than write it
	// in place, which would drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("hostconfig: watch %s: %w", r.path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(r.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := r.load(); err != nil {
					r.logger.Error("host configuration reload failed", zap.Error(err))
					continue
				}
				r.logger.Info("host configuration reloaded", zap.String("path", r.path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("host configuration watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
