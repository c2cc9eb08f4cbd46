package render

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"sync"
)

// AssetState is the load state of one cached asset.
type AssetState int

const (
	AssetLoading AssetState = iota
	AssetReady
	AssetFailed
)

// Asset is one cached image. Failed assets render as a visible error
// affordance rather than vanishing silently.
type Asset struct {
	URL   string
	State AssetState
	Image image.Image
}

// LoadFunc fetches and decodes one URL. Implementations are expected to
// honor ctx cancellation.
type LoadFunc func(ctx context.Context, url string) (image.Image, error)

// AssetCache loads images asynchronously, once per normalized URL. A
// failed load gets a single retry through the proxy prefix before being
// marked failed. Every async completion checks the generation token it
// was started under, so loads belonging to a scene the renderer has
// already left are discarded instead of corrupting current state.
type AssetCache struct {
	mu sync.Mutex

	loader      LoadFunc
	proxyPrefix string
	logger      *slog.Logger

	generation uint64
	entries    map[string]*Asset
	onLoad     func()
}

// NewAssetCache creates a cache. proxyPrefix may be empty to disable the
// retry path.
func NewAssetCache(loader LoadFunc, proxyPrefix string, logger *slog.Logger) *AssetCache {
	return &AssetCache{
		loader:      loader,
		proxyPrefix: proxyPrefix,
		logger:      logger,
		entries:     make(map[string]*Asset),
	}
}

// OnLoad registers the redraw trigger invoked when a load resolves.
func (c *AssetCache) OnLoad(fn func()) {
	c.mu.Lock()
	c.onLoad = fn
	c.mu.Unlock()
}

// Get returns a snapshot of the cached asset for url, starting an async
// load on first sight. Callers draw a placeholder while State is
// AssetLoading and call again after the OnLoad trigger fires.
func (c *AssetCache) Get(url string) Asset {
	key := normalizeURL(url)
	if key == "" {
		return Asset{URL: url, State: AssetFailed}
	}

	c.mu.Lock()
	if a, ok := c.entries[key]; ok {
		snap := *a
		c.mu.Unlock()
		return snap
	}
	a := &Asset{URL: url, State: AssetLoading}
	c.entries[key] = a
	gen := c.generation
	snap := *a
	c.mu.Unlock()

	go c.load(key, url, gen)
	return snap
}

// Invalidate discards all entries and bumps the generation so in-flight
// loads for the previous scene cannot write into the new one.
func (c *AssetCache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.entries = make(map[string]*Asset)
	c.mu.Unlock()
}

// Generation returns the current generation token (used in tests and by
// backend init paths that stage work asynchronously).
func (c *AssetCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *AssetCache) load(key, url string, gen uint64) {
	ctx := context.Background()

	img, err := c.loader(ctx, url)
	if err != nil && c.proxyPrefix != "" {
		c.logger.Debug("Asset load failed, retrying via proxy", "url", url, "error", err)
		img, err = c.loader(ctx, c.proxyPrefix+url)
	}

	c.mu.Lock()
	if gen != c.generation {
		// A stale completion from a scene we already left.
		c.mu.Unlock()
		return
	}
	a, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.logger.Warn("Asset load failed", "url", url, "error", err)
		a.State = AssetFailed
	} else {
		a.State = AssetReady
		a.Image = img
	}
	fn := c.onLoad
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// normalizeURL canonicalizes a URL for cache keying: whitespace trimmed,
// fragment dropped.
func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if i := strings.IndexByte(url, '#'); i >= 0 {
		url = url[:i]
	}
	return url
}
