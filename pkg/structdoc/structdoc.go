package structdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/twinfer/structdoc/pkg/doc"
	"github.com/twinfer/structdoc/pkg/i18n"
	"github.com/twinfer/structdoc/pkg/layout"
)

// Renderer turns entries into documentation trees. It caches loaded schema
// files and is safe for concurrent use.
type Renderer struct {
	schemaCache map[string]cachedSchema
	cacheMutex  sync.RWMutex
	logger      *slog.Logger
	options     options
}

type cachedSchema struct {
	overlay  layout.Overlay
	loadedAt time.Time
}

// options holds configuration for the renderer
type options struct {
	logger        *slog.Logger
	enableCaching bool
	cacheTimeout  time.Duration
	importPaths   []string
	debugMode     bool
	prose         doc.ProseRenderer
	localizer     doc.Localizer
	lang          string
}

// Option is a function that configures renderer options
type Option func(*options)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCaching enables schema caching with the specified timeout. A zero
// timeout keeps entries until ClearCache.
func WithCaching(timeout time.Duration) Option {
	return func(o *options) {
		o.enableCaching = true
		o.cacheTimeout = timeout
	}
}

// WithoutCaching reads schema files on every render.
func WithoutCaching() Option {
	return func(o *options) {
		o.enableCaching = false
	}
}

// WithImportPaths adds directories searched for relative schema paths
func WithImportPaths(paths ...string) Option {
	return func(o *options) {
		o.importPaths = append(o.importPaths, paths...)
	}
}

// WithDebugMode enables debug logging
func WithDebugMode(enabled bool) Option {
	return func(o *options) {
		o.debugMode = enabled
	}
}

// WithProse sets the renderer for comment text.
func WithProse(prose doc.ProseRenderer) Option {
	return func(o *options) {
		o.prose = prose
	}
}

// WithLocalizer sets the label localizer.
func WithLocalizer(localizer doc.Localizer) Option {
	return func(o *options) {
		o.localizer = localizer
	}
}

// WithLanguage sets the language used when an entry names none.
func WithLanguage(lang string) Option {
	return func(o *options) {
		o.lang = lang
	}
}

// defaultOptions returns the default configuration
func defaultOptions() options {
	return options{
		logger:        slog.Default(),
		enableCaching: true,
		cacheTimeout:  5 * time.Minute,
		importPaths:   []string{},
		prose:         doc.PlainProse,
		localizer:     i18n.DefaultCatalog(),
		lang:          "en",
	}
}

// Global renderer instance for convenience functions
var globalRenderer *Renderer
var globalRendererOnce sync.Once

func getGlobalRenderer() *Renderer {
	globalRendererOnce.Do(func() {
		globalRenderer = NewRenderer()
	})
	return globalRenderer
}

// NewRenderer creates a new renderer with the given options
func NewRenderer(opts ...Option) *Renderer {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.debugMode {
		options.logger = options.logger.With("debug", true)
	}

	return &Renderer{
		schemaCache: make(map[string]cachedSchema),
		logger:      options.logger,
		options:     options,
	}
}

// RenderFile renders the entry stored in entryPath.
func RenderFile(entryPath string, opts ...Option) (*doc.Node, error) {
	return getGlobalRenderer().RenderFile(context.Background(), entryPath, opts...)
}

// RenderFileWithContext renders the entry stored in entryPath with a context.
func RenderFileWithContext(ctx context.Context, entryPath string, opts ...Option) (*doc.Node, error) {
	return getGlobalRenderer().RenderFile(ctx, entryPath, opts...)
}

// Render renders entry with the global renderer.
func Render(ctx context.Context, entry *Entry, opts ...Option) (*doc.Node, error) {
	return getGlobalRenderer().Render(ctx, entry, opts...)
}

// ValidateSchema checks that every definition in a schema file instantiates.
func ValidateSchema(schemaPath string) error {
	return getGlobalRenderer().ValidateSchema(schemaPath)
}

// Render resolves the entry's type definitions, instantiates its entry type
// and projects it into a documentation tree.
func (r *Renderer) Render(ctx context.Context, entry *Entry, opts ...Option) (*doc.Node, error) {
	options := r.options
	// Per-call options append to the copy, never to the renderer's slice.
	options.importPaths = slices.Clone(r.options.importPaths)
	for _, opt := range opts {
		opt(&options)
	}
	if entry.EntryType == "" {
		return nil, errors.New("entry has no entryType")
	}

	overlay, err := r.overlay(ctx, entry, options.importPaths)
	if err != nil {
		return nil, err
	}

	logger := options.logger
	registry := layout.NewRegistry(overlay)
	inst := layout.NewInstantiator(registry, layout.WithLogger(logger))
	root, err := inst.Instantiate(layout.Params{Type: entry.EntryType})
	if err != nil {
		return nil, fmt.Errorf("instantiating %q: %w", entry.EntryType, err)
	}

	lang := entry.Lang
	if lang == "" {
		lang = options.lang
	}
	projector := doc.NewProjector(inst,
		doc.WithProse(options.prose),
		doc.WithLocalizer(options.localizer),
		doc.WithLanguage(lang),
		doc.WithShowOffsets(entry.ShowOffsets),
		doc.WithLogger(logger),
	)
	node, err := projector.Project(root, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("projecting %q: %w", entry.EntryType, err)
	}
	logger.DebugContext(ctx, "Rendered entry", "entry_type", entry.EntryType, "types", registry.Len(), "size", root.TotalSize)
	return node, nil
}

// RenderJSON renders entry and encodes the tree as indented JSON.
func (r *Renderer) RenderJSON(ctx context.Context, entry *Entry, opts ...Option) ([]byte, error) {
	node, err := r.Render(ctx, entry, opts...)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(node, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling to JSON: %w", err)
	}
	return data, nil
}

// RenderFile reads an entry file and renders it. Relative schema paths in
// the entry are looked up next to the entry file first.
func (r *Renderer) RenderFile(ctx context.Context, entryPath string, opts ...Option) (*doc.Node, error) {
	entry, err := ReadEntry(entryPath)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, entry, opts...)
}

// ReadEntry reads and decodes an entry file, setting its BaseDir.
func ReadEntry(entryPath string) (*Entry, error) {
	data, err := os.ReadFile(entryPath)
	if err != nil {
		return nil, fmt.Errorf("reading entry file: %w", err)
	}
	entry, err := DecodeEntry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entryPath, err)
	}
	entry.BaseDir = filepath.Dir(entryPath)
	return entry, nil
}

func (r *Renderer) overlay(ctx context.Context, entry *Entry, importPaths []string) (layout.Overlay, error) {
	overlay := make(layout.Overlay)
	for _, src := range entry.TypeDefs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		defs := src.Inline
		if src.Path != "" {
			path, err := resolve(src.Path, entry.BaseDir, importPaths)
			if err != nil {
				return nil, err
			}
			if defs, err = r.LoadSchema(path); err != nil {
				return nil, fmt.Errorf("loading schema: %w", err)
			}
		}
		for name, def := range defs {
			overlay[name] = def
		}
	}
	return overlay, nil
}

// resolve finds a schema file: absolute paths as given, relative paths
// against baseDir, then each import path, then the working directory.
func resolve(schemaPath, baseDir string, importPaths []string) (string, error) {
	if filepath.IsAbs(schemaPath) {
		return schemaPath, nil
	}
	var candidates []string
	if baseDir != "" {
		candidates = append(candidates, filepath.Join(baseDir, schemaPath))
	}
	for _, dir := range importPaths {
		candidates = append(candidates, filepath.Join(dir, schemaPath))
	}
	candidates = append(candidates, schemaPath)
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("schema %q not found (searched %s)", schemaPath, strings.Join(candidates, ", "))
}

// LoadSchema reads a schema file with caching support. The format follows
// the extension: .yaml, .yml and .json hold definitions, .toml holds the
// same definitions in TOML and .ksy is imported from Kaitai Struct. The
// returned overlay is shared with the cache and must not be modified.
func (r *Renderer) LoadSchema(schemaPath string) (layout.Overlay, error) {
	if r.options.enableCaching {
		r.cacheMutex.RLock()
		cached, exists := r.schemaCache[schemaPath]
		r.cacheMutex.RUnlock()
		if exists && (r.options.cacheTimeout <= 0 || time.Since(cached.loadedAt) < r.options.cacheTimeout) {
			return cached.overlay, nil
		}
	}

	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var overlay layout.Overlay
	switch ext := strings.ToLower(filepath.Ext(schemaPath)); ext {
	case ".yaml", ".yml", ".json":
		overlay, err = layout.DecodeOverlay(data)
	case ".toml":
		overlay, err = layout.DecodeTOMLOverlay(data)
	case ".ksy":
		overlay, err = layout.ImportKaitai(data)
	default:
		return nil, fmt.Errorf("unsupported schema file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", schemaPath, err)
	}
	r.logger.Debug("Loaded schema", "path", schemaPath, "types", len(overlay))

	if r.options.enableCaching {
		r.cacheMutex.Lock()
		r.schemaCache[schemaPath] = cachedSchema{overlay: overlay, loadedAt: time.Now()}
		r.cacheMutex.Unlock()
	}

	return overlay, nil
}

// ClearCache clears the schema cache
func (r *Renderer) ClearCache() {
	r.cacheMutex.Lock()
	defer r.cacheMutex.Unlock()
	r.schemaCache = make(map[string]cachedSchema)
}

// ValidateSchema loads a schema file and instantiates every definition that
// stands on its own, reporting all failures together.
func (r *Renderer) ValidateSchema(schemaPath string) error {
	overlay, err := r.LoadSchema(schemaPath)
	if err != nil {
		return err
	}
	return layout.NewRegistry(overlay).Validate(r.logger)
}
