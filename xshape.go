// Package xshape synthesizes structural types at runtime, resolves and
// caches constructor overloads by argument types, and projects struct
// values onto narrow structural views.
package xshape

import (
	"go/token"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/xshape/cache"
	"github.com/Konsultn-Engineering/xshape/config"
	"github.com/Konsultn-Engineering/xshape/dynamic"
	"github.com/Konsultn-Engineering/xshape/guard"
	"github.com/Konsultn-Engineering/xshape/logging"
	"github.com/Konsultn-Engineering/xshape/reflection"
	"github.com/Konsultn-Engineering/xshape/signature"
	"github.com/Konsultn-Engineering/xshape/utils"
)

// Runtime owns the structural type, constructor and projection caches.
// All methods are safe for concurrent use.
type Runtime struct {
	logger      *zap.Logger
	types       *dynamic.TypeBuilder
	creator     *dynamic.Creator
	projections *cache.Bounded[*dynamic.Projector]
	sourceIDs   *cache.Memo[reflect.Type, string]
	nextSource  atomic.Uint64
}

type options struct {
	logger         *zap.Logger
	projectionSize int
	dynamic        []dynamic.Option
}

// Option configures a Runtime.
type Option func(*options)

// WithLogger sets the logger shared by every cache.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProjectionCacheSize bounds the number of cached projectors.
func WithProjectionCacheSize(size int) Option {
	return func(o *options) { o.projectionSize = size }
}

// WithDynamicOptions passes options to the type builder and the creator.
func WithDynamicOptions(opts ...dynamic.Option) Option {
	return func(o *options) { o.dynamic = append(o.dynamic, opts...) }
}

// New returns a Runtime with empty caches.
func New(opts ...Option) (*Runtime, error) {
	o := options{
		logger:         zap.NewNop(),
		projectionSize: config.DefaultConfig().Cache.ProjectionSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.projectionSize <= 0 {
		return nil, guard.Argument("projectionSize", "must be positive, got %d", o.projectionSize)
	}

	dynOpts := append([]dynamic.Option{dynamic.WithLogger(o.logger)}, o.dynamic...)
	rt := &Runtime{
		logger:    o.logger,
		types:     dynamic.NewTypeBuilder(dynOpts...),
		creator:   dynamic.NewCreator(dynOpts...),
		sourceIDs: cache.NewMemo[reflect.Type, string](16),
	}

	projections, err := cache.NewBounded(o.projectionSize, func(key string, p *dynamic.Projector) {
		rt.logger.Debug("projection evicted", zap.String("key", key), zap.String("type", p.Descriptor.Key))
	})
	if err != nil {
		return nil, err
	}
	rt.projections = projections
	return rt, nil
}

// FromConfig validates cfg and builds a Runtime from it, including its logger.
func FromConfig(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	naming, err := cfg.NamingStrategy()
	if err != nil {
		return nil, err
	}
	ids, err := dynamic.NewIDGenerator(cfg.IDs.Generator)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithLogger(logger),
		WithProjectionCacheSize(cfg.Cache.ProjectionSize),
		WithDynamicOptions(
			dynamic.WithFieldTag(cfg.Naming.Tag),
			dynamic.WithNamingStrategy(naming),
			dynamic.WithIDGenerator(ids),
		),
	}
	return New(append(base, opts...)...)
}

// GetStructuralType returns the structural type for a name -> type mapping.
// Equal mappings return the same descriptor.
func (rt *Runtime) GetStructuralType(fields map[string]reflect.Type) (*dynamic.TypeDescriptor, error) {
	return rt.types.Get(fields)
}

// CreateInstance constructs t from args using the registered overload that
// matches the runtime argument types.
func (rt *Runtime) CreateInstance(t reflect.Type, args ...any) (any, error) {
	return rt.creator.CreateInstance(t, args...)
}

// Register adds a constructor function for its result type.
func (rt *Runtime) Register(fn any) error {
	return rt.creator.Register(fn)
}

// Add registers typed constructor overloads.
func (rt *Runtime) Add(overloads ...*dynamic.Overload) error {
	return rt.creator.Add(overloads...)
}

// BuildProjection returns a cached projector of the named members of
// source. The order of names is part of the cache key, not of the result
// type.
func (rt *Runtime) BuildProjection(source reflect.Type, names ...string) (*dynamic.Projector, error) {
	if source == nil {
		return nil, guard.Argument("source", "value must not be nil")
	}
	source = reflection.NonNullable(source)
	if len(names) == 0 {
		return nil, guard.Argument("fields", "value must not be nil or empty")
	}

	for _, name := range names {
		if !token.IsIdentifier(name) {
			return nil, guard.MemberNotFound(source, name)
		}
	}

	sourceID, _, err := rt.sourceIDs.GetOrCreate(source, func(reflect.Type) (string, error) {
		return strconv.FormatUint(rt.nextSource.Add(1), 10), nil
	})
	if err != nil {
		return nil, err
	}

	key := sourceID + ":" + strings.Join(names, "\x00")
	p, shared, err := rt.projections.GetOrBuild(key, func() (*dynamic.Projector, error) {
		fields := make([]signature.Field, len(names))
		for i, name := range names {
			fields[i] = signature.Field{Name: name}
		}
		return dynamic.BuildProjection(rt.types, source, fields)
	})
	if err != nil {
		return nil, err
	}
	if !shared {
		rt.logger.Debug("projection cached",
			zap.String("source", reflection.FullName(source)),
			zap.Uint64("fingerprint", utils.Fingerprint(names...)))
	}
	return p, nil
}

// Projection returns a cached typed projection of the named members of T.
func Projection[T any](rt *Runtime, names ...string) (*dynamic.Projection[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, guard.Argument("source", "projection source %s is not a struct", reflection.FullName(t))
	}
	p, err := rt.BuildProjection(t, names...)
	if err != nil {
		return nil, err
	}
	return &dynamic.Projection[T]{Projector: p}, nil
}

// Types returns the structural type cache.
func (rt *Runtime) Types() *dynamic.TypeBuilder { return rt.types }

// Creator returns the constructor cache.
func (rt *Runtime) Creator() *dynamic.Creator { return rt.creator }

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *zap.Logger { return rt.logger }

// Stats summarizes cache usage.
type Stats struct {
	Types        cache.Stats
	Invokers     cache.Stats
	TypeCount    int
	InvokerCount int
	Projections  int
}

// Stats returns a snapshot of cache usage.
func (rt *Runtime) Stats() Stats {
	return Stats{
		Types:        rt.types.Stats(),
		Invokers:     rt.creator.Stats(),
		TypeCount:    rt.types.Len(),
		InvokerCount: rt.creator.Len(),
		Projections:  rt.projections.Len(),
	}
}

// Close flushes the logger.
func (rt *Runtime) Close() error {
	_ = rt.logger.Sync()
	return nil
}
