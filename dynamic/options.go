package dynamic

import (
	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/xshape/schema"
)

type settings struct {
	logger   *zap.Logger
	tagKey   string
	naming   schema.NamingStrategy
	ids      IDGenerator
	capacity int
}

// Option configures a TypeBuilder or a Creator.
type Option func(*settings)

// WithLogger sets the logger for cache misses and build failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFieldTag sets the struct tag key written on synthesized fields. An
// empty key writes no tags.
func WithFieldTag(key string) Option {
	return func(s *settings) { s.tagKey = key }
}

// WithNamingStrategy sets how field names map to tag values.
func WithNamingStrategy(strategy schema.NamingStrategy) Option {
	return func(s *settings) { s.naming = strategy }
}

// WithIDGenerator sets the generator for descriptor and invoker IDs.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *settings) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// WithCapacity pre-sizes the cache map.
func WithCapacity(n int) Option {
	return func(s *settings) { s.capacity = n }
}

func newSettings(opts []Option) settings {
	s := settings{
		logger:   zap.NewNop(),
		tagKey:   "json",
		naming:   schema.DefaultNamingStrategy(),
		capacity: 64,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.ids == nil {
		s.ids = NewULIDGenerator()
	}
	return s
}

func (s *settings) newID() string {
	id, err := s.ids.Generate()
	if err != nil {
		// IDs only label log lines
		s.logger.Warn("id generation failed", zap.String("generator", s.ids.Type()), zap.Error(err))
		return ""
	}
	return id
}
