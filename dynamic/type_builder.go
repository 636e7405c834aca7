package dynamic

import (
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/xshape/cache"
	"github.com/Konsultn-Engineering/xshape/guard"
	"github.com/Konsultn-Engineering/xshape/schema"
	"github.com/Konsultn-Engineering/xshape/signature"
)

// TypeBuilder synthesizes struct types from field signatures and caches one
// descriptor per distinct signature for its whole lifetime.
type TypeBuilder struct {
	settings
	types *cache.Memo[string, *TypeDescriptor]
}

// NewTypeBuilder returns an empty builder.
func NewTypeBuilder(opts ...Option) *TypeBuilder {
	s := newSettings(opts)
	return &TypeBuilder{
		settings: s,
		types:    cache.NewMemo[string, *TypeDescriptor](s.capacity),
	}
}

// Get encodes fields and returns the cached descriptor for it.
func (b *TypeBuilder) Get(fields map[string]reflect.Type) (*TypeDescriptor, error) {
	sig, err := signature.Fields(fields)
	if err != nil {
		return nil, err
	}
	return b.GetOrCreate(sig)
}

// GetOrCreate returns the descriptor for sig, synthesizing it on first use.
// Equal signatures always yield the same *TypeDescriptor.
func (b *TypeBuilder) GetOrCreate(sig signature.FieldSignature) (*TypeDescriptor, error) {
	if sig.IsZero() {
		return nil, guard.Argument("fields", "value must not be nil or empty")
	}

	desc, created, err := b.types.GetOrCreate(sig.Identity(), func(string) (*TypeDescriptor, error) {
		return b.synthesize(sig)
	})
	if err != nil {
		b.logger.Warn("structural type build failed",
			zap.String("key", sig.Key()),
			zap.Error(err))
		return nil, err
	}
	if created {
		b.logger.Debug("structural type created",
			zap.String("key", desc.Key),
			zap.Uint64("fingerprint", sig.Fingerprint()),
			zap.String("id", desc.ID))
	}
	return desc, nil
}

// Lookup returns the cached descriptor for sig without building it.
func (b *TypeBuilder) Lookup(sig signature.FieldSignature) (*TypeDescriptor, bool) {
	return b.types.Get(sig.Identity())
}

// Len returns the number of cached descriptors.
func (b *TypeBuilder) Len() int { return b.types.Len() }

// Stats returns the cache hit and miss counters.
func (b *TypeBuilder) Stats() cache.Stats { return b.types.Stats() }

// Descriptors returns every cached descriptor ordered by key.
func (b *TypeBuilder) Descriptors() []*TypeDescriptor {
	out := make([]*TypeDescriptor, 0, b.types.Len())
	b.types.Range(func(_ string, d *TypeDescriptor) bool {
		out = append(out, d)
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (b *TypeBuilder) synthesize(sig signature.FieldSignature) (desc *TypeDescriptor, err error) {
	fields := sig.Fields()
	structFields := make([]reflect.StructField, len(fields))
	for i, f := range fields {
		structFields[i] = reflect.StructField{
			Name: f.Name,
			Type: f.Type,
			Tag:  schema.FieldTag(b.tagKey, b.naming, f.Name),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			desc, err = nil, guard.Build("synthesize %s: %v", sig.Key(), r)
		}
	}()
	t := reflect.StructOf(structFields)

	return newDescriptor(b.newID(), sig, t), nil
}
