package dynamic

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/xshape/cache"
	"github.com/Konsultn-Engineering/xshape/guard"
	"github.com/Konsultn-Engineering/xshape/reflection"
	"github.com/Konsultn-Engineering/xshape/signature"
)

// Creator resolves constructor overloads by runtime argument types and
// caches one Invoker per (declaring type, argument types).
type Creator struct {
	settings

	mu        sync.RWMutex
	overloads map[reflect.Type][]*Overload
	sealed    map[reflect.Type]bool // declaring types with a cached invoker

	invokers *cache.Memo[signature.ArgumentKey, *Invoker]
}

// NewCreator returns a Creator with no registered overloads.
func NewCreator(opts ...Option) *Creator {
	s := newSettings(opts)
	return &Creator{
		settings:  s,
		overloads: make(map[reflect.Type][]*Overload),
		sealed:    make(map[reflect.Type]bool),
		invokers:  cache.NewMemo[signature.ArgumentKey, *Invoker](s.capacity),
	}
}

// Register adds fn, a func(args...) T or func(args...) (T, error), as a
// constructor overload of T.
func (c *Creator) Register(fn any) error {
	return c.Add(Func(fn))
}

// Add registers overloads built by Func or the ConstructorN helpers.
// Overloads of a type can no longer change once an invoker for that type
// has been cached.
func (c *Creator) Add(overloads ...*Overload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, o := range overloads {
		if o == nil {
			return guard.Argument("overload", "value must not be nil")
		}
		if o.err != nil {
			return o.err
		}
		if c.sealed[o.Declaring] {
			return guard.Argument("overload", "constructors of %s are already in use", reflection.FullName(o.Declaring))
		}
		for _, existing := range c.overloads[o.Declaring] {
			if sameParams(existing.Params, o.Params) {
				return guard.Argument("overload", "duplicate constructor %s", o)
			}
		}
		c.overloads[o.Declaring] = append(c.overloads[o.Declaring], o)
	}
	return nil
}

// Overloads returns the registered overloads of t.
func (c *Creator) Overloads(t reflect.Type) []*Overload {
	t = reflection.NonNullable(t)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Overload(nil), c.overloads[t]...)
}

// GetOrCreate returns the cached invoker for constructing t from arguments
// shaped like args. Only the runtime types of args matter.
func (c *Creator) GetOrCreate(t reflect.Type, args ...any) (*Invoker, error) {
	key, err := signature.Arguments(t, args)
	if err != nil {
		return nil, err
	}
	return c.Resolve(key)
}

// Resolve returns the cached invoker for key, resolving it on first use.
func (c *Creator) Resolve(key signature.ArgumentKey) (*Invoker, error) {
	if key.Declaring == nil {
		return nil, guard.Argument("type", "value must not be nil")
	}

	inv, created, err := c.invokers.GetOrCreate(key, c.resolve)
	if err != nil {
		c.logger.Debug("constructor resolution failed",
			zap.Stringer("key", key),
			zap.Error(err))
		return nil, err
	}
	if created {
		c.logger.Debug("constructor invoker created",
			zap.Stringer("key", key),
			zap.Uint64("fingerprint", key.Fingerprint()),
			zap.String("id", inv.ID))
	}
	return inv, nil
}

// CreateInstance constructs t from args through the cached invoker.
func (c *Creator) CreateInstance(t reflect.Type, args ...any) (any, error) {
	inv, err := c.GetOrCreate(t, args...)
	if err != nil {
		return nil, err
	}
	return inv.Invoke(args...)
}

// CreateAs is CreateInstance for a statically known result type, which is
// the declaring type or a pointer to it depending on the overload.
func CreateAs[T any](c *Creator, args ...any) (T, error) {
	var zero T
	v, err := c.CreateInstance(typeOf[T](), args...)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, guard.InvalidCast(reflect.TypeOf(v), typeOf[T]())
	}
	return typed, nil
}

// Len returns the number of cached invokers.
func (c *Creator) Len() int { return c.invokers.Len() }

// Stats returns the invoker cache hit and miss counters.
func (c *Creator) Stats() cache.Stats { return c.invokers.Stats() }

func (c *Creator) resolve(key signature.ArgumentKey) (*Invoker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	candidates := c.overloads[key.Declaring]
	if len(candidates) == 0 {
		if key.Count != 0 || key.Declaring.Kind() == reflect.Interface {
			return nil, fmt.Errorf("%w: %s", guard.ErrNoMatchingConstructor, key)
		}
		c.sealed[key.Declaring] = true
		return newImplicitInvoker(c.newID(), key), nil
	}

	best, err := selectOverload(key, candidates)
	if err != nil {
		return nil, err
	}
	c.sealed[key.Declaring] = true
	return newInvoker(c.newID(), key, best), nil
}

// selectOverload picks the overload whose parameters accept the key's
// argument types with the most identical matches. A tie is ambiguous.
func selectOverload(key signature.ArgumentKey, candidates []*Overload) (*Overload, error) {
	var (
		best      *Overload
		bestScore = -1
		tied      bool
	)
	for _, o := range candidates {
		score, ok := matchScore(key, o.Params)
		if !ok {
			continue
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = o, score, false
		case score == bestScore:
			tied = true
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s", guard.ErrNoMatchingConstructor, key)
	}
	if tied {
		return nil, fmt.Errorf("%w: %s is ambiguous", guard.ErrNoMatchingConstructor, key)
	}
	return best, nil
}

// matchScore counts identical parameter matches, or reports false when an
// argument type is not assignable to its parameter.
func matchScore(key signature.ArgumentKey, params []reflect.Type) (int, bool) {
	if len(params) != key.Count {
		return 0, false
	}
	score := 0
	for i, pt := range params {
		at := key.Types[i]
		switch {
		case at == pt:
			score++
		case reflection.IsNullable(pt) && at.AssignableTo(pt):
		default:
			return 0, false
		}
	}
	return score, true
}

func sameParams(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
