package dynamic

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/Konsultn-Engineering/xshape/guard"
	"github.com/Konsultn-Engineering/xshape/schema"
	"github.com/Konsultn-Engineering/xshape/signature"
)

var (
	intType    = reflect.TypeOf(0)
	stringType = reflect.TypeOf("")
)

var typeComparer = cmp.Comparer(func(a, b reflect.Type) bool { return a == b })

func TestGetStructuralType(t *testing.T) {
	b := NewTypeBuilder()

	desc, err := b.Get(map[string]reflect.Type{"Name": stringType, "Age": intType})
	require.NoError(t, err)

	assert.Equal(t, reflect.Struct, desc.Type.Kind())
	assert.Equal(t, 2, desc.Len())
	assert.Equal(t, "T<Age_int,Name_string>", desc.Key)
	assert.NotEmpty(t, desc.ID)

	want := []signature.Field{{Name: "Age", Type: intType}, {Name: "Name", Type: stringType}}
	if diff := cmp.Diff(want, desc.Fields(), typeComparer); diff != "" {
		t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
	}

	age, ok := desc.Field("Age")
	require.True(t, ok)
	assert.Equal(t, intType, age.Type)
	assert.Equal(t, `json:"age"`, string(age.Tag))
	_, ok = desc.Field("Email")
	assert.False(t, ok)

	inst := desc.New()
	inst.Elem().FieldByName("Name").SetString("Alice")
	inst.Elem().FieldByName("Age").SetInt(30)
	raw, err := json.Marshal(inst.Interface())
	require.NoError(t, err)
	assert.JSONEq(t, `{"age":30,"name":"Alice"}`, string(raw))
}

func TestStructuralTypeIdentity(t *testing.T) {
	b := NewTypeBuilder()

	first, err := b.Get(map[string]reflect.Type{"A": intType, "B": stringType})
	require.NoError(t, err)
	second, err := b.GetOrCreate(signature.Of(map[string]reflect.Type{"B": stringType, "A": intType}))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, first.Type, second.Type)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, uint64(1), b.Stats().Hits)
	assert.Equal(t, uint64(1), b.Stats().Misses)

	cached, ok := b.Lookup(first.Signature())
	assert.True(t, ok)
	assert.Same(t, first, cached)
}

func TestStructuralTypeDistinction(t *testing.T) {
	b := NewTypeBuilder()

	shapes := []map[string]reflect.Type{
		{"A": intType, "B": stringType},
		{"A": intType, "C": stringType},
		{"A": stringType, "B": stringType},
		{"A": intType},
		{"A": intType, "B": stringType, "C": reflect.TypeOf(time.Time{})},
	}
	seen := make(map[reflect.Type]string)
	for _, shape := range shapes {
		desc, err := b.Get(shape)
		require.NoError(t, err)
		if prev, dup := seen[desc.Type]; dup {
			t.Fatalf("%s and %s share a type", prev, desc.Key)
		}
		seen[desc.Type] = desc.Key
	}

	descs := b.Descriptors()
	require.Len(t, descs, len(shapes))
	for i := 1; i < len(descs); i++ {
		assert.Less(t, descs[i-1].Key, descs[i].Key)
	}
}

func TestStructuralTypeSameNamedFieldTypes(t *testing.T) {
	intX := func() reflect.Type {
		type X int
		return reflect.TypeOf(X(0))
	}()
	stringX := func() reflect.Type {
		type X string
		return reflect.TypeOf(X(""))
	}()

	b := NewTypeBuilder()
	first, err := b.Get(map[string]reflect.Type{"V": intX})
	require.NoError(t, err)
	second, err := b.Get(map[string]reflect.Type{"V": stringX})
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.Type, second.Type)
	assert.Equal(t, intX, first.Type.Field(0).Type)
	assert.Equal(t, stringX, second.Type.Field(0).Type)
	assert.Equal(t, 2, b.Len())

	cached, ok := b.Lookup(second.Signature())
	require.True(t, ok)
	assert.Same(t, second, cached)
}

func TestStructuralTypeRejectsEmpty(t *testing.T) {
	b := NewTypeBuilder()

	_, err := b.Get(map[string]reflect.Type{})
	assert.ErrorIs(t, err, guard.ErrInvalidArgument)
	_, err = b.Get(nil)
	assert.ErrorIs(t, err, guard.ErrInvalidArgument)
	_, err = b.GetOrCreate(signature.FieldSignature{})
	assert.ErrorIs(t, err, guard.ErrInvalidArgument)

	assert.Equal(t, 0, b.Len(), "rejected before the cache")
	assert.Equal(t, uint64(0), b.Stats().Misses)
}

func TestStructuralTypeConcurrentFirstRequest(t *testing.T) {
	b := NewTypeBuilder()
	sig := signature.Of(map[string]reflect.Type{"Novel": intType, "Shape": stringType})

	const goroutines = 64
	results := make([]*TypeDescriptor, goroutines)
	start := make(chan struct{})

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			<-start
			desc, err := b.GetOrCreate(sig)
			results[i] = desc
			return err
		})
	}
	close(start)
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, b.Len())
	assert.Equal(t, uint64(1), b.Stats().Misses)
	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestTypeBuilderOptions(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	b := NewTypeBuilder(
		WithLogger(zap.New(core)),
		WithFieldTag("yaml"),
		WithNamingStrategy(schema.NewNamingStrategy(schema.NamingCamelCase)),
		WithIDGenerator(UUIDGenerator{}),
	)

	desc, err := b.Get(map[string]reflect.Type{"FirstName": stringType})
	require.NoError(t, err)

	f, _ := desc.Field("FirstName")
	assert.Equal(t, `yaml:"firstName"`, string(f.Tag))
	assert.Len(t, desc.ID, 36)

	entries := logs.FilterMessage("structural type created").All()
	require.Len(t, entries, 1)
	assert.Equal(t, desc.Key, entries[0].ContextMap()["key"])
	assert.Equal(t, desc.ID, entries[0].ContextMap()["id"])

	_, err = b.Get(map[string]reflect.Type{"FirstName": stringType})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("structural type created").Len(), "hits are not logged")

	untagged := NewTypeBuilder(WithFieldTag(""))
	desc, err = untagged.Get(map[string]reflect.Type{"FirstName": stringType})
	require.NoError(t, err)
	f, _ = desc.Field("FirstName")
	assert.Empty(t, f.Tag)
}

func TestTypeBuilderBuildFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewTypeBuilder(WithLogger(zap.New(core)))

	// Four 2^62-byte fields overflow the struct size and StructOf panics.
	huge := reflect.ArrayOf(1<<59, reflect.TypeOf(int64(0)))
	_, err := b.Get(map[string]reflect.Type{"A": huge, "B": huge, "C": huge, "D": huge})
	require.Error(t, err)
	assert.ErrorIs(t, err, guard.ErrBuild)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 1, logs.FilterMessage("structural type build failed").Len())
}

func TestIDGenerators(t *testing.T) {
	gen, err := NewIDGenerator("ulid")
	require.NoError(t, err)
	assert.Equal(t, "ulid", gen.Type())

	a, err := gen.Generate()
	require.NoError(t, err)
	b, err := gen.Generate()
	require.NoError(t, err)
	_, err = ulid.Parse(a)
	require.NoError(t, err)
	assert.Less(t, a, b, "monotonic")

	gen, err = NewIDGenerator("UUID")
	require.NoError(t, err)
	assert.Equal(t, "uuid", gen.Type())

	_, err = NewIDGenerator("snowflake")
	assert.Error(t, err)
}
