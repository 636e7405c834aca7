package signature

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/xshape/guard"
)

var (
	intType    = reflect.TypeOf(0)
	stringType = reflect.TypeOf("")
	timeType   = reflect.TypeOf(time.Time{})
)

type Point struct{ X, Y int }

func TestFieldsKey(t *testing.T) {
	sig, err := Fields(map[string]reflect.Type{"Name": stringType, "Age": intType})
	require.NoError(t, err)

	assert.Equal(t, "T<Age_int,Name_string>", sig.Key())
	assert.Equal(t, 2, sig.Len())
	assert.False(t, sig.IsZero())

	want := []Field{{Name: "Age", Type: intType}, {Name: "Name", Type: stringType}}
	if diff := cmp.Diff(want, sig.Fields(), cmp.Comparer(func(a, b reflect.Type) bool { return a == b })); diff != "" {
		t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsOrderIndependence(t *testing.T) {
	a, err := FromList([]Field{{"A", intType}, {"B", stringType}})
	require.NoError(t, err)
	b, err := FromList([]Field{{"B", stringType}, {"A", intType}})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFieldsDistinction(t *testing.T) {
	base := Of(map[string]reflect.Type{"A": intType, "B": stringType})

	variants := map[string]map[string]reflect.Type{
		"RenamedField": {"A": intType, "C": stringType},
		"RetypedField": {"A": reflect.TypeOf(int64(0)), "B": stringType},
		"ExtraField":   {"A": intType, "B": stringType, "C": timeType},
		"FewerFields":  {"A": intType},
		"NamedType":    {"A": reflect.TypeOf(Point{}), "B": stringType},
		"PointerType":  {"A": reflect.TypeOf(&Point{}), "B": stringType},
	}
	for name, mapping := range variants {
		t.Run(name, func(t *testing.T) {
			assert.False(t, base.Equal(Of(mapping)))
		})
	}
}

func TestFieldsSameNamedTypes(t *testing.T) {
	intX := func() reflect.Type {
		type X int
		return reflect.TypeOf(X(0))
	}()
	stringX := func() reflect.Type {
		type X string
		return reflect.TypeOf(X(""))
	}()

	a := Of(map[string]reflect.Type{"V": intX})
	b := Of(map[string]reflect.Type{"V": stringX})

	assert.Equal(t, a.Key(), b.Key(), "local types render alike")
	assert.NotEqual(t, a.Identity(), b.Identity())
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(Of(map[string]reflect.Type{"V": intX})))
}

func TestFieldsRejection(t *testing.T) {
	tests := []struct {
		name   string
		build  func() (FieldSignature, error)
		reason string
	}{
		{"NilMapping", func() (FieldSignature, error) { return Fields(nil) }, "nil or empty"},
		{"EmptyMapping", func() (FieldSignature, error) { return Fields(map[string]reflect.Type{}) }, "nil or empty"},
		{"EmptyList", func() (FieldSignature, error) { return FromList(nil) }, "nil or empty"},
		{"Unexported", func() (FieldSignature, error) {
			return Fields(map[string]reflect.Type{"name": stringType})
		}, "not an exported identifier"},
		{"NotIdentifier", func() (FieldSignature, error) {
			return Fields(map[string]reflect.Type{"First Name": stringType})
		}, "not an exported identifier"},
		{"NilType", func() (FieldSignature, error) {
			return Fields(map[string]reflect.Type{"Name": nil})
		}, "has no type"},
		{"Duplicate", func() (FieldSignature, error) {
			return FromList([]Field{{"Name", stringType}, {"Name", intType}})
		}, "duplicate field name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)
			assert.ErrorIs(t, err, guard.ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}

	assert.Panics(t, func() { Of(nil) })
}

func TestFromListDoesNotAliasInput(t *testing.T) {
	in := []Field{{"B", stringType}, {"A", intType}}
	_, err := FromList(in)
	require.NoError(t, err)
	assert.Equal(t, "B", in[0].Name)
}

func TestArguments(t *testing.T) {
	k1, err := Arguments(reflect.TypeOf(Point{}), []any{5, "x"})
	require.NoError(t, err)
	k2, err := Arguments(reflect.TypeOf(&Point{}), []any{7, "y"})
	require.NoError(t, err)

	assert.Equal(t, k1, k2, "values differ, types agree")
	assert.Equal(t, 2, k1.Count)
	assert.Equal(t, []reflect.Type{intType, stringType}, k1.Args())
	assert.Equal(t, "github.com/Konsultn-Engineering/xshape/signature.Point(int, string)", k1.String())

	k3, err := Arguments(reflect.TypeOf(Point{}), []any{"x", 5})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	k4, err := Arguments(reflect.TypeOf(Point{}), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, k4.Count)

	assert.Equal(t, k1.Fingerprint(), k2.Fingerprint())
	assert.NotEqual(t, k1.Fingerprint(), k3.Fingerprint())

	seen := map[ArgumentKey]int{k1: 1}
	seen[k2]++
	assert.Equal(t, 2, seen[k1])
}

func TestArgumentsNull(t *testing.T) {
	_, err := Arguments(reflect.TypeOf(Point{}), []any{nil})
	require.Error(t, err)
	assert.ErrorIs(t, err, guard.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "signature.Null")

	withMarker, err := Arguments(reflect.TypeOf(Point{}), []any{Null[*string]()})
	require.NoError(t, err)
	var s *string
	withTypedNil, err := Arguments(reflect.TypeOf(Point{}), []any{s})
	require.NoError(t, err)
	assert.Equal(t, withMarker, withTypedNil)

	_, err = Arguments(reflect.TypeOf(Point{}), []any{Null[int]()})
	assert.ErrorIs(t, err, guard.ErrInvalidArgument)

	_, err = Arguments(reflect.TypeOf(Point{}), []any{NullOf(nil)})
	assert.ErrorIs(t, err, guard.ErrInvalidArgument)

	assert.Equal(t, reflect.TypeOf((*fmt.Stringer)(nil)).Elem(), Null[fmt.Stringer]().Type())
}

func TestArgumentsLimits(t *testing.T) {
	_, err := Arguments(nil, []any{1})
	assert.ErrorIs(t, err, guard.ErrInvalidArgument)

	args := make([]any, MaxArguments+1)
	for i := range args {
		args[i] = i
	}
	_, err = Arguments(reflect.TypeOf(Point{}), args)
	assert.ErrorIs(t, err, guard.ErrInvalidArgument)

	_, err = Arguments(reflect.TypeOf(Point{}), args[:MaxArguments])
	assert.NoError(t, err)
}
