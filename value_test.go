package modeljson_test

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/modeljson"
	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

func mustBigInt(text string) *big.Int {
	i, ok := new(big.Int).SetString(text, 10)
	if !ok {
		panic("invalid integer " + text)
	}
	return i
}

func mustRat(text string) *big.Rat {
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		panic("invalid decimal " + text)
	}
	return r
}

func mustDate(text string) time.Time {
	d, err := time.Parse(modeljson.DateLayout, text)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEncodeValue(t *testing.T) {
	colors := model.NewNamespace("http://example.com/colors", "c").NewEnum("Color", "red", "green")
	upper := &model.DataType{Name: "Upper", Category: model.CategoryCustom, Converter: model.ConverterFuncs{
		ToString: func(v any) (string, error) { return "<" + v.(string) + ">", nil },
	}}
	plain := &model.DataType{Name: "Plain", Category: model.CategoryCustom}

	for _, tc := range []struct {
		name string
		dt   *model.DataType
		in   any
		want any
	}{
		{name: "nil", dt: model.StringType, in: nil, want: nil},
		{name: "nil custom", dt: plain, in: nil, want: ""},
		{name: "string", dt: model.StringType, in: "a\"b", want: "a\"b"},
		{name: "char", dt: model.CharType, in: 'ü', want: "ü"},
		{name: "boolean", dt: model.BooleanType, in: false, want: false},
		{name: "byte", dt: model.ByteType, in: int8(-128), want: json.Number("-128")},
		{name: "short", dt: model.ShortType, in: int16(32767), want: json.Number("32767")},
		{name: "int", dt: model.IntType, in: int32(7), want: json.Number("7")},
		{name: "long", dt: model.LongType, in: int64(math.MaxInt64), want: json.Number("9223372036854775807")},
		{name: "float", dt: model.FloatType, in: float32(0.1), want: json.Number("0.1")},
		{name: "double", dt: model.DoubleType, in: 1e21, want: json.Number("1e+21")},
		{name: "big integer", dt: model.BigIntegerType, in: mustBigInt("-98765432109876543210"), want: json.Number("-98765432109876543210")},
		{name: "big decimal", dt: model.BigDecimalType, in: mustRat("1/8"), want: json.Number("0.125")},
		{name: "big decimal integer", dt: model.BigDecimalType, in: mustRat("12"), want: json.Number("12")},
		{name: "bytes", dt: model.BytesType, in: []byte{0xde, 0xad, 0x01}, want: "DEAD01"},
		{name: "date", dt: model.DateType, in: time.Date(2020, 1, 2, 3, 4, 5, 6e6, time.UTC), want: "2020-01-02T03:04:05.006+0000"},
		{name: "enum", dt: colors, in: model.EnumLiteral{Name: "green", Value: 1}, want: "green"},
		{name: "custom converter", dt: upper, in: "x", want: "<x>"},
		{name: "custom string", dt: plain, in: "x", want: "x"},
		{name: "custom other", dt: plain, in: 42, want: "42"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := modeljson.EncodeValue(tc.dt, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeValueErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		dt   *model.DataType
		in   any
	}{
		{name: "wrong go type", dt: model.IntType, in: int64(1)},
		{name: "nan", dt: model.DoubleType, in: math.NaN()},
		{name: "infinity", dt: model.FloatType, in: float32(math.Inf(1))},
		{name: "non terminating decimal", dt: model.BigDecimalType, in: mustRat("1/3")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := modeljson.EncodeValue(tc.dt, tc.in)
			assert.Error(t, err)
		})
	}

	_, err := modeljson.EncodeValues(model.IntType, []any{int32(1), "2"})
	assert.ErrorContains(t, err, "element 1")
}

func TestDecodeValue(t *testing.T) {
	colors := model.NewNamespace("http://example.com/colors", "c").NewEnum("Color", "red", "green")
	for _, tc := range []struct {
		name string
		dt   *model.DataType
		raw  string
		want any
	}{
		{name: "null", dt: model.IntType, raw: `null`, want: nil},
		{name: "string", dt: model.StringType, raw: `"x"`, want: "x"},
		{name: "char", dt: model.CharType, raw: `"ü"`, want: 'ü'},
		{name: "boolean", dt: model.BooleanType, raw: `true`, want: true},
		{name: "byte", dt: model.ByteType, raw: `-5`, want: int8(-5)},
		{name: "short", dt: model.ShortType, raw: `300`, want: int16(300)},
		{name: "int", dt: model.IntType, raw: ` 12 `, want: int32(12)},
		{name: "long", dt: model.LongType, raw: `-9223372036854775808`, want: int64(math.MinInt64)},
		{name: "float", dt: model.FloatType, raw: `2.5`, want: float32(2.5)},
		{name: "double", dt: model.DoubleType, raw: `1e-3`, want: 0.001},
		{name: "big integer", dt: model.BigIntegerType, raw: `123456789012345678901234567890`, want: mustBigInt("123456789012345678901234567890")},
		{name: "big decimal", dt: model.BigDecimalType, raw: `0.125`, want: mustRat("1/8")},
		{name: "bytes", dt: model.BytesType, raw: `"dead01"`, want: []byte{0xde, 0xad, 0x01}},
		{name: "enum", dt: colors, raw: `"red"`, want: model.EnumLiteral{Name: "red"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := modeljson.DecodeValue(tc.dt, json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.True(t, model.ValuesEqual(tc.want, got), "want %v, got %v", tc.want, got)
		})
	}

	t.Run("date", func(t *testing.T) {
		got, err := modeljson.DecodeValue(model.DateType, json.RawMessage(`"2020-01-02T03:04:05.006+0100"`))
		require.NoError(t, err)
		assert.True(t, got.(time.Time).Equal(time.Date(2020, 1, 2, 2, 4, 5, 6e6, time.UTC)))
	})
}

func TestDecodeValueErrors(t *testing.T) {
	colors := model.NewNamespace("http://example.com/colors", "c").NewEnum("Color", "red")
	for _, tc := range []struct {
		name string
		dt   *model.DataType
		raw  string
	}{
		{name: "byte overflow", dt: model.ByteType, raw: `128`},
		{name: "int fraction", dt: model.IntType, raw: `1.5`},
		{name: "int as string", dt: model.IntType, raw: `"1"`},
		{name: "boolean as string", dt: model.BooleanType, raw: `"true"`},
		{name: "string as number", dt: model.StringType, raw: `1`},
		{name: "two characters", dt: model.CharType, raw: `"ab"`},
		{name: "odd hex", dt: model.BytesType, raw: `"ABC"`},
		{name: "date layout", dt: model.DateType, raw: `"2020-01-02"`},
		{name: "undeclared literal", dt: colors, raw: `"blue"`},
		{name: "big integer fraction", dt: model.BigIntegerType, raw: `1.5`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := modeljson.DecodeValue(tc.dt, json.RawMessage(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestDecodeValues(t *testing.T) {
	r := require.New(t)
	values, err := modeljson.DecodeValues(model.StringType, json.RawMessage(`["a", "b"]`))
	r.NoError(err)
	r.Equal([]any{"a", "b"}, values)

	_, err = modeljson.DecodeValues(model.StringType, json.RawMessage(`"a"`))
	r.Error(err)
	_, err = modeljson.DecodeValues(model.StringType, json.RawMessage(`["a", null]`))
	r.ErrorContains(err, "element 1")
}
