package modeljson

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// DateLayout is the textual form of date attributes.
const DateLayout = "2006-01-02T15:04:05.000-0700"

// maxDecimalScale bounds the digits searched when rendering a *big.Rat.
const maxDecimalScale = 1000

var errNonTerminating = errors.New("decimal does not terminate")

// EncodeValue converts a single attribute value to its JSON form: a string,
// bool or json.Number. A nil value encodes to nil, except for custom data
// types which encode to the empty string.
func EncodeValue(dt *model.DataType, value any) (any, error) {
	if value == nil {
		if dt.Category == model.CategoryCustom {
			return "", nil
		}
		return nil, nil
	}
	if !dt.Accepts(value) {
		return nil, fmt.Errorf("%T is not a value of %s", value, dt)
	}
	switch dt.Category {
	case model.CategoryString:
		return value.(string), nil
	case model.CategoryChar:
		return string(value.(rune)), nil
	case model.CategoryBoolean:
		return value.(bool), nil
	case model.CategoryByte:
		return json.Number(strconv.FormatInt(int64(value.(int8)), 10)), nil
	case model.CategoryShort:
		return json.Number(strconv.FormatInt(int64(value.(int16)), 10)), nil
	case model.CategoryInt:
		return json.Number(strconv.FormatInt(int64(value.(int32)), 10)), nil
	case model.CategoryLong:
		return json.Number(strconv.FormatInt(value.(int64), 10)), nil
	case model.CategoryFloat:
		return encodeFloat(float64(value.(float32)), 32)
	case model.CategoryDouble:
		return encodeFloat(value.(float64), 64)
	case model.CategoryBigInteger:
		return json.Number(value.(*big.Int).String()), nil
	case model.CategoryBigDecimal:
		text, err := decimalString(value.(*big.Rat))
		if err != nil {
			return nil, err
		}
		return json.Number(text), nil
	case model.CategoryBytes:
		return strings.ToUpper(hex.EncodeToString(value.([]byte))), nil
	case model.CategoryDate:
		return value.(time.Time).Format(DateLayout), nil
	case model.CategoryEnum:
		return value.(model.EnumLiteral).Name, nil
	default:
		if dt.Converter != nil {
			return dt.Converter.ConvertToString(value)
		}
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprint(value), nil
	}
}

// EncodeValues encodes every element of a multi-valued attribute.
func EncodeValues(dt *model.DataType, values []any) ([]any, error) {
	out := make([]any, 0, len(values))
	for i, v := range values {
		encoded, err := EncodeValue(dt, v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, encoded)
	}
	return out, nil
}

func encodeFloat(f float64, bits int) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%v has no JSON representation", f)
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, bits)), nil
}

// decimalString renders r exactly, failing for fractions with an infinite expansion.
func decimalString(r *big.Rat) (string, error) {
	if r.IsInt() {
		return r.Num().String(), nil
	}
	denom := new(big.Int).Set(r.Denom())
	two, five := big.NewInt(2), big.NewInt(5)
	scale := 0
	mod := new(big.Int)
	for _, p := range []*big.Int{two, five} {
		n := 0
		for {
			q, m := new(big.Int).QuoRem(denom, p, mod)
			if m.Sign() != 0 {
				break
			}
			denom = q
			n++
		}
		scale = max(scale, n)
	}
	if denom.Cmp(big.NewInt(1)) != 0 || scale > maxDecimalScale {
		return "", fmt.Errorf("%w: %s", errNonTerminating, r.String())
	}
	return r.FloatString(scale), nil
}

// DecodeValue converts the JSON form of a single attribute value. JSON null
// decodes to nil.
func DecodeValue(dt *model.DataType, raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch dt.Category {
	case model.CategoryBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("expected boolean, got %s", raw)
		}
		return b, nil
	case model.CategoryByte, model.CategoryShort, model.CategoryInt, model.CategoryLong:
		text, err := numberText(raw)
		if err != nil {
			return nil, err
		}
		return parseInteger(dt.Category, text)
	case model.CategoryFloat, model.CategoryDouble:
		text, err := numberText(raw)
		if err != nil {
			return nil, err
		}
		bits := 64
		if dt.Category == model.CategoryFloat {
			bits = 32
		}
		f, err := strconv.ParseFloat(text, bits)
		if err != nil {
			return nil, err
		}
		if bits == 32 {
			return float32(f), nil
		}
		return f, nil
	case model.CategoryBigInteger:
		text, err := numberText(raw)
		if err != nil {
			return nil, err
		}
		i, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", text)
		}
		return i, nil
	case model.CategoryBigDecimal:
		text, err := numberText(raw)
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(text)
		if !ok {
			return nil, fmt.Errorf("%q is not a decimal", text)
		}
		return r, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("expected string, got %s", raw)
	}
	switch dt.Category {
	case model.CategoryString:
		return text, nil
	case model.CategoryChar:
		if utf8.RuneCountInString(text) != 1 {
			return nil, fmt.Errorf("%q is not a single character", text)
		}
		r, _ := utf8.DecodeRuneInString(text)
		return r, nil
	case model.CategoryBytes:
		return hex.DecodeString(text)
	case model.CategoryDate:
		return time.Parse(DateLayout, text)
	case model.CategoryEnum:
		literal, ok := dt.Literal(text)
		if !ok {
			return nil, fmt.Errorf("%q is no literal of %s", text, dt)
		}
		return literal, nil
	default:
		if dt.Converter != nil {
			return dt.Converter.CreateFromString(text)
		}
		return text, nil
	}
}

// DecodeValues decodes a JSON array into the elements of a multi-valued attribute.
func DecodeValues(dt *model.DataType, raw json.RawMessage) ([]any, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("expected array, got %s", raw)
	}
	out := make([]any, 0, len(elements))
	for i, element := range elements {
		v, err := DecodeValue(dt, element)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if v == nil {
			return nil, fmt.Errorf("element %d: null is not allowed in a list", i)
		}
		out = append(out, v)
	}
	return out, nil
}

func numberText(raw json.RawMessage) (string, error) {
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return "", fmt.Errorf("expected number, got %s", raw)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func parseInteger(category model.Category, text string) (any, error) {
	switch category {
	case model.CategoryByte:
		v, err := strconv.ParseInt(text, 10, 8)
		return int8(v), err
	case model.CategoryShort:
		v, err := strconv.ParseInt(text, 10, 16)
		return int16(v), err
	case model.CategoryInt:
		v, err := strconv.ParseInt(text, 10, 32)
		return int32(v), err
	default:
		return strconv.ParseInt(text, 10, 64)
	}
}
