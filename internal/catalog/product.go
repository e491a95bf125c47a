package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value")
	ErrEmptyStore   = errors.New("store is empty")
)

type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Color    string          `json:"color"`
	Unique   bool            `json:"unique"`
	City     string          `json:"city"`
}

type productJSON Product

// MarshalJSON renders price and quantity as bare JSON numbers instead of
// decimal's default quoted string.
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		productJSON
		Price    json.Number `json:"price"`
		Quantity json.Number `json:"quantity"`
	}{
		productJSON: productJSON(p),
		Price:       json.Number(p.Price.String()),
		Quantity:    json.Number(p.Quantity.String()),
	})
}

// Kind is the value type of a product column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindDecimal
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindDecimal:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "string"
	}
}

const (
	FieldID       = "id"
	FieldName     = "name"
	FieldPrice    = "price"
	FieldQuantity = "quantity"
	FieldColor    = "color"
	FieldUnique   = "unique"
	FieldCity     = "city"
)

// Fields lists the product columns in dataset order.
var Fields = []string{FieldID, FieldName, FieldPrice, FieldQuantity, FieldColor, FieldUnique, FieldCity}

var fieldKinds = map[string]Kind{
	FieldID:       KindInt,
	FieldName:     KindString,
	FieldPrice:    KindDecimal,
	FieldQuantity: KindDecimal,
	FieldColor:    KindString,
	FieldUnique:   KindBool,
	FieldCity:     KindString,
}

// FieldKind reports the value type of the named column.
func FieldKind(field string) (Kind, bool) {
	k, ok := fieldKinds[field]
	return k, ok
}

// ParseFieldValue coerces a textual value (URL segment, CSV cell) to the
// type of the named column.
func ParseFieldValue(field, raw string) (any, error) {
	kind, ok := fieldKinds[field]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownField, "%q", field)
	}

	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, invalidValue(field, kind, raw)
		}
		return n, nil
	case KindDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, invalidValue(field, kind, raw)
		}
		return d, nil
	case KindBool:
		b, err := parseFlag(raw)
		if err != nil {
			return nil, invalidValue(field, kind, raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// DecodeFieldValue decodes a JSON value for the named column. null is
// rejected: every column is required.
func DecodeFieldValue(field string, raw json.RawMessage) (any, error) {
	kind, ok := fieldKinds[field]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownField, "%q", field)
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return nil, invalidValue(field, kind, "null")
	}

	var (
		v   any
		err error
	)
	switch kind {
	case KindInt:
		var n int64
		err = json.Unmarshal(raw, &n)
		v = n
	case KindDecimal:
		var d decimal.Decimal
		err = d.UnmarshalJSON(raw)
		v = d
	case KindBool:
		var b bool
		err = json.Unmarshal(raw, &b)
		v = b
	default:
		var s string
		err = json.Unmarshal(raw, &s)
		v = s
	}
	if err != nil {
		return nil, invalidValue(field, kind, string(raw))
	}
	return v, nil
}

// Get returns the value of the named column.
func (p Product) Get(field string) (any, error) {
	switch field {
	case FieldID:
		return p.ID, nil
	case FieldName:
		return p.Name, nil
	case FieldPrice:
		return p.Price, nil
	case FieldQuantity:
		return p.Quantity, nil
	case FieldColor:
		return p.Color, nil
	case FieldUnique:
		return p.Unique, nil
	case FieldCity:
		return p.City, nil
	}
	return nil, errors.Wrapf(ErrUnknownField, "%q", field)
}

// Set assigns a value already coerced to the column type. The product is
// left untouched when v has the wrong type.
func (p *Product) Set(field string, v any) error {
	kind, ok := fieldKinds[field]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "%q", field)
	}

	switch x := v.(type) {
	case int64:
		if kind != KindInt {
			break
		}
		p.ID = x
		return nil
	case decimal.Decimal:
		if kind != KindDecimal {
			break
		}
		if field == FieldPrice {
			p.Price = x
		} else {
			p.Quantity = x
		}
		return nil
	case bool:
		if kind != KindBool {
			break
		}
		p.Unique = x
		return nil
	case string:
		if kind != KindString {
			break
		}
		switch field {
		case FieldName:
			p.Name = x
		case FieldColor:
			p.Color = x
		case FieldCity:
			p.City = x
		}
		return nil
	}
	return errors.Wrapf(ErrInvalidValue, "%s: want %s, got %T", field, kind, v)
}

func valuesEqual(a, b any) bool {
	if da, ok := a.(decimal.Decimal); ok {
		db, ok := b.(decimal.Decimal)
		return ok && da.Equal(db)
	}
	return a == b
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(raw))
}

func invalidValue(field string, kind Kind, raw string) error {
	return errors.Wrapf(ErrInvalidValue, "%s: %q is not a valid %s", field, raw, kind)
}
