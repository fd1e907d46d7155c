package models

import "strconv"

// Backend field names used for joining and derivation. Everything else in a
// record is passed through untouched so schema drift on the Aspect4 side does
// not break consumers.
const (
	FieldOrderNumber    = "t01.oordre"
	FieldLineNumber     = "t01.oorlin"
	FieldOrderDate      = "ordredato"
	FieldOrderStatus    = "status"
	FieldPackedDelivery = "t01.senlv"
	FieldDeliveredQty   = "antal"

	FieldSizeLabel = "stor"
	FieldSizeQty   = "antal"
	FieldSizeEAN   = "ean"
	FieldSizePrice = "apris1"

	FieldItemPart1 = "t01.felt1"
	FieldItemPart2 = "t01.felt2"
	FieldItemPart3 = "t01.felt3"
	FieldItemPart4 = "t01.felt4"
	FieldItemPart5 = "t01.felt5"

	FieldCustomerNumber = "t01.chgto"
	FieldOrderFilter    = "aordrenr"

	// Synthesised by the engine, never sent by the backend.
	FieldExpectedDelivery = "expected_delivery_date"
)

// identityFields are consumed by the join and stripped from the passthrough
// maps, matching what the legacy service exposed.
var identityFields = []string{
	FieldItemPart2, FieldItemPart3, FieldItemPart1, FieldItemPart5, FieldItemPart4,
	FieldOrderNumber, FieldLineNumber,
}

// FieldMap is a loosely-typed backend record. Aspect4 fields are sparsely
// present and their set changes between releases, so records are kept as maps
// with typed accessors for the keys the engine actually needs.
type FieldMap map[string]any

// Int64 reads a numeric field. The JSON gateway delivers numbers as float64,
// but older exports carry them as digit strings.
func (f FieldMap) Int64(key string) (int64, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// String reads a text field, formatting numerics the way the backend prints
// them.
func (f FieldMap) String(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case int:
		return strconv.Itoa(s), true
	}
	return "", false
}

// WithoutIdentity copies the map minus the join and item-number fields.
func (f FieldMap) WithoutIdentity() FieldMap {
	out := make(FieldMap, len(f))
	for k, v := range f {
		if isIdentityField(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func isIdentityField(key string) bool {
	for _, id := range identityFields {
		if key == id {
			return true
		}
	}
	return false
}

// ItemNumber composes the SKU from the five felt parts in the order the
// legacy service used: felt2-felt3-felt1-felt5-felt4.
func (f FieldMap) ItemNumber() string {
	parts := []string{FieldItemPart2, FieldItemPart3, FieldItemPart1, FieldItemPart5, FieldItemPart4}
	item := ""
	for i, key := range parts {
		s, _ := f.String(key)
		if i > 0 {
			item += "-"
		}
		item += s
	}
	return item
}
