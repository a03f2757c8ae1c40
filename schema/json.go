package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The JSON wire shape follows the Delta-style schema serialization: structs
// are {"type":"struct","fields":[...]}, arrays and maps carry their element
// and key/value types plus nullability flags, and leaves are lowercase name
// strings ("integer", "timestamptz", "decimal(10,2)", ...). Field comments
// ride in metadata under the "comment" key on the wire.

const commentMetadataKey = "comment"

// wireKinds is the inverse of the kindNames wire column.
var wireKinds = func() map[string]PrimitiveKind {
	m := make(map[string]PrimitiveKind, len(kindNames))
	for k, n := range kindNames {
		m[n.wire] = k
	}
	return m
}()

var decimalWireRE = regexp.MustCompile(`^decimal\(\s*(\d+)\s*,\s*(-?\d+)\s*\)$`)

type jsonField struct {
	Name     string            `json:"name"`
	Type     json.RawMessage   `json:"type"`
	Nullable bool              `json:"nullable"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type jsonContainer struct {
	Type              string            `json:"type"`
	Fields            []json.RawMessage `json:"fields,omitempty"`
	ElementType       json.RawMessage   `json:"elementType,omitempty"`
	ContainsNull      *bool             `json:"containsNull,omitempty"`
	KeyType           json.RawMessage   `json:"keyType,omitempty"`
	ValueType         json.RawMessage   `json:"valueType,omitempty"`
	ValueContainsNull *bool             `json:"valueContainsNull,omitempty"`
}

// MarshalTypeJSON serializes any schema tree to its wire form.
func MarshalTypeJSON(t DataType) ([]byte, error) {
	switch tt := t.(type) {
	case PrimitiveType:
		n, ok := kindNames[tt.Kind]
		if !ok {
			return nil, fmt.Errorf("cannot serialize unknown primitive kind %d", int(tt.Kind))
		}
		return json.Marshal(n.wire)
	case DecimalType:
		return json.Marshal(fmt.Sprintf("decimal(%d,%d)", tt.Precision, tt.Scale))
	case *StructType:
		return tt.MarshalJSON()
	case *ArrayType:
		return tt.MarshalJSON()
	case *MapType:
		return tt.MarshalJSON()
	default:
		return nil, fmt.Errorf("cannot serialize data type %T", t)
	}
}

// UnmarshalTypeJSON is the inverse of MarshalTypeJSON.
func UnmarshalTypeJSON(data []byte) (DataType, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return nil, err
		}
		return leafFromWire(name)
	}

	var c jsonContainer
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	switch c.Type {
	case "struct":
		st := &StructType{}
		for _, raw := range c.Fields {
			f, err := unmarshalField(raw)
			if err != nil {
				return nil, err
			}
			st.Fields = append(st.Fields, f)
		}
		return st, nil
	case "array":
		if c.ElementType == nil {
			return nil, fmt.Errorf("array type is missing elementType")
		}
		elem, err := UnmarshalTypeJSON(c.ElementType)
		if err != nil {
			return nil, err
		}
		return &ArrayType{Elem: elem, ContainsNull: boolOr(c.ContainsNull, true)}, nil
	case "map":
		if c.KeyType == nil || c.ValueType == nil {
			return nil, fmt.Errorf("map type is missing keyType or valueType")
		}
		key, err := UnmarshalTypeJSON(c.KeyType)
		if err != nil {
			return nil, err
		}
		value, err := UnmarshalTypeJSON(c.ValueType)
		if err != nil {
			return nil, err
		}
		return &MapType{Key: key, Value: value, ValueContainsNull: boolOr(c.ValueContainsNull, true)}, nil
	default:
		return nil, fmt.Errorf("unknown container type %q", c.Type)
	}
}

func leafFromWire(name string) (DataType, error) {
	if k, ok := wireKinds[name]; ok {
		return PrimitiveType{Kind: k}, nil
	}
	if m := decimalWireRE.FindStringSubmatch(name); m != nil {
		p, _ := strconv.Atoi(m[1])
		s, _ := strconv.Atoi(m[2])
		return DecimalType{Precision: int32(p), Scale: int32(s)}, nil
	}
	return nil, fmt.Errorf("unknown primitive type name %q", name)
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func (f Field) MarshalJSON() ([]byte, error) {
	raw, err := MarshalTypeJSON(f.Type)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", quoteName(f.Name), err)
	}
	md := f.Metadata
	if f.Comment != "" {
		md = make(map[string]string, len(f.Metadata)+1)
		for k, v := range f.Metadata {
			md[k] = v
		}
		md[commentMetadataKey] = f.Comment
	}
	return json.Marshal(jsonField{Name: f.Name, Type: raw, Nullable: f.Nullable, Metadata: md})
}

func unmarshalField(data []byte) (Field, error) {
	var jf jsonField
	if err := json.Unmarshal(data, &jf); err != nil {
		return Field{}, err
	}
	if jf.Name == "" {
		return Field{}, fmt.Errorf("field is missing a name")
	}
	if jf.Type == nil {
		return Field{}, fmt.Errorf("field %s is missing a type", quoteName(jf.Name))
	}
	t, err := UnmarshalTypeJSON(jf.Type)
	if err != nil {
		return Field{}, fmt.Errorf("field %s: %w", quoteName(jf.Name), err)
	}
	f := Field{Name: jf.Name, Type: t, Nullable: jf.Nullable, Metadata: jf.Metadata}
	if c, ok := jf.Metadata[commentMetadataKey]; ok {
		f.Comment = c
		delete(jf.Metadata, commentMetadataKey)
		if len(jf.Metadata) == 0 {
			f.Metadata = nil
		}
	}
	return f, nil
}

func (f *Field) UnmarshalJSON(data []byte) error {
	parsed, err := unmarshalField(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (st *StructType) MarshalJSON() ([]byte, error) {
	fields := make([]json.RawMessage, len(st.Fields))
	for i, f := range st.Fields {
		raw, err := f.MarshalJSON()
		if err != nil {
			return nil, err
		}
		fields[i] = raw
	}
	return json.Marshal(jsonContainer{Type: "struct", Fields: fields})
}

func (st *StructType) UnmarshalJSON(data []byte) error {
	t, err := UnmarshalTypeJSON(data)
	if err != nil {
		return err
	}
	parsed, ok := t.(*StructType)
	if !ok {
		return fmt.Errorf("expected a struct type, got %s", t)
	}
	*st = *parsed
	return nil
}

func (t *ArrayType) MarshalJSON() ([]byte, error) {
	elem, err := MarshalTypeJSON(t.Elem)
	if err != nil {
		return nil, err
	}
	cn := t.ContainsNull
	return json.Marshal(jsonContainer{Type: "array", ElementType: elem, ContainsNull: &cn})
}

func (t *ArrayType) UnmarshalJSON(data []byte) error {
	parsed, err := UnmarshalTypeJSON(data)
	if err != nil {
		return err
	}
	at, ok := parsed.(*ArrayType)
	if !ok {
		return fmt.Errorf("expected an array type, got %s", parsed)
	}
	*t = *at
	return nil
}

func (t *MapType) MarshalJSON() ([]byte, error) {
	key, err := MarshalTypeJSON(t.Key)
	if err != nil {
		return nil, err
	}
	value, err := MarshalTypeJSON(t.Value)
	if err != nil {
		return nil, err
	}
	vn := t.ValueContainsNull
	return json.Marshal(jsonContainer{Type: "map", KeyType: key, ValueType: value, ValueContainsNull: &vn})
}

func (t *MapType) UnmarshalJSON(data []byte) error {
	parsed, err := UnmarshalTypeJSON(data)
	if err != nil {
		return err
	}
	mt, ok := parsed.(*MapType)
	if !ok {
		return fmt.Errorf("expected a map type, got %s", parsed)
	}
	*t = *mt
	return nil
}
