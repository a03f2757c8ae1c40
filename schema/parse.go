package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// leafAliases maps upper-cased DuckDB type spellings (and the usual SQL
// aliases) to leaf kinds. Multi-word spellings are normalized to single
// spaces before lookup.
var leafAliases = map[string]PrimitiveKind{
	"BOOLEAN": Bool, "BOOL": Bool, "LOGICAL": Bool,
	"TINYINT": Int8, "INT1": Int8,
	"SMALLINT": Int16, "INT2": Int16, "SHORT": Int16,
	"INTEGER": Int32, "INT": Int32, "INT4": Int32, "SIGNED": Int32,
	"BIGINT": Int64, "INT8": Int64, "LONG": Int64,
	"FLOAT": Float32, "FLOAT4": Float32, "REAL": Float32,
	"DOUBLE": Float64, "FLOAT8": Float64, "DOUBLE PRECISION": Float64,
	"VARCHAR": String, "TEXT": String, "STRING": String, "CHAR": String,
	"BPCHAR": String, "CHARACTER VARYING": String, "JSON": String,
	"BLOB": Binary, "BYTEA": Binary, "BINARY": Binary, "VARBINARY": Binary,
	"DATE": Date,
	"TIME": Time, "TIMETZ": Time, "TIME WITH TIME ZONE": Time,
	"TIMESTAMP": Timestamp, "DATETIME": Timestamp,
	"TIMESTAMPTZ": TimestampTZ, "TIMESTAMP WITH TIME ZONE": TimestampTZ,
	"INTERVAL": Interval,
	"UUID":     UUID,
	"NULL":     Null, "SQLNULL": Null,
}

// ParseType parses a DuckDB-style type name into a schema tree and is the
// inverse of DataType.String. It understands leaf names and their common
// aliases, DECIMAL(p,s), the [] array suffix, MAP(key, value), and nested
// STRUCT(name TYPE, ...) definitions with optionally quoted field names.
//
// The textual form carries no nullability, so parsed struct fields, array
// elements, and map values are nullable; the DuckLake catalog stores
// null constraints separately and callers apply them afterwards.
func ParseType(s string) (DataType, error) {
	p := &typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return nil, fmt.Errorf("cannot parse type %q: %w", s, err)
	}
	p.skipSpace()
	if !p.eof() {
		return nil, fmt.Errorf("cannot parse type %q: unexpected trailing input at offset %d", s, p.i)
	}
	return t, nil
}

type typeParser struct {
	src string
	i   int
}

func (p *typeParser) eof() bool { return p.i >= len(p.src) }

func (p *typeParser) skipSpace() {
	for !p.eof() && (p.src[p.i] == ' ' || p.src[p.i] == '\t' || p.src[p.i] == '\n') {
		p.i++
	}
}

func (p *typeParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.i]
}

func (p *typeParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return fmt.Errorf("expected %q at offset %d", string(c), p.i)
	}
	p.i++
	return nil
}

// word reads one bare identifier-ish token, empty when none is there.
func (p *typeParser) word() string {
	p.skipSpace()
	start := p.i
	for !p.eof() {
		c := p.src[p.i]
		if c == '(' || c == ')' || c == ',' || c == '[' || c == ']' || c == ' ' || c == '\t' || c == '\n' || c == '"' {
			break
		}
		p.i++
	}
	return p.src[start:p.i]
}

func (p *typeParser) parseType() (DataType, error) {
	base, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	// Array suffixes bind outward: INTEGER[][] is an array of arrays.
	for {
		p.skipSpace()
		if p.peek() != '[' {
			return base, nil
		}
		p.i++
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		base = &ArrayType{Elem: base, ContainsNull: true}
	}
}

func (p *typeParser) parseBase() (DataType, error) {
	first := p.word()
	if first == "" {
		return nil, fmt.Errorf("expected a type name at offset %d", p.i)
	}
	upper := strings.ToUpper(first)

	switch upper {
	case "STRUCT":
		return p.parseStructBody()
	case "MAP":
		return p.parseMapBody()
	case "DECIMAL", "NUMERIC":
		p.skipSpace()
		if p.peek() != '(' {
			// DuckDB's default decimal width.
			return DecimalType{Precision: 18, Scale: 3}, nil
		}
		return p.parseDecimalParams()
	}

	// Greedily extend multi-word spellings like TIMESTAMP WITH TIME ZONE.
	words := upper
	for {
		save := p.i
		next := p.word()
		if next == "" {
			break
		}
		extended := words + " " + strings.ToUpper(next)
		if _, ok := leafAliases[extended]; !ok && !isAliasPrefix(extended) {
			p.i = save
			break
		}
		words = extended
	}

	kind, ok := leafAliases[words]
	if !ok {
		return nil, fmt.Errorf("unsupported type name %q", words)
	}

	// Length parameters as in VARCHAR(80) carry no structural meaning here.
	p.skipSpace()
	if kind == String && p.peek() == '(' {
		if err := p.skipParenGroup(); err != nil {
			return nil, err
		}
	}
	return PrimitiveType{Kind: kind}, nil
}

// isAliasPrefix reports whether s is a proper prefix of some multi-word
// alias, so the greedy extension knows to continue past e.g. "TIME WITH".
func isAliasPrefix(s string) bool {
	for alias := range leafAliases {
		if len(alias) > len(s) && strings.HasPrefix(alias, s+" ") {
			return true
		}
	}
	return false
}

func (p *typeParser) parseStructBody() (DataType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	st := &StructType{}
	p.skipSpace()
	if p.peek() == ')' {
		p.i++
		return st, nil
	}
	for {
		name, err := p.parseFieldName()
		if err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		st.Fields = append(st.Fields, Field{Name: name, Type: t, Nullable: true})

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.i++
		case ')':
			p.i++
			return st, nil
		default:
			return nil, fmt.Errorf("expected \",\" or \")\" at offset %d", p.i)
		}
	}
}

func (p *typeParser) parseMapBody() (DataType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	key, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	value, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return &MapType{Key: key, Value: value, ValueContainsNull: true}, nil
}

func (p *typeParser) parseDecimalParams() (DataType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	precision, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	scale, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return DecimalType{Precision: int32(precision), Scale: int32(scale)}, nil
}

func (p *typeParser) parseInt() (int, error) {
	p.skipSpace()
	start := p.i
	for !p.eof() && p.src[p.i] >= '0' && p.src[p.i] <= '9' {
		p.i++
	}
	if start == p.i {
		return 0, fmt.Errorf("expected a number at offset %d", p.i)
	}
	return strconv.Atoi(p.src[start:p.i])
}

func (p *typeParser) parseFieldName() (string, error) {
	p.skipSpace()
	if p.peek() == '"' {
		p.i++
		var b strings.Builder
		for {
			if p.eof() {
				return "", fmt.Errorf("unterminated quoted name at offset %d", p.i)
			}
			c := p.src[p.i]
			p.i++
			if c == '"' {
				if p.peek() == '"' { // doubled quote escapes a quote
					b.WriteByte('"')
					p.i++
					continue
				}
				return b.String(), nil
			}
			b.WriteByte(c)
		}
	}
	name := p.word()
	if name == "" {
		return "", fmt.Errorf("expected a field name at offset %d", p.i)
	}
	return name, nil
}

func (p *typeParser) skipParenGroup() error {
	if err := p.expect('('); err != nil {
		return err
	}
	depth := 1
	for !p.eof() {
		switch p.src[p.i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				p.i++
				return nil
			}
		}
		p.i++
	}
	return fmt.Errorf("unbalanced parentheses at offset %d", p.i)
}
