// Package arrowconv converts between schema trees and Arrow schemas, for
// handing negotiated schemas to Flight ingestion and the tabular projection
// engine. Field metadata crosses both directions; comments ride in Arrow
// field metadata under the "comment" key.
package arrowconv

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/posthog/lakeschema/schema"
)

const commentMetadataKey = "comment"

// ToArrowSchema converts a schema tree to an Arrow schema.
func ToArrowSchema(st *schema.StructType) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(st.Fields))
	for i, f := range st.Fields {
		af, err := toArrowField(f)
		if err != nil {
			return nil, err
		}
		fields[i] = af
	}
	return arrow.NewSchema(fields, nil), nil
}

func toArrowField(f schema.Field) (arrow.Field, error) {
	t, err := ToArrowType(f.Type)
	if err != nil {
		return arrow.Field{}, fmt.Errorf("field %q: %w", f.Name, err)
	}
	md := f.Metadata
	if f.Comment != "" {
		md = make(map[string]string, len(f.Metadata)+1)
		for k, v := range f.Metadata {
			md[k] = v
		}
		md[commentMetadataKey] = f.Comment
	}
	af := arrow.Field{Name: f.Name, Type: t, Nullable: f.Nullable}
	if len(md) > 0 {
		af.Metadata = arrow.MetadataFrom(md)
	}
	return af, nil
}

// ToArrowType converts one schema node to an Arrow data type.
func ToArrowType(t schema.DataType) (arrow.DataType, error) {
	switch tt := t.(type) {
	case schema.PrimitiveType:
		return leafToArrow(tt.Kind)
	case schema.DecimalType:
		return &arrow.Decimal128Type{Precision: tt.Precision, Scale: tt.Scale}, nil
	case *schema.StructType:
		fields := make([]arrow.Field, len(tt.Fields))
		for i, f := range tt.Fields {
			af, err := toArrowField(f)
			if err != nil {
				return nil, err
			}
			fields[i] = af
		}
		return arrow.StructOf(fields...), nil
	case *schema.ArrayType:
		elem, err := ToArrowType(tt.Elem)
		if err != nil {
			return nil, err
		}
		if tt.ContainsNull {
			return arrow.ListOf(elem), nil
		}
		return arrow.ListOfNonNullable(elem), nil
	case *schema.MapType:
		key, err := ToArrowType(tt.Key)
		if err != nil {
			return nil, err
		}
		value, err := ToArrowType(tt.Value)
		if err != nil {
			return nil, err
		}
		m := arrow.MapOf(key, value)
		m.SetItemNullable(tt.ValueContainsNull)
		return m, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to an arrow type", t)
	}
}

func leafToArrow(k schema.PrimitiveKind) (arrow.DataType, error) {
	switch k {
	case schema.Null:
		return arrow.Null, nil
	case schema.Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case schema.Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case schema.Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case schema.Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case schema.Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case schema.Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case schema.Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case schema.String:
		return arrow.BinaryTypes.String, nil
	case schema.Binary:
		return arrow.BinaryTypes.Binary, nil
	case schema.Date:
		return arrow.FixedWidthTypes.Date32, nil
	case schema.Time:
		return arrow.FixedWidthTypes.Time64us, nil
	case schema.Timestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond}, nil
	case schema.TimestampTZ:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	case schema.Interval:
		return arrow.FixedWidthTypes.MonthDayNanoInterval, nil
	case schema.UUID:
		return &arrow.FixedSizeBinaryType{ByteWidth: 16}, nil
	default:
		return nil, fmt.Errorf("cannot convert primitive kind %s to an arrow type", k)
	}
}

// FromArrowSchema converts an Arrow schema to a schema tree.
func FromArrowSchema(as *arrow.Schema) (*schema.StructType, error) {
	fields := make([]schema.Field, len(as.Fields()))
	for i, af := range as.Fields() {
		f, err := fromArrowField(af)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return &schema.StructType{Fields: fields}, nil
}

func fromArrowField(af arrow.Field) (schema.Field, error) {
	t, err := FromArrowType(af.Type)
	if err != nil {
		return schema.Field{}, fmt.Errorf("field %q: %w", af.Name, err)
	}
	f := schema.Field{Name: af.Name, Type: t, Nullable: af.Nullable}
	if af.Metadata.Len() > 0 {
		keys, values := af.Metadata.Keys(), af.Metadata.Values()
		md := make(map[string]string, len(keys))
		for i, k := range keys {
			md[k] = values[i]
		}
		if c, ok := md[commentMetadataKey]; ok {
			f.Comment = c
			delete(md, commentMetadataKey)
		}
		if len(md) > 0 {
			f.Metadata = md
		}
	}
	return f, nil
}

// FromArrowType converts one Arrow data type to a schema node. Timestamps
// map by time zone: zoned to TIMESTAMPTZ, naive to TIMESTAMP. 16-byte
// fixed-size binaries map to UUID, any other width to BLOB.
func FromArrowType(t arrow.DataType) (schema.DataType, error) {
	switch tt := t.(type) {
	case *arrow.NullType:
		return schema.NullType, nil
	case *arrow.BooleanType:
		return schema.BoolType, nil
	case *arrow.Int8Type:
		return schema.Int8Type, nil
	case *arrow.Int16Type:
		return schema.Int16Type, nil
	case *arrow.Int32Type:
		return schema.Int32Type, nil
	case *arrow.Int64Type:
		return schema.Int64Type, nil
	case *arrow.Float32Type:
		return schema.Float32Type, nil
	case *arrow.Float64Type:
		return schema.Float64Type, nil
	case *arrow.StringType:
		return schema.StringType, nil
	case *arrow.LargeStringType:
		return schema.StringType, nil
	case *arrow.BinaryType:
		return schema.BinaryType, nil
	case *arrow.LargeBinaryType:
		return schema.BinaryType, nil
	case *arrow.Date32Type:
		return schema.DateType, nil
	case *arrow.Date64Type:
		return schema.DateType, nil
	case *arrow.Time32Type:
		return schema.TimeType, nil
	case *arrow.Time64Type:
		return schema.TimeType, nil
	case *arrow.TimestampType:
		if tt.TimeZone != "" {
			return schema.TimestampTZType, nil
		}
		return schema.TimestampType, nil
	case *arrow.MonthIntervalType:
		return schema.IntervalType, nil
	case *arrow.DayTimeIntervalType:
		return schema.IntervalType, nil
	case *arrow.MonthDayNanoIntervalType:
		return schema.IntervalType, nil
	case *arrow.FixedSizeBinaryType:
		if tt.ByteWidth == 16 {
			return schema.UUIDType, nil
		}
		return schema.BinaryType, nil
	case *arrow.Decimal128Type:
		return schema.Decimal(tt.Precision, tt.Scale), nil
	case *arrow.StructType:
		fields := make([]schema.Field, tt.NumFields())
		for i := 0; i < tt.NumFields(); i++ {
			f, err := fromArrowField(tt.Field(i))
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return &schema.StructType{Fields: fields}, nil
	case *arrow.ListType:
		elem, err := FromArrowType(tt.Elem())
		if err != nil {
			return nil, err
		}
		return &schema.ArrayType{Elem: elem, ContainsNull: tt.ElemField().Nullable}, nil
	case *arrow.MapType:
		key, err := FromArrowType(tt.KeyType())
		if err != nil {
			return nil, err
		}
		value, err := FromArrowType(tt.ItemType())
		if err != nil {
			return nil, err
		}
		return &schema.MapType{Key: key, Value: value, ValueContainsNull: tt.ItemField().Nullable}, nil
	default:
		return nil, fmt.Errorf("unsupported arrow type %s", t)
	}
}
