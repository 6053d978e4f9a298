package conproxy

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FieldType roughly mirrors zapcore.FieldType.
type FieldType uint8

const (
	UnknownType FieldType = iota
	StringType
	Int64Type
	Float64Type
	BoolType
	ErrorType
	AnyType
)

// Field is a structured key-value pair. Passing a Field as a console argument
// attaches it to the sink's log entry instead of the message text.
//
//	conproxy.Info("user logged in", conproxy.Int("user_id", 42))
type Field struct {
	Key       string
	Type      FieldType
	Integer   int64
	StringVal string
	Float     float64
	Interface any
}

// F is a convenience constructor for Field. It detects the type.
func F(key string, value any) Field {
	switch v := value.(type) {
	case string:
		return String(key, v)
	case int:
		return Int(key, v)
	case int64:
		return Int64(key, v)
	case float64:
		return Float64(key, v)
	case bool:
		return Bool(key, v)
	case error:
		return Err(v)
	default:
		return Field{Key: key, Type: AnyType, Interface: value}
	}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Type: StringType, StringVal: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Type: Int64Type, Integer: int64(value)}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Type: Int64Type, Integer: value}
}

// Float64 creates a float64 field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Type: Float64Type, Float: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	var i int64
	if value {
		i = 1
	}
	return Field{Key: key, Type: BoolType, Integer: i}
}

// Err creates an error field with the standard key "error".
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Type: AnyType, Interface: nil}
	}
	return Field{Key: "error", Type: ErrorType, Interface: err}
}

func (f Field) toZap() zap.Field {
	switch f.Type {
	case StringType:
		return zap.String(f.Key, f.StringVal)
	case Int64Type:
		return zap.Int64(f.Key, f.Integer)
	case Float64Type:
		return zap.Float64(f.Key, f.Float)
	case BoolType:
		return zap.Bool(f.Key, f.Integer == 1)
	case ErrorType:
		if err, ok := f.Interface.(error); ok {
			return zap.Error(err)
		}
		return zap.Any(f.Key, f.Interface)
	default:
		return zap.Any(f.Key, f.Interface)
	}
}

// entry is a console call split into message text, structured fields and an
// optional context.
type entry struct {
	msg    string
	fields []zap.Field
	ctx    context.Context
}

// splitArgs separates Field and context.Context arguments from the values that
// make up the message. Message values are joined with single spaces.
func splitArgs(args []any) entry {
	var e entry
	parts := make([]string, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case Field:
			e.fields = append(e.fields, v.toZap())
		case context.Context:
			if e.ctx == nil {
				e.ctx = v
			}
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	e.msg = strings.Join(parts, " ")
	if e.ctx != nil {
		e.fields = append(e.fields, contextZapFields(e.ctx)...)
	}
	return e
}
