package asn1core

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

type ErrorType int

const (
	SyntaxError        ErrorType = iota // eg the framing is wrong or a class/tag is wrong
	StructuralError                     // eg the value did not match the schema
	ImplmentationError                  // eg a feature is not implemented
	FutureImplementationError
	PanicError // eg a panic occurred
)

func (t ErrorType) String() string {
	switch t {
	case SyntaxError:
		return "syntax"
	case StructuralError:
		return "structural"
	case ImplmentationError, FutureImplementationError:
		return "implementation"
	case PanicError:
		return "panic"
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

type Error interface {
	error
	Type() ErrorType
}

// Kinds of schema, encode and decode failures. Each typed error below
// matches its kind with errors.Is.
var (
	ErrUndefinedType           = errors.New("undefined type")
	ErrDuplicateAlternativeTag = errors.New("duplicate alternative tag")
	ErrAmbiguousOptional       = errors.New("ambiguous optional field")
	ErrDuplicateSetTag         = errors.New("duplicate set member tag")
	ErrInvalidSchema           = errors.New("invalid schema")
	ErrMissingRequiredField    = errors.New("missing required field")
	ErrOutOfRange              = errors.New("value out of range")
	ErrInvalidValue            = errors.New("invalid value")
	ErrUnknownAlternative      = errors.New("unknown alternative")
	ErrTagMismatch             = errors.New("tag mismatch")
	ErrTruncatedInput          = errors.New("truncated input")
	ErrInvalidLength           = errors.New("invalid length")
	ErrUnexpectedElement       = errors.New("unexpected element")
	ErrNestingTooDeep          = errors.New("nesting too deep")
)

// SchemaError reports a malformed or unresolvable schema. It is fatal for
// the type it names; retrying yields the same error.
type SchemaError struct {
	TypeName string
	Field    string
	Kind     error
	cause    error
}

func NewSchemaError(kind error, typeName string, format string, args ...any) *SchemaError {
	return &SchemaError{
		TypeName: typeName,
		Kind:     kind,
		cause:    fmt.Errorf(format, args...),
	}
}

func (e *SchemaError) InField(field string) *SchemaError {
	e.Field = field
	return e
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("asn1: schema ")
	sb.WriteString(e.TypeName)
	if e.Field != "" {
		sb.WriteString(".")
		sb.WriteString(e.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Kind.Error())
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func (e *SchemaError) Is(target error) bool {
	return target == e.Kind
}

func (e *SchemaError) Unwrap() error {
	return e.cause
}

func (e *SchemaError) Type() ErrorType {
	return StructuralError
}

// EncodeError reports a value that cannot be encoded with its schema. Any
// partially written output must be discarded.
type EncodeError struct {
	Path  string
	Field string
	Kind  error
	cause error
}

func NewEncodeError(kind error, path string, format string, args ...any) *EncodeError {
	return &EncodeError{
		Path:  path,
		Kind:  kind,
		cause: fmt.Errorf(format, args...),
	}
}

func (e *EncodeError) WithField(field string) *EncodeError {
	e.Field = field
	return e
}

func (e *EncodeError) WithCause(cause error) *EncodeError {
	e.cause = cause
	return e
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("asn1: encode %s: %s", e.Path, e.Kind.Error())
	if e.Field != "" {
		msg += fmt.Sprintf(" %q", e.Field)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *EncodeError) Is(target error) bool {
	return target == e.Kind
}

func (e *EncodeError) Unwrap() error {
	return e.cause
}

func (e *EncodeError) Type() ErrorType {
	return StructuralError
}

// DecodeError reports where and why a decode failed. Expected and Found are
// set when the failure is about a tag.
type DecodeError struct {
	Offset   int
	Path     string
	Field    string
	Kind     error
	Expected *TagDescriptor
	Found    *TagDescriptor
	cause    error
}

func NewDecodeError(kind error, offset int, path string) *DecodeError {
	return &DecodeError{
		Offset: offset,
		Path:   path,
		Kind:   kind,
	}
}

func (e *DecodeError) WithField(field string) *DecodeError {
	e.Field = field
	return e
}

func (e *DecodeError) WithTags(expected *TagDescriptor, found *TagDescriptor) *DecodeError {
	e.Expected = expected
	e.Found = found
	return e
}

func (e *DecodeError) WithCause(cause error) *DecodeError {
	e.cause = cause
	return e
}

func (e *DecodeError) Withf(format string, args ...any) *DecodeError {
	e.cause = fmt.Errorf(format, args...)
	return e
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "asn1: decode %s at offset %d: %s", e.Path, e.Offset, e.Kind.Error())
	if e.Field != "" {
		fmt.Fprintf(&sb, " %q", e.Field)
	}
	if e.Expected != nil || e.Found != nil {
		fmt.Fprintf(&sb, ": expected=%s, found=%s", tagOrNone(e.Expected), tagOrNone(e.Found))
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func tagOrNone(td *TagDescriptor) string {
	if td == nil {
		return "none"
	}
	return td.String()
}

func (e *DecodeError) Is(target error) bool {
	return target == e.Kind
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

func (e *DecodeError) Type() ErrorType {
	switch e.Kind {
	case ErrMissingRequiredField, ErrUnknownAlternative, ErrUnexpectedElement:
		return StructuralError
	}
	return SyntaxError
}

type UnexpectedError[T any] struct {
	inner            error
	units            string
	errorType        ErrorType
	expected, actual T
}

func (e *UnexpectedError[T]) Error() string {
	if e.units == "" {
		return fmt.Sprintf("%s: expected=%v, actual=%v", e.inner.Error(), e.expected, e.actual)
	}
	return fmt.Sprintf("%s: expected=%v %s, actual=%v %s", e.inner.Error(), e.expected, e.units, e.actual, e.units)
}

func (e *UnexpectedError[T]) Unwrap() error {
	return e.inner
}

func (e *UnexpectedError[T]) WithUnits(units string) *UnexpectedError[T] {
	e.units = units
	return e
}

func (e *UnexpectedError[T]) Type() ErrorType {
	return e.errorType
}

func (e *UnexpectedError[T]) WithType(errorType ErrorType) *UnexpectedError[T] {
	e.errorType = errorType
	return e
}

func NewUnexpectedError[T any](expected, actual T, format string, args ...any) *UnexpectedError[T] {
	return &UnexpectedError[T]{
		inner:    fmt.Errorf(format, args...),
		expected: expected,
		actual:   actual,
	}
}

func NewUnimplementedError(format string, args ...any) *GeneralError {
	return NewErrorf("asn1: not implemented "+format, args...).WithType(ImplmentationError)
}

type GeneralError struct {
	inner error
	cause error
	eType ErrorType
	Stack string
}

func NewErrorf(format string, args ...any) *GeneralError {
	return &GeneralError{
		inner: fmt.Errorf(format, args...),
	}
}

func (e *GeneralError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.inner.Error(), e.cause.Error())
	}
	return e.inner.Error()
}

func (e *GeneralError) Type() ErrorType {
	return e.eType
}

func (e *GeneralError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.inner, e.cause}
	}
	return []error{e.inner}
}

func (e *GeneralError) WithType(eType ErrorType) *GeneralError {
	e.eType = eType
	return e
}

func (e *GeneralError) WithCause(cause error) *GeneralError {
	e.cause = cause
	return e
}

func (e *GeneralError) WithStack() *GeneralError {
	e.Stack = string(debug.Stack())
	return e
}

type ErrorList []error

func (el ErrorList) Error() string {
	if len(el) == 0 {
		return ""
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	var s string
	for i, e := range el {
		if i > 0 {
			s += "; "
		}
		s += e.Error()
	}
	return s
}

func (el ErrorList) Unwrap() []error {
	return el
}

// OrNil returns nil for an empty list so callers can return it directly.
func (el ErrorList) OrNil() error {
	if len(el) == 0 {
		return nil
	}
	return el
}
