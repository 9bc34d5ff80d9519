package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes model errors. Every kind is a structural problem with the
// input document or configuration, never a transient one.
type ErrorKind string

const (
	ReferenceNotFound          ErrorKind = "ReferenceNotFound"
	CycleDetected              ErrorKind = "CycleDetected"
	UnsupportedSchemaConstruct ErrorKind = "UnsupportedSchemaConstruct"
	MissingTypeMapping         ErrorKind = "MissingTypeMapping"
	ConfigValidation           ErrorKind = "ConfigValidation"
	MissingRequiredContent     ErrorKind = "MissingRequiredContent"
)

// Sentinels for errors.Is matching against *Error.
var (
	ErrReferenceNotFound      = errors.New("reference not found")
	ErrCycleDetected          = errors.New("reference cycle detected")
	ErrUnsupportedSchema      = errors.New("unsupported schema construct")
	ErrMissingTypeMapping     = errors.New("missing type mapping")
	ErrConfigValidation       = errors.New("invalid configuration")
	ErrMissingRequiredContent = errors.New("missing required content")
)

var sentinels = map[ErrorKind]error{
	ReferenceNotFound:          ErrReferenceNotFound,
	CycleDetected:              ErrCycleDetected,
	UnsupportedSchemaConstruct: ErrUnsupportedSchema,
	MissingTypeMapping:         ErrMissingTypeMapping,
	ConfigValidation:           ErrConfigValidation,
	MissingRequiredContent:     ErrMissingRequiredContent,
}

// Error is a structured model error.
type Error struct {
	Kind     ErrorKind
	Message  string
	Ref      string   // reference or component name involved, if any
	Chain    []string // component names visited, for cycles
	Key      string   // type table key, for MissingTypeMapping
	Format   string   // format, for MissingTypeMapping
	Location string   // e.g. "get /pets response"
	Cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Location != "" {
		b.WriteString(e.Location)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Chain) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Chain, " -> "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && target == s
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return "", false
}

func refNotFound(ref, msg string) *Error {
	return &Error{Kind: ReferenceNotFound, Ref: ref, Message: fmt.Sprintf("reference %q: %s", ref, msg)}
}

func cycleDetected(chain []string) *Error {
	return &Error{
		Kind:    CycleDetected,
		Ref:     chain[len(chain)-1],
		Chain:   append([]string(nil), chain...),
		Message: fmt.Sprintf("schema %q references itself", chain[len(chain)-1]),
	}
}

func unsupported(name, msg string) *Error {
	if name == "" {
		name = "<root>"
	}
	return &Error{Kind: UnsupportedSchemaConstruct, Ref: name, Message: fmt.Sprintf("schema %q: %s", name, msg)}
}

// NewMissingTypeMapping reports an absent entry in the type table. format is empty
// when the default mapping was requested.
func NewMissingTypeMapping(key, format string) *Error {
	msg := fmt.Sprintf("no type mapping for %q", key)
	if format != "" {
		msg = fmt.Sprintf("no type mapping for %q with format %q", key, format)
	}
	return &Error{Kind: MissingTypeMapping, Key: key, Format: format, Message: msg}
}

// NewConfigValidation reports an invalid configuration detected at load time.
func NewConfigValidation(format string, args ...any) *Error {
	return &Error{Kind: ConfigValidation, Message: fmt.Sprintf(format, args...)}
}

// withLocation returns err annotated with loc when it is an *Error.
func withLocation(err error, loc string) error {
	var me *Error
	if !errors.As(err, &me) {
		return fmt.Errorf("%s: %w", loc, err)
	}
	cp := *me
	cp.Location = loc
	return &cp
}
