package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/swagger2tmpl/internal/model"
	"github.com/mark3labs/swagger2tmpl/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg   string
	cause error
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

// wrapUsage keeps cause reachable through errors.Is and errors.As.
func wrapUsage(msg string, cause error) error {
	return usageError{msg: msg, cause: cause}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

func (e usageError) Unwrap() error {
	return e.cause
}

// friendlyError maps document and model errors into messages that point at the
// offending input.
func friendlyError(err error) error {
	var se *spec.SpecError
	if errors.As(err, &se) {
		msg := se.Message
		if !strings.HasPrefix(msg, "spec: ") {
			msg = "spec: " + msg
		}
		if se.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
		}
		if se.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
		}
		return wrapUsage(msg, err)
	}
	var me *model.Error
	if errors.As(err, &me) {
		switch me.Kind {
		case model.ConfigValidation:
			return wrapUsage(fmt.Sprintf("config: %v", err), err)
		case model.MissingTypeMapping:
			return wrapUsage(fmt.Sprintf("%v\nHint: add the key to types in the config file.", err), err)
		case model.UnsupportedSchemaConstruct, model.ReferenceNotFound, model.CycleDetected:
			return wrapUsage(fmt.Sprintf("%v\nHint: --allow-partial skips schemas that cannot be modeled.", err), err)
		case model.MissingRequiredContent:
			return wrapUsage(fmt.Sprintf("%v\nHint: without --strict-content bodies lacking JSON are skipped.", err), err)
		}
		return wrapUsage(err.Error(), err)
	}
	return err
}
