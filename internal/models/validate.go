package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/julianstephens/dailytrack/internal/errors"
)

var validate = validator.New()

// dueAtLayouts are the accepted due date shapes: date-only, minute precision, full RFC3339.
var dueAtLayouts = []string{"2006-01-02", "2006-01-02T15:04", time.RFC3339, time.RFC3339Nano}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", strings.ToLower(fe.Field())))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
		}
	}
	return apperrors.Validation("%s", strings.Join(msgs, "; "))
}

func blankTitle() error {
	return apperrors.Validation("title must not be empty")
}

func validateTimeframe(tf TargetTimeframe) error {
	if tf.Preset == TimeframeCustom && tf.CustomDays == nil {
		return apperrors.Validation("custom timeframe requires a day count")
	}
	return nil
}

// ValidateDueAt accepts nil, a date key, or a datetime string.
func ValidateDueAt(dueAt *string) error {
	if dueAt == nil || *dueAt == "" {
		return nil
	}
	if _, ok := ParseDueAt(*dueAt, time.UTC); !ok {
		return apperrors.Validation("due date %q is not a date or datetime", *dueAt)
	}
	return nil
}

// ParseDueAt parses a stored due date. Layouts without an offset are read in loc.
func ParseDueAt(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dueAtLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
