package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxTextLen is the upper bound on the optional text field. Longer text is
// rejected, never truncated.
const MaxTextLen = 4096

// ErrMalformedJSON is returned when the request body is not parseable JSON at
// all. Parseable JSON with the wrong shape yields a *SchemaError instead.
var ErrMalformedJSON = errors.New("invalid JSON")

// SchemaError reports a payload that parsed as JSON but violates the message
// schema. Reason is human-readable and safe to return to the caller.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return e.Reason }

// Payload is the validated webhook body. TS keeps the exact string the sender
// supplied; it is never reformatted.
type Payload struct {
	MessageID  string  `json:"message_id" validate:"required"`
	FromMSISDN string  `json:"from_msisdn" validate:"required,msisdn"`
	ToMSISDN   string  `json:"to_msisdn" validate:"required,msisdn"`
	TS         string  `json:"ts" validate:"required,utcts"`
	Text       *string `json:"text" validate:"omitempty,max=4096"`
}

var msisdnPattern = regexp.MustCompile(`^\+?\d{1,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report json field names in validation errors, not Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return msisdnPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("utcts", func(fl validator.FieldLevel) bool {
		return isUTCTimestamp(fl.Field().String())
	})

	return v
}

// isUTCTimestamp accepts ISO-8601 UTC instants with a literal Z suffix, e.g.
// 2024-01-01T10:00:00Z or with fractional seconds.
func isUTCTimestamp(v string) bool {
	if !strings.HasSuffix(v, "Z") {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, v)
	return err == nil
}

// ParsePayload parses and validates a raw webhook body. It is total and
// side-effect-free: unparseable bytes yield ErrMalformedJSON, schema
// violations yield a *SchemaError with the offending field, and valid input
// yields the normalized payload.
func ParsePayload(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				return nil, &SchemaError{Reason: "payload must be a JSON object"}
			}
			return nil, &SchemaError{Reason: fmt.Sprintf("%s must be a string", field)}
		}
		return nil, ErrMalformedJSON
	}

	if err := validate.Struct(&p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, &SchemaError{Reason: reasonFor(fieldErrs[0])}
		}
		return nil, &SchemaError{Reason: err.Error()}
	}

	return &p, nil
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "msisdn":
		return fmt.Sprintf(`%s must match ^\+?\d{1,15}$`, fe.Field())
	case "utcts":
		return fmt.Sprintf("%s must be an ISO-8601 UTC timestamp ending in Z", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
