package homework

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

const messageTemplate = "Изменился статус проверки работы \"%s\". %s"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their API key rather than the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ExtractSubmissions checks the top-level shape of a status response and
// returns its homeworks sequence unchanged. An empty sequence is valid.
func ExtractSubmissions(response any) ([]any, error) {
	body, ok := response.(map[string]any)
	if !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("response is %T, want object", response)}
	}

	for _, key := range []string{KeyHomeworks, KeyCurrentDate} {
		if _, ok := body[key]; !ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("missing key %q", key)}
		}
	}

	homeworks, ok := body[KeyHomeworks].([]any)
	if !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("%q is %T, want array", KeyHomeworks, body[KeyHomeworks])}
	}
	return homeworks, nil
}

// ParseSubmission converts one raw homeworks item into a validated Submission.
func ParseSubmission(raw any) (Submission, error) {
	item, ok := raw.(map[string]any)
	if !ok {
		return Submission{}, &SchemaError{Reason: fmt.Sprintf("homework is %T, want object", raw)}
	}

	name, err := stringField(item, KeyHomeworkName)
	if err != nil {
		return Submission{}, err
	}
	status, err := stringField(item, KeyStatus)
	if err != nil {
		return Submission{}, err
	}

	// Presence is checked above; an empty but present value is not missing.

	sub := Submission{Name: name, Status: Status(status)}
	if err := validate.Struct(sub); err != nil {
		return Submission{}, translateValidationError(sub, err)
	}
	return sub, nil
}

// DeriveStatusMessage builds the notification text for a raw homeworks item.
func DeriveStatusMessage(raw any) (string, error) {
	sub, err := ParseSubmission(raw)
	if err != nil {
		return "", err
	}
	verdict, ok := Verdict(sub.Status)
	if !ok {
		return "", &UnknownStatusError{Status: string(sub.Status)}
	}
	return fmt.Sprintf(messageTemplate, sub.Name, verdict), nil
}

func stringField(item map[string]any, key string) (string, error) {
	value, ok := item[key]
	if !ok {
		return "", &SchemaError{Reason: fmt.Sprintf("missing key %q", key)}
	}
	s, ok := value.(string)
	if !ok {
		return "", &SchemaError{Reason: fmt.Sprintf("%q is %T, want string", key, value)}
	}
	return s, nil
}

func translateValidationError(sub Submission, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &SchemaError{Reason: "invalid homework", Err: err}
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "oneof":
		return &UnknownStatusError{Status: string(sub.Status)}
	default:
		return &SchemaError{Reason: fmt.Sprintf("invalid %q", fe.Field()), Err: err}
	}
}
