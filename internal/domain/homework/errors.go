package homework

import "fmt"

// SchemaError reports a response that does not have the expected shape.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected API response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unexpected API response: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// UnknownStatusError reports a status code outside the known verdicts.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown homework status %q", e.Status)
}
