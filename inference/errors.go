package inference

import "fmt"

// InferenceFailure reports that the inference backend failed. The backend error
// is kept intact and is never retried here.
type InferenceFailure struct {
	Err error
}

func (e *InferenceFailure) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

// Unwrap exposes the backend error to errors.Is and errors.As.
func (e *InferenceFailure) Unwrap() error {
	return e.Err
}

// ConfigurationViolation reports a predictor misconfiguration, such as a label
// table shorter than the model's class count or a non-positive input size.
type ConfigurationViolation struct {
	Field  string
	Reason string
}

func (e *ConfigurationViolation) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func violation(field, format string, args ...any) error {
	return &ConfigurationViolation{Field: field, Reason: fmt.Sprintf(format, args...)}
}
