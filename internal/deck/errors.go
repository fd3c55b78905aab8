package deck

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks request validation failures. The pipeline
// refuses to start and the transport maps it to a client error.
var ErrInvalidRequest = errors.New("invalid request")

// Category names a class in the error taxonomy of a run.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryGeneration    Category = "generation"
	CategoryImageFetch    Category = "image_fetch"
	CategoryComposition   Category = "composition"
	CategoryExport        Category = "export"
)

// Error is a categorized pipeline failure. Image-fetch failures are
// absorbed into warnings and normally never surface as an Error; the
// remaining categories make the artifact impossible and abort the run.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewConfigurationError(err error) *Error {
	return &Error{Category: CategoryConfiguration, Err: err}
}

func NewGenerationError(err error) *Error {
	return &Error{Category: CategoryGeneration, Err: err}
}

func NewCompositionError(err error) *Error {
	return &Error{Category: CategoryComposition, Err: err}
}

func NewExportError(err error) *Error {
	return &Error{Category: CategoryExport, Err: err}
}

// CategoryOf extracts the taxonomy category from err, or "" when err is
// not a pipeline Error.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}
