package catalog

import (
	"errors"
	"fmt"

	"shopfront/internal/assets"
	"shopfront/internal/store"
)

// Kind classifies a catalog failure for the transport layer.
type Kind int

const (
	// KindStore is an unclassified persistence failure.
	KindStore Kind = iota
	// KindValidation is bad caller input; nothing was changed.
	KindValidation
	// KindConflict is a uniqueness or reference constraint.
	KindConflict
	// KindProcessing is an asset pipeline failure after validation.
	KindProcessing
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindProcessing:
		return "processing"
	default:
		return "store"
	}
}

// Error is returned by every Service operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindStore for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// fromStore classifies a store error. The message is passed through as is.
func fromStore(err error) *Error {
	kind := KindStore
	switch {
	case errors.Is(err, store.ErrDuplicateName), errors.Is(err, store.ErrCategoryInUse):
		kind = KindConflict
	case errors.Is(err, store.ErrUnknownCategory):
		kind = KindValidation
	}
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// fromAssets classifies an asset pipeline error.
func fromAssets(err error) *Error {
	var ve *assets.ValidationError
	if errors.As(err, &ve) {
		return &Error{Kind: KindValidation, Message: ve.Msg, Err: err}
	}
	return &Error{Kind: KindProcessing, Message: err.Error(), Err: err}
}
