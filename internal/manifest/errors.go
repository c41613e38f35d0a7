package manifest

import "errors"

var (
	ErrInvalidDocument = errors.New("invalid manifest document")
	ErrUnknownAction   = errors.New("unknown action annotation")
)
