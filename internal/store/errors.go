package store

import (
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

// Sentinel errors. They carry domain codes, so errors.Is also matches the
// corresponding domain sentinel (store.ErrNotFound matches errors.ErrNotFound).
var (
	ErrNotFound      = &domainerrors.Error{Code: domainerrors.CodeNotFound, Message: "resource not found"}
	ErrAlreadyExists = &domainerrors.Error{Code: domainerrors.CodeConflict, Message: "resource already exists"}
	ErrInvalidInput  = &domainerrors.Error{Code: domainerrors.CodeValidation, Message: "invalid input"}
)
