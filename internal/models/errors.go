package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("record not found")
	ErrRecordLocked          = errors.New("record is locked")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrInvalidSuperuserFlags = errors.New("superuser must have is_staff=true and is_superuser=true")
	ErrInvalidCredentials    = errors.New("invalid email or password")
)

// StorageError оборачивает сбой хранилища записей или файлов, не ставший
// доменной ошибкой. Повторять ли, решает вызывающий.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
