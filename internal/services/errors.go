package services

import (
	"errors"

	"fintrack/internal/core"
)

// storageErr passes typed domain errors through and classifies anything
// else as a storage failure.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *core.Error
	if errors.As(err, &de) {
		return err
	}
	return core.StorageFailure(op, err)
}
