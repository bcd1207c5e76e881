package app

import (
	"errors"
	"fmt"
)

// ErrNoSelection is returned by actions that apply to the selection when
// nothing is selected.
var ErrNoSelection = errors.New("nothing selected")

// StoreError is a failed store read or write. The tree keeps its last good
// state.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// BridgeError is a failed transfer to or from outside the application.
type BridgeError struct {
	Op  string
	Err error
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BridgeError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
