package rpc

import (
	"encoding/json"
	"errors"

	"github.com/cuemby/gcsd/pkg/store"
)

// mustJSON marshals v for the TaskInfo/Stats passthrough handlers. These
// requests are already JSON-shaped by the wire codec; re-marshaling them
// for storage never fails in practice, so a marshal error here indicates a
// type that can't round-trip and is a programmer error, not a runtime one.
func mustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
