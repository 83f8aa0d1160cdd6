package rank

import "errors"

// ErrEmptyBatch is returned when a batch has no document with scoreable text.
var ErrEmptyBatch = errors.New("empty batch: no document has non-empty text")

// ErrDuplicateName is returned when two documents in a batch share a name;
// records and closest peers refer to documents by name.
var ErrDuplicateName = errors.New("duplicate document name")
