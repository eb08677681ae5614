package commands

// Traverse exports traverse for testing.
var Traverse = traverse //nolint:gochecknoglobals // test export

// MergeEnv exports mergeEnv for testing.
var MergeEnv = mergeEnv //nolint:gochecknoglobals // test export

// Memo exports memo for testing.
type Memo = memo

// NewMemo exports newMemo for testing.
func NewMemo() *Memo { return newMemo() }

