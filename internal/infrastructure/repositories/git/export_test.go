package git

// BuildBranchPushScript exports buildBranchPushScript for testing.
var BuildBranchPushScript = buildBranchPushScript //nolint:gochecknoglobals // test export

// BuildBranchEnv exports buildBranchEnv for testing.
var BuildBranchEnv = buildBranchEnv //nolint:gochecknoglobals // test export
