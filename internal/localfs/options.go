package localfs

// ExpandOptions configures Expand.
type ExpandOptions struct {
	// IncludeHidden includes hidden files and directories found while
	// expanding a directory. Paths named explicitly are always included.
	IncludeHidden bool
}
