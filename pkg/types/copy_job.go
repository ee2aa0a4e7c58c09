package types

// CopyJob describes one directory-to-directory copy. It is built for a
// single staging invocation and discarded afterwards.
type CopyJob struct {
	SourceDir string // Directory scanned recursively
	DestDir   string // Directory receiving the mirrored tree
	Extension string // Only files whose name ends with this suffix are copied
}

// StageResult holds the outcome of one staging step.
type StageResult struct {
	Job     CopyJob `json:"job"`
	Copied  int     `json:"copied"`  // Number of files written
	Skipped bool    `json:"skipped"` // True when the source directory was absent
}
