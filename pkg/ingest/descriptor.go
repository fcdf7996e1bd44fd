package ingest

// Descriptor identifies a source and how to read it. It is a value type and
// is not modified once resolved.
type Descriptor struct {
	Path      string
	Format    Format
	HasHeader bool   // text-tabular only
	Column    string // typed-columnar only; empty selects the first column
}

// NewDescriptor resolves the format of path from its suffix.
func NewDescriptor(path string, hasHeader bool, column string) Descriptor {
	return Descriptor{
		Path:      path,
		Format:    DetectFormat(path),
		HasHeader: hasHeader,
		Column:    column,
	}
}
