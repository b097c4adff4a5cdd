package ports

// RequirementsReader extracts the dependency names a pipeline file declares in its frontmatter.
type RequirementsReader interface {
	ReadRequirements(path string) ([]string, error)
}
