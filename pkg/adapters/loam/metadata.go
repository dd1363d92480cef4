package loam

// TemplateMetadata is the frontmatter of a template document.
// The document body holds the layout itself.
type TemplateMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
	Algorithm   string `json:"algorithm" mapstructure:"algorithm"`
}
