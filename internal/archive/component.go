package archive

// ComponentType is a plugin capability category. Its value is also the
// directory name inside the documentation root and the mount path in the
// navigation tree.
type ComponentType string

const (
	Builders       ComponentType = "builders"
	Provisioners   ComponentType = "provisioners"
	PostProcessors ComponentType = "post-processors"
	DataSources    ComponentType = "datasources"
)

// ComponentTypes lists every type in canonical order.
var ComponentTypes = []ComponentType{Builders, Provisioners, PostProcessors, DataSources}

var componentTitles = map[ComponentType]string{
	Builders:       "Builders",
	Provisioners:   "Provisioners",
	PostProcessors: "Post-Processors",
	DataSources:    "Data Sources",
}

// Title is the display title of the type.
func (c ComponentType) Title() string {
	return componentTitles[c]
}

// IsComponentType reports whether s names a known component type.
func IsComponentType(s string) bool {
	_, ok := componentTitles[ComponentType(s)]
	return ok
}
