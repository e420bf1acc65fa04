package content

// Category is the structural subtype of a content node. The numeric values
// are stored in the database and shared with existing installations.
type Category int

const (
	CategoryAny        Category = 0 // selector wildcard, never stored
	CategorySite       Category = 1
	CategoryTranslator Category = 2
	CategoryFolder     Category = 3
	CategoryPage       Category = 4
	CategoryFile       Category = 5
	CategoryTemplate   Category = 6
	CategorySection    Category = 11
	CategoryDocument   Category = 12
	CategoryForum      Category = 13
	CategoryTopic      Category = 14
	CategoryPost       Category = 15
)

func (c Category) String() string {
	if def, ok := categories[c]; ok {
		return def.name
	}
	return "unknown"
}

// categoryDef is the behavior of one category. Hooks are optional. New
// categories register themselves from an init function; call sites dispatch
// through the registry instead of switching on the category value.
type categoryDef struct {
	name string

	// defaults populates the attribute bag of a fresh node
	defaults func(c *Content)

	// validate runs after the generic content checks
	validate func(c *Content) error

	// afterInsert runs once the node and its attributes are stored
	afterInsert func(c *Content, user *User) error

	// afterWrite runs after updates and revision deletions
	afterWrite func(c *Content) error

	// onDelete runs after the node's rows are gone
	onDelete func(c *Content) error
}

var categories = map[Category]*categoryDef{}

func registerCategory(cat Category, def *categoryDef) {
	if _, exists := categories[cat]; exists {
		panic("category registered twice: " + def.name)
	}
	categories[cat] = def
}

func (c *Content) def() *categoryDef {
	return categories[c.category]
}
