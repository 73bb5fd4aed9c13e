package constants

// CategoryUncategorized is the sentinel category assigned to every extracted
// candidate; human review moves transactions out of it.
const CategoryUncategorized = "Uncategorized"

// DefaultCategories seeds a fresh store. The sentinel must always be present.
func DefaultCategories() []string {
	return []string{
		"Recurring",
		"Home",
		"Utilities",
		"Transport",
		"Food",
		"Health",
		"Entertainment",
		CategoryUncategorized,
	}
}
