package tablesync

// DataSource is what a list or grid view reads its contents from.
type DataSource[Item any] interface {
	Item(at Position) Item
	NumberOfItems(section int) int
	NumberOfSections() int
	// TitleForHeader returns the header title of the section, if it has one.
	TitleForHeader(section int) (string, bool)
}

type Section[T any] struct {
	Title string
	Items []T
}

func (s Section[T]) Len() int {
	return len(s.Items)
}
