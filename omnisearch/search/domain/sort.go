package search

// Order sorts by a property path such as "name" or "address.city".
type Order struct {
	Property  string
	Ascending bool
}

func Asc(property string) Order {
	return Order{Property: property, Ascending: true}
}

func Desc(property string) Order {
	return Order{Property: property}
}

// Sort is applied in order; the first entry is the primary key. An empty Sort
// leaves the order to the backend.
type Sort []Order

func By(orders ...Order) Sort {
	return Sort(orders)
}

func (s Sort) IsSorted() bool {
	return len(s) > 0
}
