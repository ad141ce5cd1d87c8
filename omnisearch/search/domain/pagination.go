package search

// Pagination selects a zero-based page. The zero value fetches everything.
type Pagination struct {
	number  int
	size    int
	present bool
}

func Paginate(number, size int) Pagination {
	return Pagination{number: number, size: size, present: true}
}

func Unpaginated() Pagination {
	return Pagination{}
}

// PaginationOf builds a pagination from optional request values. It is active only
// when both are given.
func PaginationOf(number, size *int) Pagination {
	if number == nil || size == nil {
		return Unpaginated()
	}
	return Paginate(*number, *size)
}

// IsPaginated reports whether the pagination limits the result: both values are
// present, the size is positive and the number is not negative.
func (p Pagination) IsPaginated() bool {
	return p.present && p.size > 0 && p.number >= 0
}

func (p Pagination) Number() int {
	return p.number
}

func (p Pagination) Size() int {
	return p.size
}

// Offset is the number of leading records to skip. It panics with ErrNotPaginated
// when the pagination is not active; check IsPaginated first.
func (p Pagination) Offset() int {
	if !p.IsPaginated() {
		panic(ErrNotPaginated)
	}
	return p.number * p.size
}
