package result

// Affected is the result of a statement that reports only the affected row count.
type Affected int64

func (r Affected) RowsAffected() (int64, error) {
	return int64(r), nil
}
