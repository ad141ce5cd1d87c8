package search

import (
	"database/sql/driver"
	"strconv"

	"github.com/pkg/errors"
)

// Year is a calendar year value.
type Year int

func ParseYear(s string) (Year, error) {
	if !yearPattern.MatchString(s) {
		return 0, errors.Errorf("invalid year %q", s)
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid year %q", s)
	}
	return Year(y), nil
}

func (y Year) String() string {
	return strconv.Itoa(int(y))
}

func (y Year) Value() (driver.Value, error) {
	return int64(y), nil
}

func (y *Year) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*y = Year(v)
	case int32:
		*y = Year(v)
	case []byte:
		return y.parse(string(v))
	case string:
		return y.parse(v)
	default:
		return errors.Errorf("unable to scan %T into a year", src)
	}
	return nil
}

func (y *Year) parse(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrapf(err, "invalid year %q", s)
	}
	*y = Year(v)
	return nil
}

// Enum is implemented by enumeration types. Constants lists every value of the
// type; it is called on any value, including the zero one.
type Enum interface {
	Name() string
	Constants() []Enum
}

// Candidate is optionally implemented by enumeration constants that recognize
// search tokens other than their own name, e.g. aliases.
type Candidate interface {
	IsCandidate(token string) bool
}
