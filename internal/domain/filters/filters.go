package filters

import (
	"errors"
	"fmt"
	"strings"
)

const (
	AscSort  = "ASC"
	DescSort = "DESC"
)

var ErrUnknownSortField = errors.New("unknown sort field")

type Filters struct {
	Page         int      `schema:"page" validate:"gte=1,lte=10000000"`
	PageSize     int      `schema:"page_size" validate:"gte=1,lte=100"`
	Sort         string   `schema:"sort"`
	SortSafelist []string `schema:"-"`
}

func New(safelist ...string) Filters {
	return Filters{Page: 1, PageSize: 20, SortSafelist: safelist}
}

// SortColumn returns the safelisted field the listing is sorted by, or an
// empty string when no sort was requested.
func (f *Filters) SortColumn() (string, error) {
	if f.Sort == "" {
		return "", nil
	}
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return strings.ToLower(s), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSortField, f.Sort)
}

func (f *Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return DescSort
	}
	return AscSort
}

func (f *Filters) Limit() int {
	return f.PageSize
}

func (f *Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Window clamps the page window to a collection of n items.
func (f *Filters) Window(n int) (start, end int) {
	start = min(f.Offset(), n)
	end = min(start+f.Limit(), n)
	return start, end
}
