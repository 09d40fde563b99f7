package domain

import "math"

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items   []T
	Number  int // 1-based
	PerPage int
	Total   int
}

// NewPage clamps the requested page number to 1 and computes the row offset.
// ok is false when the offset does not fit in an int; such a page lies past
// the end of every listing.
func NewPage[T any](number, perPage int) (_ Page[T], offset int, ok bool) {
	if number < 1 {
		number = 1
	}

	page := Page[T]{Number: number, PerPage: perPage}

	if perPage > 0 && number-1 > math.MaxInt/perPage {
		return page, 0, false
	}

	return page, (number - 1) * perPage, true
}

// Pages returns the number of pages needed for Total items.
func (p Page[T]) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}

	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.Pages() }
func (p Page[T]) PrevNum() int  { return p.Number - 1 }
func (p Page[T]) NextNum() int  { return p.Number + 1 }

// IterPages yields page numbers for a pagination widget. Numbers close to
// the edges and to the current page are included; a 0 marks a gap.
func (p Page[T]) IterPages(leftEdge, leftCurrent, rightCurrent, rightEdge int) []int {
	var (
		pages []int
		last  int
		total = p.Pages()
	)

	for num := 1; num <= total; num++ {
		if num <= leftEdge ||
			(num > p.Number-leftCurrent-1 && num < p.Number+rightCurrent) ||
			num > total-rightEdge {
			if last+1 != num {
				pages = append(pages, 0)
			}

			pages = append(pages, num)
			last = num
		}
	}

	return pages
}
