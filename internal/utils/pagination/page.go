package pagination

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Page is one page of an offset-paginated, deterministically ordered list.
// Page numbers start at 1.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	Size    int   `json:"size"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
}

// Normalize clamps page to >= 1 and size to 1..MaxSize (DefaultSize when unset).
func Normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return page, size
}

// Offset is the number of rows skipped before page.
func Offset(page, size int) int {
	return (page - 1) * size
}

// NewPage assembles a page and computes HasNext from total.
func NewPage[T any](items []T, page, size int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Page:    page,
		Size:    size,
		Total:   total,
		HasNext: int64(Offset(page, size)+len(items)) < total,
	}
}
