package service

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is an offset/limit window over a listing
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps the window to sane bounds
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}
