package pagination

const (
	// DefaultTake is the standard page size when take is not provided.
	DefaultTake = 10
	// MaxTake caps how many rows any listing query can request.
	MaxTake = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Skip int
	Take int
}

// Normalize clamps the parameters to the configured bounds.
func (p Params) Normalize() Params {
	out := p
	if out.Skip < 0 {
		out.Skip = 0
	}
	if out.Take <= 0 {
		out.Take = DefaultTake
	}
	if out.Take > MaxTake {
		out.Take = MaxTake
	}
	return out
}
