package engine

// Ring is the immutable cyclic seating order over player indices 0..n-1.
type Ring struct {
	n uint8
}

// NewRing builds a ring over n players.
func NewRing(n uint8) Ring { return Ring{n: n} }

// Len returns the number of seats.
func (r Ring) Len() uint8 { return r.n }

// Next returns the player after p, wrapping from last to first.
func (r Ring) Next(p uint8) uint8 {
	return (p + 1) % r.n
}

// Between returns the players strictly between from and to, walking
// forward from from. When from == to the walk covers the whole table,
// returning every other player: a guess nobody disproved passed through
// every seat.
func (r Ring) Between(from, to uint8) []uint8 {
	var out []uint8
	for p := r.Next(from); p != to; p = r.Next(p) {
		out = append(out, p)
	}
	return out
}
