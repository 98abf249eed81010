package absint

// Lattice describes a join semilattice with a least element.
type Lattice[T any] interface {
	Bottom() T
	Join(a, b T) T
	Equal(a, b T) bool
}

// JoinAll folds Join over xs starting from Bottom.
func JoinAll[T any](l Lattice[T], xs ...T) T {
	acc := l.Bottom()
	for _, x := range xs {
		acc = l.Join(acc, x)
	}
	return acc
}
