package infra

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Integer interface {
	Signed | Unsigned
}

type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// KeyComparator
// Assume i is the new key.
//  1. i == j (return 0)
//  2. i > j (return 1), turn to right part.
//  3. i < j (return -1), turn to left part.
type KeyComparator[K any] func(i, j K) int64

// OrderedKeyCompare is the natural order of the OrderedKey.
// NaN is treated as less than every other float, so the
// order stays total.
func OrderedKeyCompare[K OrderedKey](i, j K) int64 {
	iNaN, jNaN := i != i, j != j
	switch {
	case iNaN && jNaN:
		return 0
	case iNaN:
		return -1
	case jNaN:
		return 1
	case i < j:
		return -1
	case i > j:
		return 1
	default:
	}
	return 0
}

// ReverseComparator flips the order of cmp.
func ReverseComparator[K any](cmp KeyComparator[K]) KeyComparator[K] {
	if cmp == nil {
		return nil
	}
	return func(i, j K) int64 {
		return cmp(j, i)
	}
}
