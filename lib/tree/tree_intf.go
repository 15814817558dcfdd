package tree

import (
	"github.com/benz9527/xavl/lib/infra"
)

type AVLDirection int8

const (
	Left AVLDirection = -1 + iota
	Root
	Right
)

// DuplicatePolicy decides what Insert does with a key that
// compares equal to a stored one.
type DuplicatePolicy uint8

const (
	// DuplicateIgnore keeps the stored key, no structural change.
	DuplicateIgnore DuplicatePolicy = iota
	// DuplicateReject returns ErrDuplicateKey.
	DuplicateReject
	// DuplicateReplace swaps the stored key with the new one.
	DuplicateReplace
)

type AVLNode[K any] interface {
	Key() K
	Height() int
	Balance() int
	Left() AVLNode[K]
	Right() AVLNode[K]
}

type AVLTree[K any] interface {
	Len() int64
	Height() int
	Root() AVLNode[K]
	Comparator() infra.KeyComparator[K]
	Insert(key K) error
	Remove(key K) (K, error)
	Get(key K) (K, error)
	Contains(key K) (bool, error)
	Depth(key K) (int, error)
	Min() (K, error)
	Max() (K, error)
	Preorder() []K
	Inorder() []K
	Postorder() []K
	Levelorder() []K
	Foreach(action func(idx int64, key K) bool)
	Clear()
}
