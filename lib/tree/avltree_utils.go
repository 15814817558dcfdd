package tree

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/multierr"

	"github.com/benz9527/xavl/lib/infra"
)

// avltree rule validation utilities.

var (
	ErrOrderViolation   = errors.New("avltree order violation")
	ErrHeightViolation  = errors.New("avltree height violation")
	ErrBalanceViolation = errors.New("avltree balance violation")
	ErrSizeViolation    = errors.New("avltree size violation")
)

// Inorder traversal to validate the keys are strictly ascending
// under the tree comparator.
func OrderViolationValidate[K any](tree AVLTree[K]) error {
	cmp := tree.Comparator()
	var (
		prev K
		err  error
	)
	tree.Foreach(func(idx int64, key K) bool {
		if idx > 0 && cmp(prev, key) >= 0 {
			err = infra.WrapErrorStackWithMessage(ErrOrderViolation,
				fmt.Sprintf("key %v at index %d is not greater than %v", key, idx, prev))
			return false
		}
		prev = key
		return true
	})
	return err
}

// Postorder traversal, the cached heights must match the real ones.
func HeightViolationValidate[K any](tree AVLTree[K]) error {
	var err error
	var walk func(node AVLNode[K]) int
	walk = func(node AVLNode[K]) int {
		if node == nil {
			return -1
		}
		h := 1 + max(walk(node.Left()), walk(node.Right()))
		if h != node.Height() {
			err = multierr.Append(err, infra.WrapErrorStackWithMessage(ErrHeightViolation,
				fmt.Sprintf("key %v cached height %d, actual %d", node.Key(), node.Height(), h)))
		}
		return h
	}
	if actual := walk(tree.Root()); actual != tree.Height() {
		err = multierr.Append(err, infra.WrapErrorStackWithMessage(ErrHeightViolation,
			fmt.Sprintf("tree height %d, actual %d", tree.Height(), actual)))
	}
	return err
}

func subtreeHeight[K any](node AVLNode[K]) int {
	if node == nil {
		return -1
	}
	return node.Height()
}

// Preorder traversal, every balance factor is left height minus
// right height and lies in [-1, 1].
func BalanceViolationValidate[K any](tree AVLTree[K]) error {
	var err error
	var walk func(node AVLNode[K])
	walk = func(node AVLNode[K]) {
		if node == nil {
			return
		}
		l, r := node.Left(), node.Right()
		if b := subtreeHeight(l) - subtreeHeight(r); b != node.Balance() {
			err = multierr.Append(err, infra.WrapErrorStackWithMessage(ErrBalanceViolation,
				fmt.Sprintf("key %v cached balance %d, actual %d", node.Key(), node.Balance(), b)))
		} else if b < -1 || b > 1 {
			err = multierr.Append(err, infra.WrapErrorStackWithMessage(ErrBalanceViolation,
				fmt.Sprintf("key %v unbalanced %d", node.Key(), b)))
		}
		walk(l)
		walk(r)
	}
	walk(tree.Root())
	return err
}

func SizeViolationValidate[K any](tree AVLTree[K]) error {
	var walk func(node AVLNode[K]) int64
	walk = func(node AVLNode[K]) int64 {
		if node == nil {
			return 0
		}
		return 1 + walk(node.Left()) + walk(node.Right())
	}
	if n := walk(tree.Root()); n != tree.Len() {
		return infra.WrapErrorStackWithMessage(ErrSizeViolation,
			fmt.Sprintf("len %d, reachable nodes %d", tree.Len(), n))
	}
	return nil
}

// AVLViolationValidate combines all the violations found.
func AVLViolationValidate[K any](tree AVLTree[K]) error {
	return multierr.Combine(
		OrderViolationValidate[K](tree),
		HeightViolationValidate[K](tree),
		BalanceViolationValidate[K](tree),
		SizeViolationValidate[K](tree),
	)
}

/*
Dump prints the tree sideways, the right subtree above the node and
the left one below. Each node as "key (height, balance)".

	       /------+ 83 (0,+0)
	|------+ 59 (1,+0)
	       \------+ 43 (0,+0)

It returns the number of printed levels.
*/
func Dump[K any](w io.Writer, tree AVLTree[K]) int {
	return dump[K](w, tree.Root(), "", Root)
}

func dump[K any](w io.Writer, node AVLNode[K], prefix string, dir AVLDirection) int {
	if node == nil {
		return 0
	}
	rd, ld := 0, 0
	if r := node.Right(); r != nil {
		t := "       "
		if dir == Left {
			t = "|      "
		}
		rd = dump[K](w, r, prefix+t, Right)
	}
	switch dir {
	case Root:
		_, _ = io.WriteString(w, prefix+"|------+ ")
	case Left:
		_, _ = io.WriteString(w, prefix+"\\------+ ")
	case Right:
		_, _ = io.WriteString(w, prefix+"/------+ ")
	default:
	}
	_, _ = fmt.Fprintf(w, "%v (%d,%s)\n", node.Key(), node.Height(), signed(node.Balance()))
	if l := node.Left(); l != nil {
		t := "       "
		if dir == Right {
			t = "|      "
		}
		ld = dump[K](w, l, prefix+t, Left)
	}
	return 1 + max(rd, ld)
}

func signed(n int) string {
	if n >= 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
