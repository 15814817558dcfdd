package tree

import (
	"errors"
	"reflect"

	"github.com/samber/lo"

	"github.com/benz9527/xavl/lib/infra"
)

var (
	ErrInvalidArgument = errors.New("[avltree] invalid argument")
	ErrNotFound        = errors.New("[avltree] key not found")
	ErrDuplicateKey    = errors.New("[avltree] duplicate key")
)

type avlNode[K any] struct {
	left    *avlNode[K]
	right   *avlNode[K]
	key     K
	height  int
	balance int
}

func (node *avlNode[K]) Key() K {
	return node.key
}

func (node *avlNode[K]) Height() int {
	return heightOf(node)
}

func (node *avlNode[K]) Balance() int {
	if node == nil {
		return 0
	}
	return node.balance
}

func (node *avlNode[K]) Left() AVLNode[K] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *avlNode[K]) Right() AVLNode[K] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *avlNode[K]) minimum() *avlNode[K] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *avlNode[K]) maximum() *avlNode[K] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

// An absent subtree is -1 high, a leaf is 0.
func heightOf[K any](node *avlNode[K]) int {
	if node == nil {
		return -1
	}
	return node.height
}

// refresh recomputes the cached height and balance from the
// cached heights of the children only.
func (node *avlNode[K]) refresh() {
	lh, rh := heightOf(node.left), heightOf(node.right)
	node.height = 1 + max(lh, rh)
	node.balance = lh - rh
}

/*
	   |                         |
	   X                         R
	  / \     rotateLeft(X)     / \
	 L   R    ============>    X   Rr
	    / \                   / \
	  Rl   Rr                L   Rl
*/
func rotateLeft[K any](x *avlNode[K]) *avlNode[K] {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] left rotate node x is nil or x.right is nil")
	}
	r := x.right
	x.right, r.left = r.left, x
	x.refresh()
	r.refresh()
	return r
}

/*
	     |                         |
	     X                         L
	    / \    rotateRight(X)     / \
	   L   R   ============>    Ll   X
	  / \                           / \
	Ll   Lr                       Lr   R
*/
func rotateRight[K any](x *avlNode[K]) *avlNode[K] {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] right rotate node x is nil or x.left is nil")
	}
	l := x.left
	x.left, l.right = l.right, x
	x.refresh()
	l.refresh()
	return l
}

/*
	    |                      |                     |
	    X                      X                     Lr
	   /    rotateLeft(L)     /    rotateRight(X)   /  \
	  L     ============>   Lr     =============>  L    X
	   \                   /
	    Lr                L
*/
func rotateLeftRight[K any](x *avlNode[K]) *avlNode[K] {
	x.left = rotateLeft(x.left)
	return rotateRight(x)
}

/*
	  |                  |                        |
	  X                  X                        Rl
	   \   rotateRight(R) \     rotateLeft(X)    /  \
	    R  =============>  Rl   ============>   X    R
	   /                    \
	 Rl                      R
*/
func rotateRightLeft[K any](x *avlNode[K]) *avlNode[K] {
	x.right = rotateRight(x.right)
	return rotateLeft(x)
}

// rebalance takes the ownership of a subtree whose children are
// already balanced and returns the (possibly new) subtree root.
//
// b1: right heavy, right child leans right or even, rotate left.
// b2: left heavy, left child leans left or even, rotate right.
// b3: left heavy, left child leans right, rotate left-right.
// b4: right heavy, right child leans left, rotate right-left.
func rebalance[K any](node *avlNode[K]) *avlNode[K] {
	node.refresh()
	switch {
	case /* b1 */ node.balance < -1 && node.right.balance <= 0:
		return rotateLeft(node)
	case /* b2 */ node.balance > 1 && node.left.balance >= 0:
		return rotateRight(node)
	case /* b3 */ node.balance > 1:
		return rotateLeftRight(node)
	case /* b4 */ node.balance < -1:
		return rotateRightLeft(node)
	default:
	}
	return node
}

// removeMax detaches the maximum node (it has no right child) of the
// subtree, rebalancing the ancestors up to the subtree root.
func removeMax[K any](node *avlNode[K]) (*avlNode[K], K) {
	if node.right == nil {
		l := node.left
		node.left = nil
		return l, node.key
	}
	var key K
	node.right, key = removeMax(node.right)
	return rebalance(node), key
}

// removeMin is the mirror of removeMax.
func removeMin[K any](node *avlNode[K]) (*avlNode[K], K) {
	if node.left == nil {
		r := node.right
		node.right = nil
		return r, node.key
	}
	var key K
	node.left, key = removeMin(node.left)
	return rebalance(node), key
}

var _ AVLTree[int] = (*avlTree[int])(nil)

type avlTree[K any] struct {
	root           *avlNode[K]
	cmp            infra.KeyComparator[K]
	count          int64
	dupPolicy      DuplicatePolicy
	isDesc         bool
	isRmBorrowSucc bool
	isNillableKey  bool
}

func (tree *avlTree[K]) isAbsent(key K) bool {
	return tree.isNillableKey && lo.IsNil(key)
}

func (tree *avlTree[K]) Len() int64 {
	return tree.count
}

func (tree *avlTree[K]) Height() int {
	return heightOf(tree.root)
}

func (tree *avlTree[K]) Root() AVLNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

func (tree *avlTree[K]) Comparator() infra.KeyComparator[K] {
	return tree.cmp
}

func (tree *avlTree[K]) Insert(key K) error {
	if tree.isAbsent(key) {
		return infra.WrapErrorStackWithMessage(ErrInvalidArgument, "insert nil key")
	}
	root, err := tree.insert(tree.root, key)
	if err != nil {
		return infra.WrapErrorStack(err)
	}
	tree.root = root
	return nil
}

// i1: Absent child, hang a new leaf here.
// i2: Equal key, apply the duplicate policy without structural change.
// i3: Descend, then rebalance on the way back up. Every ancestor is
// re-checked, the invariant is never assumed restored early.
func (tree *avlTree[K]) insert(node *avlNode[K], key K) (*avlNode[K], error) {
	if /* i1 */ node == nil {
		tree.count++
		return &avlNode[K]{key: key}, nil
	}

	var err error
	res := tree.cmp(key, node.key)
	if /* i2 */ res == 0 {
		switch tree.dupPolicy {
		case DuplicateReject:
			return node, ErrDuplicateKey
		case DuplicateReplace:
			node.key = key
		default:
		}
		return node, nil
	} else /* i3 */ if res < 0 {
		if node.left, err = tree.insert(node.left, key); err != nil {
			return node, err
		}
	} else {
		if node.right, err = tree.insert(node.right, key); err != nil {
			return node, err
		}
	}
	return rebalance(node), nil
}

func (tree *avlTree[K]) Remove(key K) (K, error) {
	var zero K
	if tree.isAbsent(key) {
		return zero, infra.WrapErrorStackWithMessage(ErrInvalidArgument, "remove nil key")
	}
	root, removed, ok := tree.remove(tree.root, key)
	if !ok {
		return zero, infra.WrapErrorStack(ErrNotFound)
	}
	tree.root = root
	tree.count--
	return removed, nil
}

/*
r1: No children, detach the node directly.

r2: One child, the child takes the node's slot.

r3: Two children, borrow the pred (max of left subtree) or the succ
(min of right subtree). Only the borrowed key moves into X, the
borrowed node is detached from its original position.

	  |                    |
	  X                    P
	 / \                  / \
	L  ..   remove(X)    L  ..
	 \      ========>     \
	  P                    Pl
	 /
	Pl

Then every ancestor up to the root is rebalanced.
*/
func (tree *avlTree[K]) remove(node *avlNode[K], key K) (*avlNode[K], K, bool) {
	var (
		removed K
		ok      bool
	)
	if node == nil {
		return nil, removed, false
	}

	res := tree.cmp(key, node.key)
	if res < 0 {
		if node.left, removed, ok = tree.remove(node.left, key); !ok {
			return node, removed, false
		}
	} else if res > 0 {
		if node.right, removed, ok = tree.remove(node.right, key); !ok {
			return node, removed, false
		}
	} else {
		removed = node.key
		switch {
		case /* r1 */ node.left == nil && node.right == nil:
			return nil, removed, true
		case /* r2 */ node.right == nil:
			l := node.left
			node.left = nil
			return l, removed, true
		case /* r2 */ node.left == nil:
			r := node.right
			node.right = nil
			return r, removed, true
		case /* r3 */ tree.isRmBorrowSucc:
			node.right, node.key = removeMin(node.right)
		default: /* r3 */
			node.left, node.key = removeMax(node.left)
		}
	}
	return rebalance(node), removed, true
}

func (tree *avlTree[K]) search(key K) (*avlNode[K], int) {
	depth := 0
	for aux := tree.root; aux != nil; {
		depth++
		res := tree.cmp(key, aux.key)
		if res == 0 {
			return aux, depth
		} else if res < 0 {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return nil, depth
}

func (tree *avlTree[K]) Get(key K) (K, error) {
	var zero K
	if tree.isAbsent(key) {
		return zero, infra.WrapErrorStackWithMessage(ErrInvalidArgument, "get nil key")
	}
	node, _ := tree.search(key)
	if node == nil {
		return zero, infra.WrapErrorStack(ErrNotFound)
	}
	return node.key, nil
}

func (tree *avlTree[K]) Contains(key K) (bool, error) {
	if tree.isAbsent(key) {
		return false, infra.WrapErrorStackWithMessage(ErrInvalidArgument, "contains nil key")
	}
	node, _ := tree.search(key)
	return node != nil, nil
}

// Depth counts the nodes from the root to the key, both inclusive.
func (tree *avlTree[K]) Depth(key K) (int, error) {
	if tree.isAbsent(key) {
		return 0, infra.WrapErrorStackWithMessage(ErrInvalidArgument, "depth nil key")
	}
	node, depth := tree.search(key)
	if node == nil {
		return 0, infra.WrapErrorStack(ErrNotFound)
	}
	return depth, nil
}

func (tree *avlTree[K]) Min() (K, error) {
	if tree.root == nil {
		var zero K
		return zero, infra.WrapErrorStackWithMessage(ErrNotFound, "empty tree")
	}
	return tree.root.minimum().key, nil
}

func (tree *avlTree[K]) Max() (K, error) {
	if tree.root == nil {
		var zero K
		return zero, infra.WrapErrorStackWithMessage(ErrNotFound, "empty tree")
	}
	return tree.root.maximum().key, nil
}

func (tree *avlTree[K]) Preorder() []K {
	keys := make([]K, 0, tree.count)
	var walk func(node *avlNode[K])
	walk = func(node *avlNode[K]) {
		if node == nil {
			return
		}
		keys = append(keys, node.key)
		walk(node.left)
		walk(node.right)
	}
	walk(tree.root)
	return keys
}

func (tree *avlTree[K]) Inorder() []K {
	keys := make([]K, 0, tree.count)
	tree.Foreach(func(_ int64, key K) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

func (tree *avlTree[K]) Postorder() []K {
	keys := make([]K, 0, tree.count)
	var walk func(node *avlNode[K])
	walk = func(node *avlNode[K]) {
		if node == nil {
			return
		}
		walk(node.left)
		walk(node.right)
		keys = append(keys, node.key)
	}
	walk(tree.root)
	return keys
}

// Levelorder is the BFS traversal, left to right in each level.
func (tree *avlTree[K]) Levelorder() []K {
	keys := make([]K, 0, tree.count)
	if tree.root == nil {
		return keys
	}

	queue := make([]*avlNode[K], 0, tree.count>>1+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, tree.root)

	for len(queue) > 0 {
		aux := queue[0]
		queue = queue[1:]
		keys = append(keys, aux.key)
		if aux.left != nil {
			queue = append(queue, aux.left)
		}
		if aux.right != nil {
			queue = append(queue, aux.right)
		}
	}
	return keys
}

// Inorder traversal to implement the DFS.
func (tree *avlTree[K]) Foreach(action func(idx int64, key K) bool) {
	aux := tree.root
	if aux == nil {
		return
	}

	// The stack never grows beyond the tree height.
	stack := make([]*avlNode[K], 0, tree.root.height+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(idx, aux.key) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.right; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

func (tree *avlTree[K]) Clear() {
	tree.root = nil
	tree.count = 0
}

func (policy DuplicatePolicy) String() string {
	switch policy {
	case DuplicateIgnore:
		return "ignore"
	case DuplicateReject:
		return "reject"
	case DuplicateReplace:
		return "replace"
	default:
	}
	return "unknown"
}

// ParseDuplicatePolicy accepts the String() form, empty means ignore.
func ParseDuplicatePolicy(policy string) (DuplicatePolicy, error) {
	switch policy {
	case "", "ignore":
		return DuplicateIgnore, nil
	case "reject":
		return DuplicateReject, nil
	case "replace":
		return DuplicateReplace, nil
	default:
	}
	return DuplicateIgnore, infra.WrapErrorStackWithMessage(ErrInvalidArgument, "unknown duplicate policy "+policy)
}

type AVLTreeOpt[K any] func(*avlTree[K])

func WithAVLTreeDesc[K any]() AVLTreeOpt[K] {
	return func(tree *avlTree[K]) {
		tree.isDesc = true
	}
}

func WithAVLTreeRemoveBorrowSucc[K any]() AVLTreeOpt[K] {
	return func(tree *avlTree[K]) {
		tree.isRmBorrowSucc = true
	}
}

func WithAVLTreeDuplicatePolicy[K any](policy DuplicatePolicy) AVLTreeOpt[K] {
	return func(tree *avlTree[K]) {
		tree.dupPolicy = policy
	}
}

func isNillable[K any]() bool {
	switch reflect.TypeFor[K]().Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
	}
	return false
}

func newAVLTree[K any](cmp infra.KeyComparator[K], opts ...AVLTreeOpt[K]) *avlTree[K] {
	tree := &avlTree[K]{
		count:          0,
		dupPolicy:      DuplicateIgnore,
		isDesc:         false,
		isRmBorrowSucc: false,
		isNillableKey:  isNillable[K](),
	}

	for _, o := range opts {
		o(tree)
	}

	tree.cmp = cmp
	if tree.isDesc {
		tree.cmp = infra.ReverseComparator(cmp)
	}
	return tree
}

func newAVLTreeFrom[K any](cmp infra.KeyComparator[K], keys []K, opts ...AVLTreeOpt[K]) (AVLTree[K], error) {
	if keys == nil {
		return nil, infra.WrapErrorStackWithMessage(ErrInvalidArgument, "nil keys")
	}
	tree := newAVLTree[K](cmp, opts...)
	for _, key := range keys {
		// No rollback, the keys before the failed one stay committed.
		if err := tree.Insert(key); err != nil {
			return tree, err
		}
	}
	return tree, nil
}

// NewAVLTree creates an empty tree in the natural key order.
func NewAVLTree[K infra.OrderedKey](opts ...AVLTreeOpt[K]) AVLTree[K] {
	return newAVLTree[K](infra.OrderedKeyCompare[K], opts...)
}

// NewAVLTreeFunc creates an empty tree over any key type ordered by cmp.
func NewAVLTreeFunc[K any](cmp infra.KeyComparator[K], opts ...AVLTreeOpt[K]) (AVLTree[K], error) {
	if cmp == nil {
		return nil, infra.WrapErrorStackWithMessage(ErrInvalidArgument, "nil key comparator")
	}
	return newAVLTree[K](cmp, opts...), nil
}

// NewAVLTreeFrom inserts the keys one by one in slice order.
// A nil slice is rejected, an empty one is not.
// If an insertion fails, the partially built tree is returned
// along with the error.
func NewAVLTreeFrom[K infra.OrderedKey](keys []K, opts ...AVLTreeOpt[K]) (AVLTree[K], error) {
	return newAVLTreeFrom[K](infra.OrderedKeyCompare[K], keys, opts...)
}

func NewAVLTreeFuncFrom[K any](cmp infra.KeyComparator[K], keys []K, opts ...AVLTreeOpt[K]) (AVLTree[K], error) {
	if cmp == nil {
		return nil, infra.WrapErrorStackWithMessage(ErrInvalidArgument, "nil key comparator")
	}
	return newAVLTreeFrom[K](cmp, keys, opts...)
}
