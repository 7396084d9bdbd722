package indicator

// Interval is a closed price range [Low, High] tagged with an id unique within a tree.
type Interval struct {
	Low  float64
	High float64
	ID   int
}

func (iv Interval) overlaps(low, high float64) bool {
	return iv.Low <= high && low <= iv.High
}

func (iv Interval) less(other Interval) bool {
	if iv.Low != other.Low {
		return iv.Low < other.Low
	}

	return iv.ID < other.ID
}

type itNode struct {
	iv          Interval
	max         float64
	height      int
	left, right *itNode
}

// IntervalTree is an AVL tree ordered by interval start and augmented with the max
// end of each subtree, giving O(log n + k) overlap queries.
type IntervalTree struct {
	root *itNode
	size int
}

// NewIntervalTree creates an empty tree.
func NewIntervalTree() *IntervalTree {
	return &IntervalTree{}
}

// Len returns the number of stored intervals.
func (t *IntervalTree) Len() int {
	return t.size
}

// Insert adds an interval.
func (t *IntervalTree) Insert(iv Interval) {
	t.root = insertNode(t.root, iv)
	t.size++
}

// Delete removes an interval. It returns false if the interval was not stored.
func (t *IntervalTree) Delete(iv Interval) bool {
	var removed bool

	t.root = deleteNode(t.root, iv, &removed)
	if removed {
		t.size--
	}

	return removed
}

// Overlapping returns every stored interval intersecting [low, high], ordered by start.
func (t *IntervalTree) Overlapping(low, high float64) []Interval {
	var out []Interval

	collect(t.root, low, high, &out)

	return out
}

func collect(n *itNode, low, high float64, out *[]Interval) {
	if n == nil || n.max < low {
		return
	}

	collect(n.left, low, high, out)

	if n.iv.Low > high {
		return
	}

	if n.iv.overlaps(low, high) {
		*out = append(*out, n.iv)
	}

	collect(n.right, low, high, out)
}

func height(n *itNode) int {
	if n == nil {
		return 0
	}

	return n.height
}

func update(n *itNode) {
	n.height = 1 + max(height(n.left), height(n.right))
	n.max = n.iv.High

	if n.left != nil && n.left.max > n.max {
		n.max = n.left.max
	}

	if n.right != nil && n.right.max > n.max {
		n.max = n.right.max
	}
}

func rotateRight(n *itNode) *itNode {
	l := n.left
	n.left = l.right
	l.right = n
	update(n)
	update(l)

	return l
}

func rotateLeft(n *itNode) *itNode {
	r := n.right
	n.right = r.left
	r.left = n
	update(n)
	update(r)

	return r
}

func rebalance(n *itNode) *itNode {
	update(n)

	switch balance := height(n.left) - height(n.right); {
	case balance > 1:
		if height(n.left.left) < height(n.left.right) {
			n.left = rotateLeft(n.left)
		}

		return rotateRight(n)
	case balance < -1:
		if height(n.right.right) < height(n.right.left) {
			n.right = rotateRight(n.right)
		}

		return rotateLeft(n)
	default:
		return n
	}
}

func insertNode(n *itNode, iv Interval) *itNode {
	if n == nil {
		return &itNode{iv: iv, max: iv.High, height: 1}
	}

	if iv.less(n.iv) {
		n.left = insertNode(n.left, iv)
	} else {
		n.right = insertNode(n.right, iv)
	}

	return rebalance(n)
}

func deleteNode(n *itNode, iv Interval, removed *bool) *itNode {
	if n == nil {
		return nil
	}

	switch {
	case iv == n.iv:
		*removed = true

		if n.left == nil {
			return n.right
		}

		if n.right == nil {
			return n.left
		}

		succ := n.right
		for succ.left != nil {
			succ = succ.left
		}

		n.iv = succ.iv

		var ignored bool
		n.right = deleteNode(n.right, succ.iv, &ignored)
	case iv.less(n.iv):
		n.left = deleteNode(n.left, iv, removed)
	default:
		n.right = deleteNode(n.right, iv, removed)
	}

	return rebalance(n)
}
