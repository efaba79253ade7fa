package memalloc

// ChunkTree indexes a set of non-overlapping MemoryChunk address ranges with
// a top-down splay tree (Sleator-Tarjan), so that the chunk owning an
// arbitrary address can be found in amortized O(log n). Every lookup splays
// the found (or nearest) node to the root, which also makes repeated
// allocate/deallocate traffic against the same chunk cheap.
type ChunkTree struct {
	root *MemoryChunk
}

// Find splays the tree at addr and returns the node straddling it, or the
// nearest neighbor if no chunk owns addr. Callers must check IsLessThan /
// IsGreaterThan on the result before trusting it as the owner.
func (t *ChunkTree) Find(addr Addr) *MemoryChunk {
	t.root = splay(t.root, addr)
	return t.root
}

// Insert adds chunk to the tree. chunk must not overlap any existing chunk.
func (t *ChunkTree) Insert(chunk *MemoryChunk) {
	if t.root == nil {
		t.root = chunk
		return
	}
	t.root = splay(t.root, chunk.base)
	if chunk.base < t.root.base {
		chunk.left = t.root.left
		chunk.right = t.root
		t.root.left = nil
	} else {
		chunk.right = t.root.right
		chunk.left = t.root
		t.root.right = nil
	}
	t.root = chunk
}

// RemoveRoot removes the current root (the node returned by the most recent
// Find) from the tree.
func (t *ChunkTree) RemoveRoot() {
	if t.root == nil {
		return
	}
	if t.root.left == nil {
		t.root = t.root.right
		return
	}
	right := t.root.right
	newRoot := splay(t.root.left, t.root.base)
	newRoot.right = right
	t.root = newRoot
}

// splay performs a top-down splay of root at addr, per Sleator and Tarjan's
// "Self-Adjusting Binary Search Trees" (1985), using zig-zig / zig-zag
// rotations to bring the node containing (or nearest to) addr to the root.
func splay(root *MemoryChunk, addr Addr) *MemoryChunk {
	if root == nil {
		return nil
	}
	var header MemoryChunk
	l, r := &header, &header
	t := root
	for {
		switch {
		case t.IsGreaterThan(addr): // addr < t's range
			if t.left == nil {
				goto done
			}
			if t.left.IsGreaterThan(addr) {
				y := t.left
				t.left = y.right
				y.right = t
				t = y
				if t.left == nil {
					goto done
				}
			}
			r.left = t
			r = t
			t = t.left
		case t.IsLessThan(addr): // addr > t's range
			if t.right == nil {
				goto done
			}
			if t.right.IsLessThan(addr) {
				y := t.right
				t.right = y.left
				y.left = t
				t = y
				if t.right == nil {
					goto done
				}
			}
			l.right = t
			l = t
			t = t.right
		default:
			goto done
		}
	}
done:
	l.right = t.left
	r.left = t.right
	t.left = header.right
	t.right = header.left
	return t
}
