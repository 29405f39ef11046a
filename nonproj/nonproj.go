// Package nonproj removes crossing arcs from dependency trees.
//
// Index remapping across tokenizations is only meaningful for projective
// structures, so trees are projectivized before projection: the shortest
// non-projective arc is repeatedly re-attached to its head's head until no
// crossing arcs remain.
//
// Heads are absolute token indices; a root token is its own head.
package nonproj

// Projectivize returns a projective copy of heads. Labels are returned
// unchanged, in a fresh slice paired with the new heads.
func Projectivize(heads []int, labels []string) ([]int, []string) {
	out := make([]int, len(heads))
	copy(out, heads)
	lbl := make([]string, len(labels))
	copy(lbl, labels)

	// Each lift strictly shallows one subtree, so n*n bounds the loop for
	// any well-formed tree.
	for iter := 0; iter <= len(out)*len(out); iter++ {
		t := smallestNonProjArc(out)
		if t < 0 {
			break
		}
		out[t] = out[out[t]]
	}
	return out, lbl
}

// IsNonProjective reports whether the tree has at least one crossing arc.
func IsNonProjective(heads []int) bool {
	return smallestNonProjArc(heads) >= 0
}

// isNonProjArc reports whether the arc into t crosses another arc: some
// token strictly between t and its head is not dominated by that head.
func isNonProjArc(t int, heads []int) bool {
	h := heads[t]
	if h == t || h < 0 || h >= len(heads) {
		return false
	}
	lo, hi := h+1, t
	if t < h {
		lo, hi = t+1, h
	}
	for k := lo; k < hi; k++ {
		if !dominated(k, h, heads) {
			return true
		}
	}
	return false
}

// dominated reports whether h is an ancestor of k.
func dominated(k, h int, heads []int) bool {
	for steps := 0; steps <= len(heads); steps++ {
		p := heads[k]
		if p == h {
			return true
		}
		if p == k || p < 0 || p >= len(heads) {
			return false
		}
		k = p
	}
	return false // cycle guard tripped
}

// smallestNonProjArc returns the token with the shortest non-projective
// incoming arc, or -1 if the tree is projective.
func smallestNonProjArc(heads []int) int {
	best := -1
	bestLen := 0
	for t := range heads {
		if !isNonProjArc(t, heads) {
			continue
		}
		l := heads[t] - t
		if l < 0 {
			l = -l
		}
		if best < 0 || l < bestLen {
			best, bestLen = t, l
		}
	}
	return best
}
