// Package kron implements the Kron Assembler: it expands single- or
// two-site symbolic operators into ADD_VALUES-style sparse
// contributions in the full tensor-product space, including the
// Liouville-space I⊗H − H⊗I conjugation used whenever dissipation is
// present. Grounded on solver.c's matrix-assembly loop shape (build
// contributions, then a single AddValues/Assemble pass) and spec.md
// 4.1's embedding contract.
package kron

import (
	"github.com/kegliz/qplay-dynamics/dynamics/lak"
	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
)

// Embed1 expands a single coefficient*operator term at one site into
// its full-space embedding I_before ⊗ O ⊗ I_after, returning the
// non-zero (row,col,value) contributions. dim is the global Hilbert
// dimension (site.NBefore * site.Levels * n_after).
func Embed1(c complex128, op qubit.Operator, site qubit.Site, dim int) []lak.Entry {
	local := qubit.Dense(op, site)
	nAfter := site.NAfter(dim)
	return embedLocal(c, local, site.NBefore, site.Levels, nAfter)
}

// Embed2 expands a two-operator term c*op1(site1)*op2(site2). When
// site1 == site2 (the same-site Open Question, resolved as
// "supported" per SPEC_FULL §5), the two site-local operators are
// matrix-multiplied before embedding; otherwise the two single-site
// embeddings are combined as a Kronecker product over the full space.
func Embed2(c complex128, op1 qubit.Operator, site1 qubit.Site, op2 qubit.Operator, site2 qubit.Site, dim int) []lak.Entry {
	if site1.Index == site2.Index {
		local := matMul(qubit.Dense(op1, site1), qubit.Dense(op2, site2))
		nAfter := site1.NAfter(dim)
		return embedLocal(c, local, site1.NBefore, site1.Levels, nAfter)
	}

	lo, hi := site1, site2
	opLo, opHi := op1, op2
	if lo.Index > hi.Index {
		lo, hi = hi, lo
		opLo, opHi = opHi, opLo
	}

	localLo := qubit.Dense(opLo, lo)
	localHi := qubit.Dense(opHi, hi)

	nBetween := hi.NBefore / (lo.NBefore * lo.Levels)
	nAfter := hi.NAfter(dim)

	var out []lak.Entry
	for rLo := 0; rLo < lo.Levels; rLo++ {
		for cLo := 0; cLo < lo.Levels; cLo++ {
			vLo := localLo[rLo][cLo]
			if vLo == 0 {
				continue
			}
			for rHi := 0; rHi < hi.Levels; rHi++ {
				for cHi := 0; cHi < hi.Levels; cHi++ {
					vHi := localHi[rHi][cHi]
					if vHi == 0 {
						continue
					}
					val := c * vLo * vHi
					for before := 0; before < lo.NBefore; before++ {
						for mid := 0; mid < nBetween; mid++ {
							for after := 0; after < nAfter; after++ {
								row := index5(before, rLo, mid, rHi, after, lo.Levels, nBetween, hi.Levels, nAfter)
								col := index5(before, cLo, mid, cHi, after, lo.Levels, nBetween, hi.Levels, nAfter)
								out = append(out, lak.Entry{Row: row, Col: col, Value: val})
							}
						}
					}
				}
			}
		}
	}
	return out
}

func index5(before, a, mid, b, after, levA, nMid, levB, nAfter int) int {
	// flatten (before, a, mid, b, after) with strides matching the
	// tensor layout I_before ⊗ O_lo ⊗ I_mid ⊗ O_hi ⊗ I_after.
	idx := before
	idx = idx*levA + a
	idx = idx*nMid + mid
	idx = idx*levB + b
	idx = idx*nAfter + after
	return idx
}

func embedLocal(c complex128, local [][]complex128, nBefore, levels, nAfter int) []lak.Entry {
	var out []lak.Entry
	for r := 0; r < levels; r++ {
		for cc := 0; cc < levels; cc++ {
			v := local[r][cc]
			if v == 0 {
				continue
			}
			val := c * v
			for before := 0; before < nBefore; before++ {
				for after := 0; after < nAfter; after++ {
					row := (before*levels+r)*nAfter + after
					col := (before*levels+cc)*nAfter + after
					out = append(out, lak.Entry{Row: row, Col: col, Value: val})
				}
			}
		}
	}
	return out
}

func matMul(a, b [][]complex128) [][]complex128 {
	n := len(a)
	out := make([][]complex128, n)
	for i := range out {
		out[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			var sum complex128
			for k := 0; k < n; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// EmbedDense1 expands an arbitrary dense site-local operator (not
// necessarily one of the symbolic Operator kinds) into its full-space
// embedding I_before ⊗ M ⊗ I_after, the same construction Embed1 uses
// for symbolic operators. Used by dynamics/gate to embed a discrete
// gate's unitary matrix into the full Hilbert space.
func EmbedDense1(local [][]complex128, site qubit.Site, dim int) []lak.Entry {
	nAfter := site.NAfter(dim)
	return embedLocal(1, local, site.NBefore, site.Levels, nAfter)
}

// EmbedDense2 expands an arbitrary dense two-site local operator
// (levels(siteA)*levels(siteB) square, basis ordered siteA-major, i.e.
// local[rA*levels(siteB)+rB][cA*levels(siteB)+cB]) into its full-space
// embedding across two distinct sites. Used to embed a two-qubit
// gate's unitary, which (unlike Embed2's symbolic terms) is not a
// product of two independent site-local operators.
func EmbedDense2(local [][]complex128, siteA, siteB qubit.Site, dim int) []lak.Entry {
	levA, levB := siteA.Levels, siteB.Levels

	lo, hi := siteA, siteB
	swapped := false
	if lo.Index > hi.Index {
		lo, hi = hi, lo
		swapped = true
	}
	nBetween := hi.NBefore / (lo.NBefore * lo.Levels)
	nAfter := hi.NAfter(dim)

	var out []lak.Entry
	for rA := 0; rA < levA; rA++ {
		for rB := 0; rB < levB; rB++ {
			for cA := 0; cA < levA; cA++ {
				for cB := 0; cB < levB; cB++ {
					v := local[rA*levB+rB][cA*levB+cB]
					if v == 0 {
						continue
					}
					rLo, rHi, cLo, cHi := rA, rB, cA, cB
					if swapped {
						rLo, rHi, cLo, cHi = rB, rA, cB, cA
					}
					for before := 0; before < lo.NBefore; before++ {
						for mid := 0; mid < nBetween; mid++ {
							for after := 0; after < nAfter; after++ {
								row := index5(before, rLo, mid, rHi, after, lo.Levels, nBetween, hi.Levels, nAfter)
								col := index5(before, cLo, mid, cHi, after, lo.Levels, nBetween, hi.Levels, nAfter)
								out = append(out, lak.Entry{Row: row, Col: col, Value: v})
							}
						}
					}
				}
			}
		}
	}
	return out
}

// EmbedLiouville implements the I⊗H − H⊗I conjugation used to turn a
// Schrödinger-space contribution into its Liouville-space action on a
// flattened density matrix: -i[H,ρ] expands (up to the caller
// supplying the -i factor) as (I⊗H)·vec(ρ) − (H⊗I)·vec(ρ) under
// row-major flattening. contribs are the Schrödinger-space (row,col)
// contributions for H; dSch is the Schrödinger-space dimension.
func EmbedLiouville(contribs []lak.Entry, dSch int) []lak.Entry {
	out := make([]lak.Entry, 0, 2*len(contribs))
	// I ⊗ H acting on vec(ρ) with row-major flattening vec(ρ)[i*D+j] = ρ[i][j]:
	// (I⊗H) contributes H to the j-index (columns of the flattened vector
	// grouped by fixed row-block i), i.e. for each entry (r,c,v) of H and
	// each outer index i: row = i*D + r, col = i*D + c.
	for _, e := range contribs {
		for i := 0; i < dSch; i++ {
			out = append(out, lak.Entry{Row: i*dSch + e.Row, Col: i*dSch + e.Col, Value: e.Value})
		}
	}
	// H ⊗ I contributes H to the i-index (row-blocks), with a sign
	// flip: for each entry (r,c,v) of H and each inner index j:
	// row = r*D + j, col = c*D + j.
	for _, e := range contribs {
		for j := 0; j < dSch; j++ {
			out = append(out, lak.Entry{Row: e.Row*dSch + j, Col: e.Col*dSch + j, Value: -e.Value})
		}
	}
	return out
}

// ZeroPattern pre-registers every distinct (row,col) position present
// across contribs at zero value, so that a later AddValues with real
// coefficients against an already-Assembled matrix respects
// SAME_NONZERO_PATTERN. It deduplicates positions but preserves entry
// order of first occurrence.
func ZeroPattern(contribs ...[]lak.Entry) []lak.Entry {
	seen := make(map[[2]int]bool)
	var out []lak.Entry
	for _, group := range contribs {
		for _, e := range group {
			key := [2]int{e.Row, e.Col}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, lak.Entry{Row: e.Row, Col: e.Col, Value: 0})
		}
	}
	return out
}
