// Package milp implements the Deterministic MILP Scheduler (SPEC_FULL.md
// §4.3) and supplies the LP-relaxation engine the Benders subschedulers
// (§4.4) reuse. The branch-and-bound architecture — a milpProblem lowered
// to an equality-form subproblem, solved by gonum's simplex, explored by an
// enumeration tree with context-based cancellation — is
// grounded on the jjhbw/GoMILP `ilp` package retrieved alongside this spec
// (SPEC_FULL.md "DOMAIN STACK").
package milp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrRelaxationInfeasible mirrors GoMILP's INITIAL_RELAXATION_NOT_FEASIBLE:
// the LP relaxation at a branch-and-bound node has no feasible point, so
// the node (and everything below it) is pruned.
var ErrRelaxationInfeasible = errors.New("milp: lp relaxation infeasible")

// variable indexes one decision variable in the standard-form LP: a task
// start time, the makespan, or a mutex indicator, each optionally shifted
// by a lower bound (lo) and capped by an upper bound (hi) via a slack.
type variable struct {
	name string
	lo   float64
	hi   float64 // +Inf if unbounded above
}

// builder accumulates the standard-form LP column by column and row by row
// before handing off to solveRelaxation. Rows are inequalities of the form
// row·x <= rhs in terms of the *shifted* variables; solveRelaxation converts them
// to the A x = b, x >= 0 equality form gonum's simplex expects, the same
// conversion GoMILP's convertToEqualities performs.
type builder struct {
	vars []variable
	c    []float64
	rows [][]float64
	rhs  []float64
}

func newBuilder() *builder { return &builder{} }

// addVar registers a variable and returns its column index.
func (b *builder) addVar(name string, lo, hi float64) int {
	b.vars = append(b.vars, variable{name: name, lo: lo, hi: hi})
	b.c = append(b.c, 0)
	for i := range b.rows {
		b.rows[i] = append(b.rows[i], 0)
	}
	return len(b.vars) - 1
}

func (b *builder) setObjective(idx int, coef float64) { b.c[idx] = coef }

// addLE adds a row·x <= rhs constraint over shifted variables, where row is
// sparse as (index, coefficient) pairs.
func (b *builder) addLE(coeffs map[int]float64, rhs float64) {
	row := make([]float64, len(b.vars))
	for idx, v := range coeffs {
		row[idx] = v
	}
	b.rows = append(b.rows, row)
	b.rhs = append(b.rhs, rhs)
}

// solveRelaxation converts the accumulated <= rows (plus each variable's
// [0, hi-lo] box, expressed as extra <= rows) into standard equality form
// with one slack per inequality, then solves via gonum's simplex. It
// returns the optimal value of each original variable (already unshifted:
// vars[i].lo is added back) and the objective value, or
// ErrRelaxationInfeasible.
func (b *builder) solveRelaxation() (values []float64, objective float64, err error) {
	rows := append([][]float64(nil), b.rows...)
	rhs := append([]float64(nil), b.rhs...)

	// finite upper bounds become explicit <= rows on the shifted variable
	for i, v := range b.vars {
		if v.hi < mathInf() {
			row := make([]float64, len(b.vars))
			row[i] = 1
			rows = append(rows, row)
			rhs = append(rhs, v.hi-v.lo)
		}
	}

	nSlack := len(rows)
	nVars := len(b.vars)
	total := nVars + nSlack

	A := mat.NewDense(len(rows), total, nil)
	bvec := make([]float64, len(rows))
	for r, row := range rows {
		for c, val := range row {
			A.Set(r, c, val)
		}
		A.Set(r, nVars+r, 1) // slack
		bvec[r] = rhs[r]
		if rhs[r] < 0 {
			// gonum's simplex expects b >= 0; negate the row and its slack.
			for c := 0; c < total; c++ {
				A.Set(r, c, -A.At(r, c))
			}
			bvec[r] = -rhs[r]
		}
	}

	c := make([]float64, total)
	copy(c, b.c)

	z, x, serr := lp.Simplex(nil, c, A, bvec, 0)
	if serr != nil {
		if errors.Is(serr, lp.ErrInfeasible) || errors.Is(serr, lp.ErrSingular) {
			return nil, 0, ErrRelaxationInfeasible
		}
		return nil, 0, fmt.Errorf("milp: simplex failed: %w", serr)
	}

	out := make([]float64, nVars)
	for i, v := range b.vars {
		out[i] = x[i] + v.lo
	}
	return out, z, nil
}

func mathInf() float64 { return posInf }

const posInf = 1e18 // treated as "no explicit upper bound" throughout this package
