package cellindex

import (
	"math"
	"math/big"
)

// Distances and x·M/L carry a few ulps of rounding. A comparison that lands
// within tieSlack of its threshold is settled in exact rational arithmetic on
// the given float64 values, so cell assignment, the cutoff rule and the L/M
// check all agree with the real geometry.
const tieUlps = 64

func tieSlack(scale float64) float64 { return tieUlps * 0x1p-52 * scale }

// exact returns v as a rational. v must be finite.
func exact(v float64) *big.Rat { return new(big.Rat).SetFloat64(v) }

func exactSum(vs ...float64) *big.Rat {
	s := new(big.Rat)
	for _, v := range vs {
		s.Add(s, exact(v))
	}
	return s
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// fits reports whether L/M >= rc + 2·rMax holds exactly.
func fits(l, rc, rMax float64, m int) bool {
	need := exactSum(rc, rMax, rMax)
	need.Mul(need, new(big.Rat).SetInt64(int64(m)))
	return exact(l).Cmp(need) >= 0
}

// exactCell returns floor(v·M/L) clamped to [0, M).
func exactCell(v, l float64, m int) int {
	q := exact(v)
	q.Mul(q, new(big.Rat).SetInt64(int64(m)))
	q.Quo(q, exact(l))
	c := new(big.Int).Div(q.Num(), q.Denom()) // Euclidean: floor for a positive denominator
	switch {
	case c.Sign() < 0:
		return 0
	case !c.IsInt64() || c.Int64() >= int64(m):
		return m - 1
	}
	return int(c.Int64())
}

// exactWithin reports whether the exact squared separation is at most
// (rc + ra + rb)².
func exactWithin(sq *big.Rat, rc, ra, rb float64) bool {
	r := exactSum(rc, ra, rb)
	return sq.Cmp(r.Mul(r, r)) <= 0
}

func exactSquare(dx, dy *big.Rat) *big.Rat {
	sq := new(big.Rat).Mul(dx, dx)
	return sq.Add(sq, new(big.Rat).Mul(dy, dy))
}
