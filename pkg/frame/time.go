package frame

import (
	"fmt"
	"math"
	"math/big"
)

// Rational is a fraction used for time bases and frame rates.
type Rational struct {
	Num int64
	Den int64
}

// TimeBaseMicros is the time base of timestamps handed to plugins.
var TimeBaseMicros = Rational{Num: 1, Den: 1000000}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Float returns the value as a float64.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Mul multiplies r by a positive factor, keeping the result reduced.
func (r Rational) Mul(factor float64) Rational {
	if !r.Valid() || factor <= 0 || math.IsInf(factor, 0) || math.IsNaN(factor) {
		return r
	}
	x := new(big.Rat).SetFrac64(r.Num, r.Den)
	x.Mul(x, new(big.Rat).SetFloat64(factor))
	if !x.Num().IsInt64() || !x.Denom().IsInt64() {
		return r
	}
	return Rational{Num: x.Num().Int64(), Den: x.Denom().Int64()}
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Rescale converts v from one time base to another, rounding to nearest.
func Rescale(v int64, from, to Rational) int64 {
	if from == to || !from.Valid() || !to.Valid() {
		return v
	}
	// v * from.Num/from.Den * to.Den/to.Num
	n := new(big.Int).Mul(big.NewInt(v), big.NewInt(from.Num*to.Den))
	d := big.NewInt(from.Den * to.Num)
	q, m := new(big.Int).QuoRem(n, d, new(big.Int))
	// round half away from zero
	m2 := new(big.Int).Abs(m)
	m2.Mul(m2, big.NewInt(2))
	if m2.Cmp(d) >= 0 {
		if n.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	return q.Int64()
}
