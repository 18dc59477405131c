/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"math"
	"math/big"
	"strconv"
)

const (
	// maxApproxDenominator bounds the denominator searched for non-integral sizes.
	maxApproxDenominator = 1_000_000
	approxTolerance      = 1e-9
)

// Reduce renders num/den as a reduced fraction "n/d". A zero denominator or a
// non-finite argument yields Undefined instead of failing. Integral sizes are reduced exactly by their
// greatest common divisor; fractional sizes (left by uneven splits such as
// thirds) are mapped to the simplest fraction within a small tolerance.
func Reduce(num, den float64) string {
	if den == 0 || !finite(num) || !finite(den) {
		return Undefined
	}
	if num == math.Trunc(num) && den == math.Trunc(den) {
		n, _ := new(big.Float).SetFloat64(num).Int(nil)
		d, _ := new(big.Float).SetFloat64(den).Int(nil)
		r := new(big.Rat).SetFrac(n, d)
		return r.Num().String() + "/" + r.Denom().String()
	}
	x := num / den
	if !finite(x) || math.Abs(x) >= 1<<53 {
		// beyond int64 convergents; the quotient of the two floats is exact
		r := new(big.Rat).Quo(new(big.Rat).SetFloat64(num), new(big.Rat).SetFloat64(den))
		return r.Num().String() + "/" + r.Denom().String()
	}
	p, q := approximate(x)
	return strconv.FormatInt(p, 10) + "/" + strconv.FormatInt(q, 10)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// approximate walks the continued fraction of x until a convergent is within
// tolerance or the denominator bound is reached.
func approximate(x float64) (int64, int64) {
	neg := x < 0
	if neg {
		x = -x
	}
	var (
		p0, q0 int64 = 0, 1
		p1, q1 int64 = 1, 0
		v            = x
	)
	for {
		a := int64(math.Floor(v))
		p2, q2 := a*p1+p0, a*q1+q0
		if q2 > maxApproxDenominator {
			break
		}
		p0, q0, p1, q1 = p1, q1, p2, q2
		if math.Abs(x-float64(p1)/float64(q1)) <= approxTolerance*math.Max(1, x) {
			break
		}
		frac := v - float64(a)
		if frac == 0 {
			break
		}
		v = 1 / frac
	}
	if q1 == 0 {
		p1, q1 = int64(math.Round(x)), 1
	}
	if neg {
		p1 = -p1
	}
	return p1, q1
}

// Measure stores the size of the bar relative to ref as its fraction.
func (b *Bar) Measure(ref *Bar) {
	if ref == nil {
		b.Fraction = Undefined
		return
	}
	b.Fraction = Reduce(b.Size, ref.Size)
}

// ClearMeasurement drops the cached fraction.
func (b *Bar) ClearMeasurement() { b.Fraction = "" }
