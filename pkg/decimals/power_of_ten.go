package decimals

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

const (
	minPowerOfTen = -DefaultDivPrecision
	maxPowerOfTen = DefaultDivPrecision

	// maxUint256PowerOfTen is the largest n where 10^n fits in 256 bits.
	maxUint256PowerOfTen = 77
)

var (
	powerOfTen        = make(map[int64]decimal.Decimal, maxPowerOfTen-minPowerOfTen+1)
	uint256PowerOfTen [maxUint256PowerOfTen + 1]*uint256.Int
)

func init() {
	for n := int64(minPowerOfTen); n <= maxPowerOfTen; n++ {
		powerOfTen[n] = decimal.New(1, int32(n))
	}

	p := uint256.NewInt(1)
	for n := 0; n <= maxUint256PowerOfTen; n++ {
		uint256PowerOfTen[n] = p.Clone()
		p.Mul(p, uint256.NewInt(10))
	}
}

// PowerOfTen optimized arithmetic performance for 10^n.
func PowerOfTen[T constraints.Integer](n T) decimal.Decimal {
	nInt64 := int64(n)
	if val, ok := powerOfTen[nInt64]; ok {
		return val
	}
	return decimal.New(1, int32(nInt64))
}

// PowerOfTenUint256 returns a fresh copy of 10^n. It reports false if 10^n does not fit in 256 bits.
func PowerOfTenUint256[T constraints.Integer](n T) (*uint256.Int, bool) {
	if int64(n) < 0 || int64(n) > maxUint256PowerOfTen {
		return nil, false
	}
	return uint256PowerOfTen[n].Clone(), true
}
