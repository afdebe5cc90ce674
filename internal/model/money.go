package model

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Round2 保留两位小数（银行家舍入，按浮点数的精确二进制值判断进位）
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	exact := new(big.Float).SetFloat64(v).Text('f', 40)
	d, err := decimal.NewFromString(exact)
	if err != nil {
		return v
	}
	f, _ := d.RoundBank(2).Float64()
	return f
}

// Sum 两位小数求和
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Float64()
	return f
}
