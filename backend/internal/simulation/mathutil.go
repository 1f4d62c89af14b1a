package simulation

import "math"

func clamp(v, minV, maxV float32) float32 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// sign returns -1, 0 or 1.
func sign(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func atan2f(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)))
}

func sinf(v float32) float32 { return float32(math.Sin(float64(v))) }

func cosf(v float32) float32 { return float32(math.Cos(float64(v))) }

func asinf(v float32) float32 { return float32(math.Asin(float64(clamp(v, -1, 1)))) }

// approachZero moves v toward zero by step without crossing it.
func approachZero(v, step float32) float32 {
	if v > 0 {
		return max(0, v-step)
	}
	if v < 0 {
		return min(0, v+step)
	}
	return 0
}
