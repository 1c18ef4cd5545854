package learn

import (
	"fmt"
	"math"
)

// #region health

// HealthConfig holds informational bounds on learned-weight growth. Checks
// never alter the update itself; they exist so a runaway advantage stream is
// visible before it destabilizes generalization.
type HealthConfig struct {
	// MaxThetaNorm warns when any (dimension, value) weight vector's L2 norm
	// exceeds this. 0 disables the check.
	MaxThetaNorm float64 `yaml:"maxThetaNorm"`
}

// DefaultHealthConfig returns a loose bound suited to lrTheta = 0.01.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{MaxThetaNorm: 50.0}
}

// HealthCheck is one informational validation over an update result.
type HealthCheck struct {
	Name   string
	Value  float64
	Pass   bool
	Detail string
}

// CheckResult inspects an update result against the configured bounds.
func (h HealthConfig) CheckResult(r Result) []HealthCheck {
	var checks []HealthCheck
	for _, dm := range r.DimMetrics {
		pass := h.MaxThetaNorm <= 0 || dm.ThetaNorm <= h.MaxThetaNorm
		check := HealthCheck{
			Name:  fmt.Sprintf("theta_norm_%s", dm.Dimension),
			Value: dm.ThetaNorm,
			Pass:  pass,
		}
		if !pass {
			check.Detail = fmt.Sprintf("theta norm %.4f for (%s, %s) exceeds %.4f",
				dm.ThetaNorm, dm.Dimension, dm.Value, h.MaxThetaNorm)
		}
		checks = append(checks, check)
	}
	return checks
}

// #endregion health

// #region helpers

// VectorNorm computes the L2 norm of a float32 vector.
func VectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// #endregion helpers
