// Package cpuspec inspects the host CPU to pick inference thread counts.
package cpuspec

import (
	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName     string
	PhysicalCores int
	LogicalCores  int
	Hybrid        bool // performance and efficiency cores mixed
	AVX2          bool // XNNPACK fast paths available on x86
}

// GetCPUSpec returns the specifications of the host CPU.
func GetCPUSpec() CPUSpec {
	return CPUSpec{
		BrandName:     cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		Hybrid:        cpuid.CPU.Supports(cpuid.HYBRID_CPU),
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
	}
}

// GetOptimalThreadCount returns the recommended interpreter thread count,
// never more than available. Physical cores are preferred since SMT
// siblings add little to dense float math.
func (c CPUSpec) GetOptimalThreadCount(available int) int {
	threads := c.PhysicalCores
	if threads <= 0 {
		threads = c.LogicalCores
	}
	if threads <= 0 || threads > available {
		threads = available
	}
	return max(1, threads)
}
