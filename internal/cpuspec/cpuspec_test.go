package cpuspec

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOptimalThreadCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		spec      CPUSpec
		available int
		want      int
	}{
		{"physical cores", CPUSpec{PhysicalCores: 4, LogicalCores: 8}, 8, 4},
		{"capped by available", CPUSpec{PhysicalCores: 16, LogicalCores: 32}, 2, 2},
		{"logical fallback", CPUSpec{LogicalCores: 6}, 8, 6},
		{"unknown cpu", CPUSpec{}, 3, 3},
		{"never zero", CPUSpec{}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.spec.GetOptimalThreadCount(tt.available))
		})
	}
}

func TestGetCPUSpecOnHost(t *testing.T) {
	t.Parallel()

	threads := GetCPUSpec().GetOptimalThreadCount(runtime.NumCPU())
	assert.GreaterOrEqual(t, threads, 1)
	assert.LessOrEqual(t, threads, runtime.NumCPU())
}
