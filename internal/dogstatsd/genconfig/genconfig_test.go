package genconfig

import (
	"testing"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/parser"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/stats"
)

func TestScenarioFourMetricWeightScaling(t *testing.T) {
	counts := []uint32{200, 0, 0, 0, 0, 200}
	got := scaleToU8(counts)
	if got[0] != 128 || got[5] != 128 {
		t.Fatalf("got %v, want [128 0 0 0 0 128]", got)
	}
	for _, i := range []int{1, 2, 3, 4} {
		if got[i] != 0 {
			t.Errorf("got[%d] = %d, want 0", i, got[i])
		}
	}
}

func TestScaleToU8PassesThroughUnderThreshold(t *testing.T) {
	counts := []uint32{10, 20, 30}
	got := scaleToU8(counts)
	if got[0] != 10 || got[1] != 20 || got[2] != 30 {
		t.Errorf("got %v, want [10 20 30]", got)
	}
}

func TestScaleToU8PreservesSumWithinTolerance(t *testing.T) {
	counts := []uint32{900, 100}
	got := scaleToU8(counts)
	var sum int
	for _, v := range got {
		sum += int(v)
	}
	if sum < 249 || sum > 261 {
		t.Errorf("sum = %d, want within 255±6", sum)
	}
}

func TestProjectContextsConstant(t *testing.T) {
	s := stats.BatchStats{
		NumContexts: 3,
		Kind: map[stats.MessageKind]*stats.KindStats{
			stats.KindMetric:       {ByType: map[parser.MetricType]uint32{}},
			stats.KindEvent:        {},
			stats.KindServiceCheck: {},
		},
	}
	cfg := Project(s)
	if cfg.Contexts.Constant == nil || *cfg.Contexts.Constant != 3 {
		t.Errorf("Contexts = %+v, want Constant(3)", cfg.Contexts)
	}
}

func TestProjectMultivalueProbabilityZeroMsgs(t *testing.T) {
	s := stats.BatchStats{
		Kind: map[stats.MessageKind]*stats.KindStats{
			stats.KindMetric:       {ByType: map[parser.MetricType]uint32{}},
			stats.KindEvent:        {},
			stats.KindServiceCheck: {},
		},
	}
	cfg := Project(s)
	if cfg.MultivaluePackProbability != 0 {
		t.Errorf("MultivaluePackProbability = %f, want 0", cfg.MultivaluePackProbability)
	}
}
