package metrics

import "testing"

func TestRegister_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
	RegisterEngineMetrics()
	RegisterEngineMetrics()

	if !embMetricsRegistered || !engineMetricsRegistered {
		t.Error("metrics not marked registered")
	}
}
