package domain

import (
	"context"
	"sync"
	"testing"
)

func TestEmbeddingUsage_Context(t *testing.T) {
	if UsageFromContext(context.Background()) != nil {
		t.Fatal("expected nil usage on bare context")
	}

	ctx, u := NewContextWithUsage(context.Background())
	if UsageFromContext(ctx) != u {
		t.Fatal("usage not found in context")
	}
	if u.Used() {
		t.Error("fresh usage must not be marked used")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			UsageFromContext(ctx).AddTokens(3)
		}()
	}
	wg.Wait()

	if u.TotalTokens() != 30 || !u.Used() {
		t.Errorf("TotalTokens() = %d, Used() = %v", u.TotalTokens(), u.Used())
	}
}

func TestEmbeddingUsage_NilSafe(t *testing.T) {
	var u *EmbeddingUsage
	u.AddTokens(5)
	if u.TotalTokens() != 0 || u.Used() {
		t.Error("nil usage must report nothing")
	}
}
