package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/metrics"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"
	"magnova-scm-api-server/internal/store/memstore"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorFormats(t *testing.T) {
	st := memstore.New()
	g := NewGenerator(st, 5)
	ctx := context.Background()

	tests := []struct {
		def  Definition
		want string
	}{
		{PurchaseOrders(st), "PO-MAG-00001"},
		{Invoices(st), "INV-000001"},
		{SalesOrders(st), "SO-MAG-00001"},
	}
	for _, tt := range tests {
		t.Run(tt.def.Name, func(t *testing.T) {
			id, err := g.Next(ctx, tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestGeneratorSkipsTakenIdentifiers(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	// Documents that predate the counter.
	for _, n := range []string{"PO-MAG-00001", "PO-MAG-00002"} {
		require.NoError(t, st.InsertPurchaseOrder(ctx, &models.PurchaseOrder{PONumber: n}))
	}

	m := metrics.New()
	g := NewGenerator(st, 5, WithMetrics(m))
	id, err := g.Next(ctx, PurchaseOrders(st))
	require.NoError(t, err)
	assert.Equal(t, "PO-MAG-00003", id)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SequenceRetries.WithLabelValues(store.SeqPurchaseOrder)))
}

func TestGeneratorGivesUpAfterMaxAttempts(t *testing.T) {
	st := memstore.New()
	g := NewGenerator(st, 3)
	alwaysTaken := Definition{
		Name:   "test",
		Format: "T-%d",
		Exists: func(context.Context, string) (bool, error) { return true, nil },
	}
	_, err := g.Next(context.Background(), alwaysTaken)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestGeneratorUniqueUnderConcurrency(t *testing.T) {
	st := memstore.New()
	g := NewGenerator(st, 5)
	def := Invoices(st)

	const workers = 50
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := g.Next(context.Background(), def)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

type stubLocker struct {
	calls    int
	released int
	err      error
}

func (l *stubLocker) Lock(context.Context, string) (func(), error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}

func TestGeneratorUsesLocker(t *testing.T) {
	st := memstore.New()

	t.Run("lock is held around allocation", func(t *testing.T) {
		l := &stubLocker{}
		g := NewGenerator(st, 5, WithLocker(l))
		_, err := g.Next(context.Background(), SalesOrders(st))
		require.NoError(t, err)
		assert.Equal(t, 1, l.calls)
		assert.Equal(t, 1, l.released)
	})

	t.Run("lock failure is internal", func(t *testing.T) {
		g := NewGenerator(st, 5, WithLocker(&stubLocker{err: errors.New("redis down")}))
		_, err := g.Next(context.Background(), SalesOrders(st))
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	})
}
