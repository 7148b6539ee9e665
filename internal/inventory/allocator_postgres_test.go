package inventory_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"pos-backend/internal/inventory"
	"pos-backend/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresConcurrentBatchCreationYieldsUniqueNumbers(t *testing.T) {
	db := testdb.Postgres(t)
	alloc := inventory.NewAllocator(db, nil)
	it := seedItem(t, db, "Inverter")

	const workers = 20
	var wg sync.WaitGroup
	numbers := make([]int, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := alloc.CreateBatch(context.Background(), clerk, receipt(it.ID, 1))
			errs[i] = err
			if err == nil {
				numbers[i] = b.BatchNumber
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		assert.Equal(t, i+1, n)
	}
}
