package sales_test

import (
	"context"
	"sync"
	"testing"

	"pos-backend/internal/apperr"
	"pos-backend/internal/models"
	"pos-backend/internal/sales"
	"pos-backend/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresConcurrentSalesNeverOversell(t *testing.T) {
	f := fixtureOn(t, testdb.Postgres(t))
	b := f.batch(t, f.item(t, "Inverter"), 1, 10)

	const buyers = 12
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.rec.RecordSale(context.Background(), f.input(line(b, 3, "100")))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err), "got %v", err)
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 1, f.quantity(t, b.ID))
	assert.Equal(t, int64(3), f.count(t, &models.Sale{}))
}

func TestPostgresCrossedLineOrderDoesNotDeadlock(t *testing.T) {
	f := fixtureOn(t, testdb.Postgres(t))
	a := f.batch(t, f.item(t, "Rail"), 1, 500)
	b := f.batch(t, f.item(t, "End clamp"), 1, 500)

	const (
		workers = 8
		rounds  = 10
	)
	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)
	for w := 0; w < workers; w++ {
		cart := []sales.LineInput{line(a, 1, "10"), line(b, 2, "5")}
		if w%2 == 1 {
			cart = []sales.LineInput{line(b, 2, "5"), line(a, 1, "10")}
		}
		wg.Add(1)
		go func(cart []sales.LineInput) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				_, err := f.rec.RecordSale(context.Background(), f.input(cart...))
				errs <- err
			}
		}(cart)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 500-workers*rounds, f.quantity(t, a.ID))
	assert.Equal(t, 500-2*workers*rounds, f.quantity(t, b.ID))
	assert.Equal(t, int64(workers*rounds), f.count(t, &models.Sale{}))
}
