package station_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlog/airlog/internal/station"
)

func TestInMemoryRepository_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) station.Repository {
		return station.NewInMemoryRepository()
	})
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := station.NewInMemoryRepository()
	ctx := context.Background()
	seedStation(t, repo, "stn_1", "Original")
	_, err := repo.AppendRecord(ctx, "stn_1", station.Record{TS: 1, PM10: ptr(5)})
	require.NoError(t, err)

	st, err := repo.Get(ctx, "stn_1")
	require.NoError(t, err)
	st.Name = "Mutated"
	*st.Records[0].PM10 = 99
	st.Records[0].TS = 42

	again, err := repo.Get(ctx, "stn_1")
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
	assert.Equal(t, 1.0, again.Records[0].TS)
	assert.Equal(t, 5.0, *again.Records[0].PM10)
}
