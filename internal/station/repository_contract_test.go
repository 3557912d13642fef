package station_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlog/airlog/internal/station"
)

// runRepositoryContract exercises behaviour every Repository must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) station.Repository) {
	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)

		require.NoError(t, repo.Create(ctx, &station.Station{
			ID: "stn_1", Name: "One", Latitude: 53.8, Longitude: -1.55,
			Records: []station.Record{}, CreatedAt: now, UpdatedAt: now,
		}))

		st, err := repo.Get(ctx, "stn_1")
		require.NoError(t, err)
		assert.Equal(t, "One", st.Name)
		assert.Equal(t, 53.8, st.Latitude)
		assert.Equal(t, -1.55, st.Longitude)
		assert.NotNil(t, st.Records)
		assert.Empty(t, st.Records)
		assert.WithinDuration(t, now, st.CreatedAt, time.Second)
	})

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(context.Background(), "stn_missing")
		assert.ErrorIs(t, err, station.ErrStationNotFound)
	})

	t.Run("append keeps submission order and absent readings", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seedStation(t, repo, "stn_1", "One")

		_, err := repo.AppendRecord(ctx, "stn_1", station.Record{TS: 300, NOx: 1, NO2: 2, NO: 3, PM10: ptr(0)})
		require.NoError(t, err)
		st, err := repo.AppendRecord(ctx, "stn_1", station.Record{TS: 100, NOx: 4, NO2: 5, NO: 6, SO2: ptr(7.5)})
		require.NoError(t, err)

		require.Len(t, st.Records, 2)
		assert.Equal(t, 300.0, st.Records[0].TS)
		assert.Equal(t, 100.0, st.Records[1].TS)
		require.NotNil(t, st.Records[0].PM10)
		assert.Zero(t, *st.Records[0].PM10)
		assert.Nil(t, st.Records[0].CO)
		require.NotNil(t, st.Records[1].SO2)
		assert.Equal(t, 7.5, *st.Records[1].SO2)
	})

	t.Run("append to missing station", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.AppendRecord(context.Background(), "stn_missing", station.Record{TS: 1})
		assert.ErrorIs(t, err, station.ErrStationNotFound)
	})

	t.Run("list omits records and keeps creation order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seedStation(t, repo, "stn_b", "Second")
		seedStation(t, repo, "stn_a", "Third")
		_, err := repo.AppendRecord(ctx, "stn_b", station.Record{TS: 1})
		require.NoError(t, err)

		stations, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, stations, 2)
		assert.Equal(t, "stn_b", stations[0].ID)
		assert.Equal(t, "stn_a", stations[1].ID)
		assert.Empty(t, stations[0].Records)

		withRecords, err := repo.ListWithRecords(ctx)
		require.NoError(t, err)
		require.Len(t, withRecords, 2)
		assert.Len(t, withRecords[0].Records, 1)
		assert.NotNil(t, withRecords[1].Records)
		assert.Empty(t, withRecords[1].Records)
	})

	t.Run("update name", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seedStation(t, repo, "stn_1", "Before")

		result, err := repo.UpdateName(ctx, "stn_1", "After")
		require.NoError(t, err)
		assert.Equal(t, station.UpdateResult{Matched: true, Modified: true}, result)

		result, err = repo.UpdateName(ctx, "stn_1", "After")
		require.NoError(t, err)
		assert.Equal(t, station.UpdateResult{Matched: true}, result)

		result, err = repo.UpdateName(ctx, "stn_missing", "After")
		require.NoError(t, err)
		assert.False(t, result.Matched)

		st, err := repo.Get(ctx, "stn_1")
		require.NoError(t, err)
		assert.Equal(t, "After", st.Name)
	})

	t.Run("delete removes station and records", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seedStation(t, repo, "stn_1", "Doomed")
		seedStation(t, repo, "stn_2", "Kept")
		_, err := repo.AppendRecord(ctx, "stn_1", station.Record{TS: 1})
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, "stn_1"))
		assert.ErrorIs(t, repo.Delete(ctx, "stn_1"), station.ErrStationNotFound)

		stations, err := repo.ListWithRecords(ctx)
		require.NoError(t, err)
		require.Len(t, stations, 1)
		assert.Equal(t, "stn_2", stations[0].ID)
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seedStation(t, repo, "stn_1", "Busy")

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(ts float64) {
				defer wg.Done()
				_, err := repo.AppendRecord(ctx, "stn_1", station.Record{TS: ts})
				errs <- err
			}(float64(i))
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		st, err := repo.Get(ctx, "stn_1")
		require.NoError(t, err)
		assert.Len(t, st.Records, n)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newRepo(t).Ping(context.Background()))
	})
}

func seedStation(t *testing.T, repo station.Repository, id, name string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), &station.Station{
		ID: id, Name: name, Latitude: 1, Longitude: 2,
		Records: []station.Record{}, CreatedAt: now, UpdatedAt: now,
	}))
}
