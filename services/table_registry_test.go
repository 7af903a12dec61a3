package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/utils"
)

func TestCreateTable(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)

	table, err := tr.Create(context.Background(), contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4})
	require.NoError(t, err)

	assert.NotZero(t, table.ID)
	assert.Equal(t, "t1", table.TenantID)
	assert.Equal(t, uint(1), table.TokenVersion)
	assert.True(t, table.IsActive)
}

func TestCreateTableDuplicateNameConflicts(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)
	ctx := context.Background()

	_, err := tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4})
	require.NoError(t, err)

	_, err = tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 2})
	assert.ErrorIs(t, err, utils.ErrConflict)

	// same name under another tenant is fine
	_, err = tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t2", Name: "A1", Capacity: 2})
	assert.NoError(t, err)
}

func TestSoftDeletedTableFreesName(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)
	ctx := context.Background()

	first, err := tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4})
	require.NoError(t, err)
	_, err = tr.SoftDelete(ctx, "t1", first.ID)
	require.NoError(t, err)

	_, err = tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4})
	require.NoError(t, err)

	// reactivating the old one would now collide
	active := true
	_, err = tr.Update(ctx, contracts.UpdateTableRequest{TenantID: "t1", TableID: first.ID, IsActive: &active})
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestTableTenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)
	ctx := context.Background()

	table, err := tr.Create(ctx, contracts.CreateTableRequest{TenantID: "tenant-a", Name: "A1", Capacity: 4})
	require.NoError(t, err)

	_, err = tr.Get(ctx, "tenant-b", table.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	name := "hijacked"
	_, err = tr.Update(ctx, contracts.UpdateTableRequest{TenantID: "tenant-b", TableID: table.ID, Name: &name})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = tr.IncrementTokenVersion(ctx, "tenant-b", table.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	err = tr.PermanentDelete(ctx, "tenant-b", table.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	list, err := tr.List(ctx, contracts.ListTablesRequest{TenantID: "tenant-b"})
	require.NoError(t, err)
	assert.Empty(t, list)

	unchanged, err := tr.Get(ctx, "tenant-a", table.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", unchanged.Name)
	assert.Equal(t, uint(1), unchanged.TokenVersion)
}

func TestUpdateTable(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)
	fr := NewFloorRegistry(db)
	ctx := context.Background()

	floor, err := fr.Create(ctx, contracts.CreateFloorRequest{TenantID: "t1", Name: "Ground"})
	require.NoError(t, err)
	table, err := tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4})
	require.NoError(t, err)

	name, capacity := "A2", 6
	updated, err := tr.Update(ctx, contracts.UpdateTableRequest{
		TenantID: "t1", TableID: table.ID, Name: &name, Capacity: &capacity, FloorID: &floor.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "A2", updated.Name)
	assert.Equal(t, 6, updated.Capacity)
	require.NotNil(t, updated.FloorID)
	assert.Equal(t, floor.ID, *updated.FloorID)

	cleared, err := tr.Update(ctx, contracts.UpdateTableRequest{TenantID: "t1", TableID: table.ID, ClearFloor: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.FloorID)
}

func TestTableFloorMustBelongToTenant(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)
	fr := NewFloorRegistry(db)
	ctx := context.Background()

	foreign, err := fr.Create(ctx, contracts.CreateFloorRequest{TenantID: "t2", Name: "Roof"})
	require.NoError(t, err)

	_, err = tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4, FloorID: &foreign.ID})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestPermanentDeleteTable(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)
	ctx := context.Background()

	table, err := tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4})
	require.NoError(t, err)

	require.NoError(t, tr.PermanentDelete(ctx, "t1", table.ID))
	_, err = tr.Get(ctx, "t1", table.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestIncrementTokenVersion(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)
	ctx := context.Background()

	table, err := tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4})
	require.NoError(t, err)

	for want := uint(2); want <= 4; want++ {
		bumped, err := tr.IncrementTokenVersion(ctx, "t1", table.ID)
		require.NoError(t, err)
		assert.Equal(t, want, bumped.TokenVersion)
	}
}

func TestIncrementTokenVersionIsSingleUpdate(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)
	ctx := context.Background()

	table, err := tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4})
	require.NoError(t, err)

	var log statementLog
	log.install(t, db)
	_, err = tr.IncrementTokenVersion(ctx, "t1", table.ID)
	require.NoError(t, err)

	// no read before the write; the only read is the row coming back
	assert.Equal(t, []string{"update", "query"}, log.kinds)
	require.Len(t, log.updates(), 1)
	assert.Contains(t, log.updates()[0], "token_version + ")
}

func TestCacheTokenSkipsStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTableRegistry(db)
	ctx := context.Background()

	table, err := tr.Create(ctx, contracts.CreateTableRequest{TenantID: "t1", Name: "A1", Capacity: 4})
	require.NoError(t, err)
	_, err = tr.IncrementTokenVersion(ctx, "t1", table.ID)
	require.NoError(t, err)

	ok, err := tr.CacheToken(ctx, "t1", table.ID, 1, "stale", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	var row models.Table
	require.NoError(t, db.First(&row, table.ID).Error)
	assert.Empty(t, row.QRToken)
}
