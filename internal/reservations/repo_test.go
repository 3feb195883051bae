package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:reservations_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Reservation{},
		&models.ReservationItem{},
	))
	return db
}

func seedReservation(t *testing.T, repo *Repository, externalUserID string, status enums.LifecycleStatus) *models.Reservation {
	t.Helper()

	assetID := uuid.New()
	res := &models.Reservation{
		ID:             uuid.New(),
		RequesterName:  "Sam Field",
		RequesterEmail: "sam@example.com",
		ExternalUserID: externalUserID,
		TargetType:     enums.TargetTypeAsset,
		AssetID:        &assetID,
		StartAt:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EndAt:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:         status,
		ApprovalStatus: enums.ApprovalStatusPendingApproval,
	}
	created, err := repo.Create(context.Background(), res)
	require.NoError(t, err)
	return created
}

func TestRepositoryCreateAndFindWithItems(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	modelID := uuid.New()
	res := &models.Reservation{
		ID:             uuid.New(),
		RequesterName:  "Sam Field",
		RequesterEmail: "sam@example.com",
		ExternalUserID: "user-1",
		TargetType:     enums.TargetTypeModel,
		StartAt:        time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndAt:          time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
		Status:         enums.LifecycleStatusPending,
		ApprovalStatus: enums.ApprovalStatusPendingApproval,
		Items: []models.ReservationItem{
			{ID: uuid.New(), ModelID: modelID, Quantity: 2, DisplayName: "cordless drill"},
		},
	}

	_, err := repo.Create(ctx, res)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, modelID, found.Items[0].ModelID)
	assert.Equal(t, 2, found.Items[0].Quantity)
}

func TestRepositoryFindByIDMissing(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListForRequesterScopesToUser(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)

	seedReservation(t, repo, "user-a", enums.LifecycleStatusPending)
	seedReservation(t, repo, "user-a", enums.LifecycleStatusConfirmed)
	seedReservation(t, repo, "user-b", enums.LifecycleStatusPending)

	rows, err := repo.ListForRequester(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "user-a", row.ExternalUserID)
	}
}

func TestRepositoryListAllFiltersByStatus(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)

	seedReservation(t, repo, "user-a", enums.LifecycleStatusPending)
	seedReservation(t, repo, "user-b", enums.LifecycleStatusConfirmed)

	all, err := repo.ListAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := enums.LifecycleStatusConfirmed
	filtered, err := repo.ListAll(context.Background(), &status)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, enums.LifecycleStatusConfirmed, filtered[0].Status)
}

func TestRepositoryUpdateStatesPersistsApproval(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	res := seedReservation(t, repo, "user-a", enums.LifecycleStatusPending)

	approvedBy := "staff-1"
	approvedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	res.Status = enums.LifecycleStatusPending
	res.ApprovalStatus = enums.ApprovalStatusApproved
	res.ApprovedBy = &approvedBy
	res.ApprovedAt = &approvedAt

	require.NoError(t, repo.UpdateStates(ctx, res))

	found, err := repo.FindByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ApprovalStatusApproved, found.ApprovalStatus)
	require.NotNil(t, found.ApprovedBy)
	assert.Equal(t, approvedBy, *found.ApprovedBy)
}

func TestRepositoryDeleteRemovesItems(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	res := &models.Reservation{
		ID:             uuid.New(),
		RequesterName:  "Sam Field",
		RequesterEmail: "sam@example.com",
		ExternalUserID: "user-a",
		TargetType:     enums.TargetTypeModel,
		StartAt:        time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndAt:          time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
		Status:         enums.LifecycleStatusPending,
		ApprovalStatus: enums.ApprovalStatusPendingApproval,
		Items: []models.ReservationItem{
			{ID: uuid.New(), ModelID: uuid.New(), Quantity: 1, DisplayName: "generator"},
		},
	}
	_, err := repo.Create(ctx, res)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, res.ID))

	_, err = repo.FindByID(ctx, res.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.ReservationItem{}).
		Where("reservation_id = ?", res.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}
