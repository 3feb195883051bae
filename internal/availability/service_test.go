package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/internal/inventory"
	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
)

type fakeProvider struct {
	total    inventory.Count
	external inventory.Count
	err      error
}

func (p *fakeProvider) PooledTotal(ctx context.Context, modelID uuid.UUID) (inventory.Count, error) {
	if p.err != nil {
		return inventory.UnknownCount(), p.err
	}
	return p.total, nil
}

func (p *fakeProvider) ExternallyCheckedOut(ctx context.Context, target booking.Target) (inventory.Count, error) {
	if p.err != nil {
		return inventory.UnknownCount(), p.err
	}
	return p.external, nil
}

func (p *fakeProvider) AssetState(ctx context.Context, assetID uuid.UUID) (*inventory.AssetState, error) {
	return &inventory.AssetState{AssetID: assetID}, nil
}

type stubBlackouts struct {
	blocked bool
}

func (s stubBlackouts) AnyOverlapping(ctx context.Context, tx *gorm.DB, target booking.Target, window booking.Window) (bool, error) {
	return s.blocked, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:availability_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Reservation{}, &models.ReservationItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedPooledReservation(t *testing.T, db *gorm.DB, modelID uuid.UUID, qty int, window booking.Window, status enums.LifecycleStatus) {
	t.Helper()
	res := models.Reservation{
		ID:             uuid.New(),
		RequesterName:  "Test Requester",
		RequesterEmail: "requester@example.com",
		ExternalUserID: "u-" + uuid.NewString(),
		TargetType:     enums.TargetTypeModel,
		StartAt:        window.StartAt,
		EndAt:          window.EndAt,
		Status:         status,
		ApprovalStatus: enums.ApprovalStatusPendingApproval,
	}
	if err := db.Create(&res).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	item := models.ReservationItem{
		ID:            uuid.New(),
		ReservationID: res.ID,
		ModelID:       modelID,
		Quantity:      qty,
		DisplayName:   "Test Model",
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
}

func seedAssetReservation(t *testing.T, db *gorm.DB, assetID uuid.UUID, window booking.Window, status enums.LifecycleStatus) {
	t.Helper()
	res := models.Reservation{
		ID:             uuid.New(),
		RequesterName:  "Test Requester",
		RequesterEmail: "requester@example.com",
		ExternalUserID: "u-" + uuid.NewString(),
		TargetType:     enums.TargetTypeAsset,
		AssetID:        &assetID,
		StartAt:        window.StartAt,
		EndAt:          window.EndAt,
		Status:         status,
		ApprovalStatus: enums.ApprovalStatusPendingApproval,
	}
	if err := db.Create(&res).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
}

func newService(t *testing.T, db *gorm.DB, provider inventory.Provider, blocked bool) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), provider, stubBlackouts{blocked: blocked}, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPooledCapacityScenario(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	modelID := uuid.New()
	base := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)

	// pool of 3, two units already booked 10:00-12:00
	booked := booking.Window{StartAt: base, EndAt: base.Add(2 * time.Hour)}
	seedPooledReservation(t, db, modelID, 2, booked, enums.LifecycleStatusConfirmed)

	svc := newService(t, db, &fakeProvider{total: inventory.KnownCount(3), external: inventory.KnownCount(0)}, false)
	ctx := context.Background()

	// preview 11:00-13:00 overlaps the booked window
	preview := booking.Window{StartAt: base.Add(time.Hour), EndAt: base.Add(3 * time.Hour)}
	snapshot, err := svc.Capacity(ctx, nil, booking.ModelTarget(modelID), preview)
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if !snapshot.Known {
		t.Fatalf("expected known snapshot, got %+v", snapshot)
	}
	if snapshot.CommittedUnits != 2 || snapshot.FreeUnits != 1 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.CanAccommodate(2) {
		t.Fatal("two units must not fit")
	}
	if !snapshot.CanAccommodate(1) {
		t.Fatal("one unit must fit")
	}

	// a later window clears the pool again
	clear := booking.Window{StartAt: base.Add(3 * time.Hour), EndAt: base.Add(4 * time.Hour)}
	snapshot, err = svc.Capacity(ctx, nil, booking.ModelTarget(modelID), clear)
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if snapshot.FreeUnits != 3 {
		t.Fatalf("expected full pool, got %+v", snapshot)
	}
}

func TestTerminalStatusesReleaseCapacity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	modelID := uuid.New()
	base := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)
	window := booking.Window{StartAt: base, EndAt: base.Add(2 * time.Hour)}

	seedPooledReservation(t, db, modelID, 2, window, enums.LifecycleStatusCancelled)
	seedPooledReservation(t, db, modelID, 1, window, enums.LifecycleStatusCompleted)

	svc := newService(t, db, &fakeProvider{total: inventory.KnownCount(3), external: inventory.KnownCount(0)}, false)

	snapshot, err := svc.Capacity(context.Background(), nil, booking.ModelTarget(modelID), window)
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if snapshot.CommittedUnits != 0 || snapshot.FreeUnits != 3 {
		t.Fatalf("terminal statuses must not hold capacity: %+v", snapshot)
	}
}

func TestBlackoutWinsOverPoolSize(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	modelID := uuid.New()
	base := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)
	window := booking.Window{StartAt: base, EndAt: base.Add(time.Hour)}

	svc := newService(t, db, &fakeProvider{total: inventory.KnownCount(100), external: inventory.KnownCount(0)}, true)

	snapshot, err := svc.Capacity(context.Background(), nil, booking.ModelTarget(modelID), window)
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if !snapshot.Blackout || snapshot.FreeUnits != 0 {
		t.Fatalf("blackout must zero free units: %+v", snapshot)
	}
	if snapshot.Reason != enums.UnavailableReasonBlackout {
		t.Fatalf("expected blackout reason, got %q", snapshot.Reason)
	}
}

func TestUnknownCapacityIsDistinctFromZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	modelID := uuid.New()
	base := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)
	window := booking.Window{StartAt: base, EndAt: base.Add(time.Hour)}

	svc := newService(t, db, &fakeProvider{err: pkgerrors.New(pkgerrors.CodeDependency, "inventory down")}, false)
	ctx := context.Background()

	snapshot, err := svc.Capacity(ctx, nil, booking.ModelTarget(modelID), window)
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if snapshot.Known {
		t.Fatalf("unreachable inventory must be unknown: %+v", snapshot)
	}
	if snapshot.Reason != enums.UnavailableReasonCapacityUnknown {
		t.Fatalf("expected capacity_unknown reason, got %q", snapshot.Reason)
	}
	if snapshot.CanAccommodate(1) {
		t.Fatal("unknown capacity must never accommodate")
	}

	_, err = svc.SnapshotOrErr(ctx, nil, booking.ModelTarget(modelID), window)
	if !pkgerrors.HasCode(err, pkgerrors.CodeCapacityUnknown) {
		t.Fatalf("commit path must fail closed, got %v", err)
	}
}

func TestSingleAssetBinaryCapacity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	assetID := uuid.New()
	base := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)
	booked := booking.Window{StartAt: base, EndAt: base.Add(2 * time.Hour)}

	seedAssetReservation(t, db, assetID, booked, enums.LifecycleStatusPending)

	svc := newService(t, db, &fakeProvider{external: inventory.KnownCount(0)}, false)
	ctx := context.Background()

	overlap := booking.Window{StartAt: base.Add(time.Hour), EndAt: base.Add(3 * time.Hour)}
	snapshot, err := svc.Capacity(ctx, nil, booking.AssetTarget(assetID), overlap)
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if snapshot.FreeUnits != 0 || snapshot.Reason != enums.UnavailableReasonNoCapacity {
		t.Fatalf("booked asset must have no capacity: %+v", snapshot)
	}

	// the adjacent window is free, half-open boundary
	adjacent := booking.Window{StartAt: base.Add(2 * time.Hour), EndAt: base.Add(3 * time.Hour)}
	snapshot, err = svc.Capacity(ctx, nil, booking.AssetTarget(assetID), adjacent)
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if snapshot.FreeUnits != 1 {
		t.Fatalf("adjacent window must be free: %+v", snapshot)
	}
}
