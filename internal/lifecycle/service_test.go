package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/internal/history"
	"github.com/gearbookhq/gearbook-backend/internal/inventory"
	"github.com/gearbookhq/gearbook-backend/internal/reservations"
	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/outbox"
	"github.com/gearbookhq/gearbook-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubSink struct {
	failCheckout bool
	failCheckin  bool
	checkouts    []inventory.CheckoutRequest
	checkins     []inventory.CheckinRequest
}

func (s *stubSink) SetAssetStatus(ctx context.Context, assetID uuid.UUID, status string) error {
	return nil
}

func (s *stubSink) SetAssetLocation(ctx context.Context, assetID uuid.UUID, location string) error {
	return nil
}

func (s *stubSink) CheckoutToUser(ctx context.Context, req inventory.CheckoutRequest) error {
	if s.failCheckout {
		return pkgerrors.New(pkgerrors.CodeDependency, "inventory unreachable")
	}
	s.checkouts = append(s.checkouts, req)
	return nil
}

func (s *stubSink) Checkin(ctx context.Context, req inventory.CheckinRequest) error {
	if s.failCheckin {
		return pkgerrors.New(pkgerrors.CodeDependency, "inventory unreachable")
	}
	s.checkins = append(s.checkins, req)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:lifecycle_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Reservation{}, &models.ReservationItem{}, &models.HistoryEntry{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, sink inventory.Sink) Service {
	t.Helper()
	events := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(reservations.NewRepository(db), gormTxRunner{db: db}, history.NewRepository(db), events, sink, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedReservation(t *testing.T, db *gorm.DB, startAt time.Time, status enums.LifecycleStatus, approval enums.ApprovalStatus) *models.Reservation {
	t.Helper()
	assetID := uuid.New()
	res := &models.Reservation{
		ID:             uuid.New(),
		RequesterName:  "Casey Field",
		RequesterEmail: "casey@example.com",
		ExternalUserID: "u-1",
		TargetType:     enums.TargetTypeAsset,
		AssetID:        &assetID,
		StartAt:        startAt,
		EndAt:          startAt.Add(2 * time.Hour),
		Status:         status,
		ApprovalStatus: approval,
	}
	if err := db.Create(res).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	return res
}

var (
	staff = types.Actor{UserID: "staff-1", Email: "desk@example.com", Role: enums.ActorRoleStaff}
	owner = types.Actor{UserID: "u-1", Email: "casey@example.com", Role: enums.ActorRoleRequester}
)

func TestCheckoutHappyPath(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	sink := &stubSink{}
	svc := newTestService(t, db, sink)
	seeded := seedReservation(t, db, time.Now().Add(time.Hour), enums.LifecycleStatusPending, enums.ApprovalStatusApproved)

	res, err := svc.Checkout(context.Background(), staff, seeded.ID, "handed over at desk")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if res.Status != enums.LifecycleStatusConfirmed {
		t.Fatalf("unexpected status %q", res.Status)
	}
	if len(sink.checkouts) != 1 || sink.checkouts[0].ExternalUserID != "u-1" {
		t.Fatalf("unexpected sink calls %+v", sink.checkouts)
	}
	if !sink.checkouts[0].ExpectedReturn.Equal(seeded.EndAt) {
		t.Fatalf("expected return must be the window end")
	}
}

func TestCheckoutFailsClosedWhenSinkErrors(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &stubSink{failCheckout: true})
	seeded := seedReservation(t, db, time.Now().Add(time.Hour), enums.LifecycleStatusPending, enums.ApprovalStatusApproved)

	_, err := svc.Checkout(context.Background(), staff, seeded.ID, "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	var reloaded models.Reservation
	if err := db.First(&reloaded, "id = ?", seeded.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.LifecycleStatusPending {
		t.Fatalf("sink failure must leave reservation pending, got %q", reloaded.Status)
	}

	var count int64
	if err := db.Model(&models.HistoryEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if count != 0 {
		t.Fatal("rolled-back checkout must not write history")
	}
}

func TestCheckoutRequiresApproval(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &stubSink{})
	seeded := seedReservation(t, db, time.Now().Add(time.Hour), enums.LifecycleStatusPending, enums.ApprovalStatusPendingApproval)

	_, err := svc.Checkout(context.Background(), staff, seeded.ID, "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCheckinCompletedAndMaintenance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	sink := &stubSink{}
	svc := newTestService(t, db, sink)
	ctx := context.Background()

	clean := seedReservation(t, db, time.Now().Add(-time.Hour), enums.LifecycleStatusConfirmed, enums.ApprovalStatusApproved)
	res, err := svc.Checkin(ctx, staff, clean.ID, "all good", false)
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if res.Status != enums.LifecycleStatusCompleted {
		t.Fatalf("unexpected status %q", res.Status)
	}

	broken := seedReservation(t, db, time.Now().Add(-time.Hour), enums.LifecycleStatusConfirmed, enums.ApprovalStatusApproved)
	res, err = svc.Checkin(ctx, staff, broken.ID, "cracked lens", true)
	if err != nil {
		t.Fatalf("maintenance checkin: %v", err)
	}
	if res.Status != enums.LifecycleStatusMaintenanceRequired {
		t.Fatalf("unexpected status %q", res.Status)
	}
	if len(sink.checkins) != 2 || !sink.checkins[1].Maintenance {
		t.Fatalf("unexpected sink calls %+v", sink.checkins)
	}

	// maintenance is terminal
	_, err = svc.Checkin(ctx, staff, broken.ID, "", false)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCancelWindowBoundary(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &stubSink{})
	ctx := context.Background()

	frozen := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return frozen }

	// start five minutes in the future: cancellable
	future := seedReservation(t, db, frozen.Add(5*time.Minute), enums.LifecycleStatusPending, enums.ApprovalStatusPendingApproval)
	res, err := svc.Cancel(ctx, owner, future.ID)
	if err != nil {
		t.Fatalf("cancel future: %v", err)
	}
	if res.Status != enums.LifecycleStatusCancelled {
		t.Fatalf("unexpected status %q", res.Status)
	}

	// start five minutes in the past: refused
	past := seedReservation(t, db, frozen.Add(-5*time.Minute), enums.LifecycleStatusConfirmed, enums.ApprovalStatusApproved)
	_, err = svc.Cancel(ctx, owner, past.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	var reloaded models.Reservation
	if err := db.First(&reloaded, "id = ?", past.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.LifecycleStatusConfirmed {
		t.Fatalf("refused cancel must not change status, got %q", reloaded.Status)
	}
}

func TestCancelOwnership(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &stubSink{})
	seeded := seedReservation(t, db, time.Now().Add(24*time.Hour), enums.LifecycleStatusPending, enums.ApprovalStatusPendingApproval)

	stranger := types.Actor{UserID: "u-2", Role: enums.ActorRoleRequester}
	if _, err := svc.Cancel(context.Background(), stranger, seeded.ID); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if _, err := svc.Cancel(context.Background(), staff, seeded.ID); err != nil {
		t.Fatalf("staff cancel: %v", err)
	}
}
