package booking

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
)

func mustWindow(t *testing.T, start, end time.Time) Window {
	t.Helper()
	w, err := NewWindow(start, end)
	if err != nil {
		t.Fatalf("new window: %v", err)
	}
	return w
}

func TestWindowValidate(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{name: "valid", start: base, end: base.Add(time.Hour)},
		{name: "zero length", start: base, end: base, wantErr: true},
		{name: "inverted", start: base.Add(time.Hour), end: base, wantErr: true},
		{name: "missing start", end: base, wantErr: true},
		{name: "missing end", start: base, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWindow(tc.start, tc.end)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestWindowOverlapsHalfOpen(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	morning := mustWindow(t, base, base.Add(3*time.Hour))

	// back-to-back windows share an endpoint but no instant
	afternoon := mustWindow(t, base.Add(3*time.Hour), base.Add(6*time.Hour))
	if morning.Overlaps(afternoon) || afternoon.Overlaps(morning) {
		t.Fatal("back-to-back windows must not overlap")
	}

	overlapping := mustWindow(t, base.Add(2*time.Hour), base.Add(4*time.Hour))
	if !morning.Overlaps(overlapping) || !overlapping.Overlaps(morning) {
		t.Fatal("expected overlap for intersecting windows")
	}

	contained := mustWindow(t, base.Add(time.Hour), base.Add(2*time.Hour))
	if !morning.Overlaps(contained) || !contained.Overlaps(morning) {
		t.Fatal("expected overlap for contained window")
	}

	disjoint := mustWindow(t, base.Add(24*time.Hour), base.Add(25*time.Hour))
	if morning.Overlaps(disjoint) {
		t.Fatal("disjoint windows must not overlap")
	}
}

func TestWindowOverlapsSymmetry(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	randomWindow := func() Window {
		start := base.Add(time.Duration(rng.Intn(720)) * time.Hour)
		return Window{StartAt: start, EndAt: start.Add(time.Duration(1+rng.Intn(72)) * time.Hour)}
	}

	for i := 0; i < 500; i++ {
		a, b := randomWindow(), randomWindow()
		if a.Overlaps(b) != b.Overlaps(a) {
			t.Fatalf("overlap not symmetric for %+v and %+v", a, b)
		}
	}
}

func TestWindowContains(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	w := mustWindow(t, base, base.Add(time.Hour))

	if !w.Contains(base) {
		t.Fatal("window must contain its start")
	}
	if w.Contains(base.Add(time.Hour)) {
		t.Fatal("window must not contain its end")
	}
	if !w.Contains(base.Add(30 * time.Minute)) {
		t.Fatal("window must contain interior instants")
	}
}

func TestTargetValidateAndLockKey(t *testing.T) {
	t.Parallel()

	assetID := uuid.New()
	modelID := uuid.New()

	asset := AssetTarget(assetID)
	if err := asset.Validate(); err != nil {
		t.Fatalf("asset target: %v", err)
	}
	model := ModelTarget(modelID)
	if err := model.Validate(); err != nil {
		t.Fatalf("model target: %v", err)
	}

	if asset.LockKey() == model.LockKey() {
		t.Fatal("asset and model lock keys must differ")
	}
	if asset.LockKey() != AssetTarget(assetID).LockKey() {
		t.Fatal("lock key must be stable for the same target")
	}
	if asset.ID() != assetID || model.ID() != modelID {
		t.Fatal("target id mismatch")
	}

	if err := AssetTarget(uuid.Nil).Validate(); err == nil {
		t.Fatal("expected validation error for nil asset id")
	}
	if err := (Target{Type: "warehouse"}).Validate(); err == nil {
		t.Fatal("expected validation error for unknown target type")
	}
}
