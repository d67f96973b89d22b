package stats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store/storetest"
)

// mapCache keeps JSON in memory the way the redis cache does.
type mapCache struct {
	data   map[string][]byte
	getErr error
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *mapCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

var clinicTZ = time.FixedZone("clinic", 3*3600+1800)

// 22:00 UTC on the 14th is already the 15th in the clinic zone.
var now = time.Date(2025, 1, 14, 22, 0, 0, 0, time.UTC)

func seed(mem *storetest.Memory) {
	a := mem.AddPatient(domain.Patient{Name: "A"})
	b := mem.AddPatient(domain.Patient{Name: "B", Status: domain.StatusCompleted})
	today := domain.MustParseDay("2025-01-15")
	mem.AddAttendance(domain.AttendanceRecord{PatientID: a.ID, Day: today, DiseaseAmount: decimal.NewFromInt(100)})
	mem.AddAttendance(domain.AttendanceRecord{PatientID: b.ID, Day: today, DiseaseAmount: decimal.NewFromInt(100)})
	mem.AddAttendance(domain.AttendanceRecord{PatientID: a.ID, Day: today.AddDays(-3), DiseaseAmount: decimal.NewFromInt(100)})
	mem.AddAttendance(domain.AttendanceRecord{PatientID: a.ID, Day: today.AddDays(-7), DiseaseAmount: decimal.NewFromInt(100)})
}

func TestHome(t *testing.T) {
	mem := storetest.New()
	seed(mem)
	svc := New(mem, nil, Options{Location: clinicTZ, Now: func() time.Time { return now }})

	got, err := svc.Home(context.Background())
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	if got.Day.String() != "2025-01-15" {
		t.Errorf("Day = %s, want clinic date 2025-01-15", got.Day)
	}
	if got.TodayAttendance != 2 || got.TotalPatients != 2 {
		t.Errorf("today = %d, patients = %d", got.TodayAttendance, got.TotalPatients)
	}
	if got.PatientsByStatus[domain.StatusCompleted] != 1 || got.PatientsByStatus[domain.StatusCancelled] != 0 {
		t.Errorf("by status = %v", got.PatientsByStatus)
	}
	if len(got.LastSevenDays) != 7 {
		t.Fatalf("LastSevenDays = %d entries", len(got.LastSevenDays))
	}
	if first := got.LastSevenDays[0]; first.Day.String() != "2025-01-09" || first.Count != 0 {
		t.Errorf("first day = %+v", first)
	}
	if d := got.LastSevenDays[3]; d.Day.String() != "2025-01-12" || d.Count != 1 {
		t.Errorf("2025-01-12 = %+v", d)
	}
	if last := got.LastSevenDays[6]; last.Count != 2 {
		t.Errorf("today bucket = %+v", last)
	}
}

func TestHomeCache(t *testing.T) {
	mem := storetest.New()
	seed(mem)
	cache := newMapCache()
	svc := New(mem, cache, Options{Location: clinicTZ, TTL: time.Minute, Now: func() time.Time { return now }})
	ctx := context.Background()

	first, err := svc.Home(ctx)
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}

	mem.FailOn("HomeStats", errors.New("store down"))
	second, err := svc.Home(ctx)
	if err != nil {
		t.Fatalf("Home() served from cache error = %v", err)
	}
	if second.TodayAttendance != first.TodayAttendance {
		t.Errorf("cached = %+v, want %+v", second, first)
	}

	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := svc.Home(ctx); err == nil {
		t.Error("Home() after invalidate did not reach the store")
	}
}

func TestHomeCacheReadFailureFallsThrough(t *testing.T) {
	mem := storetest.New()
	seed(mem)
	cache := newMapCache()
	cache.getErr = errors.New("redis down")
	svc := New(mem, cache, Options{Location: clinicTZ, TTL: time.Minute, Now: func() time.Time { return now }})

	got, err := svc.Home(context.Background())
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	if got.TodayAttendance != 2 {
		t.Errorf("TodayAttendance = %d, want 2", got.TodayAttendance)
	}
}
