// Package storetest provides an in-memory store.Store for service tests.
//
// Transactions are serialized by one mutex. Each transaction works on the
// live state and restores a snapshot when it fails, so a failed closure or
// an injected commit fault leaves no trace.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
)

type attKey struct {
	patient uuid.UUID
	day     domain.Day
}

type state struct {
	users         map[uuid.UUID]domain.User
	diseases      map[uuid.UUID]domain.Disease
	patients      map[uuid.UUID]domain.Patient
	attendance    map[attKey]domain.AttendanceRecord
	transactions  map[uuid.UUID]domain.Transaction
	notifications map[uuid.UUID]domain.Notification // keyed by patient
}

func (s state) clone() state {
	return state{
		users:         maps.Clone(s.users),
		diseases:      maps.Clone(s.diseases),
		patients:      maps.Clone(s.patients),
		attendance:    maps.Clone(s.attendance),
		transactions:  maps.Clone(s.transactions),
		notifications: maps.Clone(s.notifications),
	}
}

// Memory implements store.Store.
type Memory struct {
	mu    sync.Mutex
	state state

	failMu sync.Mutex
	failOn map[string]error

	// Now stamps rows the database would default. Defaults to time.Now.
	Now func() time.Time
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		state: state{
			users:         map[uuid.UUID]domain.User{},
			diseases:      map[uuid.UUID]domain.Disease{},
			patients:      map[uuid.UUID]domain.Patient{},
			attendance:    map[attKey]domain.AttendanceRecord{},
			transactions:  map[uuid.UUID]domain.Transaction{},
			notifications: map[uuid.UUID]domain.Notification{},
		},
		failOn: map[string]error{},
		Now:    time.Now,
	}
}

// FailOn makes every later call of method return err. Method is the store
// method name, or "Commit" for the end of WithTx. A nil err clears it.
func (m *Memory) FailOn(method string, err error) {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	if err == nil {
		delete(m.failOn, method)
		return
	}
	m.failOn[method] = err
}

func (m *Memory) fail(method string) error {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	return m.failOn[method]
}

func (m *Memory) Ping(context.Context) error {
	return m.fail("Ping")
}

func (m *Memory) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	snapshot := m.state.clone()
	tx := &memTx{m: m, s: &m.state}

	err := fn(tx)
	tx.done = true
	if err == nil {
		if ferr := m.fail("Commit"); ferr != nil {
			err = fmt.Errorf("commit tx: %w", ferr)
		}
	}
	if err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Seeding and inspection
// ---------------------------------------------------------------------------

func (m *Memory) AddUser(u domain.User) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.state.users[u.ID] = u
	return u
}

func (m *Memory) AddDisease(d domain.Disease) domain.Disease {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.state.diseases[d.ID] = d
	return d
}

// AddPatient inserts p as is, filling id, status and timestamps when unset.
func (m *Memory) AddPatient(p domain.Patient) domain.Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = domain.StatusOngoing
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.Now()
		p.UpdatedAt = p.CreatedAt
	}
	m.state.patients[p.ID] = p
	return p
}

// AddAttendance inserts a record directly, bypassing the engine.
func (m *Memory) AddAttendance(rec domain.AttendanceRecord) domain.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.state.attendance[attKey{rec.PatientID, rec.Day}] = rec
	return rec
}

func (m *Memory) Patient(id uuid.UUID) (domain.Patient, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.patients[id]
	return p, ok
}

// Attendance returns the patient's records ordered by day.
func (m *Memory) Attendance(patientID uuid.UUID) []domain.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AttendanceRecord
	for k, rec := range m.state.attendance {
		if k.patient == patientID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

func (m *Memory) Notification(patientID uuid.UUID) (domain.Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.state.notifications[patientID]
	return n, ok
}

func (m *Memory) Transactions(patientID uuid.UUID) []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.state.transactions {
		if t.PatientID == patientID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ---------------------------------------------------------------------------
// Transaction
// ---------------------------------------------------------------------------

type memTx struct {
	m    *Memory
	s    *state
	done bool
}

var errTxDone = errors.New("transaction already closed")

func (t *memTx) check(method string) error {
	if t.done {
		return errTxDone
	}
	return t.m.fail(method)
}

func (t *memTx) LockPatient(_ context.Context, id uuid.UUID) (domain.Patient, error) {
	if err := t.check("LockPatient"); err != nil {
		return domain.Patient{}, err
	}
	p, ok := t.s.patients[id]
	if !ok {
		return domain.Patient{}, fmt.Errorf("lock patient: %w", store.ErrNoRows)
	}
	return p, nil
}

func (t *memTx) AddAmountPaid(_ context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := t.check("AddAmountPaid"); err != nil {
		return decimal.Zero, err
	}
	p, ok := t.s.patients[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("add amount paid: %w", store.ErrNoRows)
	}
	p.AmountPaid = p.AmountPaid.Add(delta)
	t.s.patients[id] = p
	return p.AmountPaid, nil
}

func (t *memTx) AttendanceOn(_ context.Context, patientID uuid.UUID, day domain.Day) (domain.AttendanceRecord, bool, error) {
	if err := t.check("AttendanceOn"); err != nil {
		return domain.AttendanceRecord{}, false, err
	}
	rec, ok := t.s.attendance[attKey{patientID, day}]
	return rec, ok, nil
}

func (t *memTx) upsert(rec domain.AttendanceRecord) domain.AttendanceRecord {
	k := attKey{rec.PatientID, rec.Day}
	if cur, ok := t.s.attendance[k]; ok {
		cur.DiseaseName = rec.DiseaseName
		cur.DiseaseAmount = rec.DiseaseAmount
		cur.MarkedAt = rec.MarkedAt
		rec = cur
	}
	t.s.attendance[k] = rec
	return rec
}

func (t *memTx) UpsertAttendance(_ context.Context, rec domain.AttendanceRecord) (domain.AttendanceRecord, error) {
	if err := t.check("UpsertAttendance"); err != nil {
		return domain.AttendanceRecord{}, err
	}
	if _, ok := t.s.patients[rec.PatientID]; !ok {
		return domain.AttendanceRecord{}, fmt.Errorf("upsert attendance: %w", store.ErrForeignKey)
	}
	return t.upsert(rec), nil
}

func (t *memTx) DeleteAttendance(_ context.Context, patientID uuid.UUID, day domain.Day) (int64, error) {
	if err := t.check("DeleteAttendance"); err != nil {
		return 0, err
	}
	k := attKey{patientID, day}
	if _, ok := t.s.attendance[k]; !ok {
		return 0, nil
	}
	delete(t.s.attendance, k)
	return 1, nil
}

func (t *memTx) AttendanceTotals(_ context.Context, patientID uuid.UUID) (store.Totals, error) {
	if err := t.check("AttendanceTotals"); err != nil {
		return store.Totals{}, err
	}
	return totals(t.s, patientID), nil
}

func totals(s *state, patientID uuid.UUID) store.Totals {
	out := store.Totals{Bill: decimal.Zero}
	for k, rec := range s.attendance {
		if k.patient == patientID {
			out.Count++
			out.Bill = out.Bill.Add(rec.DiseaseAmount)
		}
	}
	return out
}

func (t *memTx) UpsertAttendanceBatch(_ context.Context, b store.AttendanceBatch) (int64, error) {
	if err := t.check("UpsertAttendanceBatch"); err != nil {
		return 0, err
	}
	for _, e := range b.Entries {
		if _, ok := t.s.patients[e.PatientID]; !ok {
			return 0, fmt.Errorf("bulk upsert attendance: %w", store.ErrForeignKey)
		}
	}
	for _, e := range b.Entries {
		t.upsert(domain.AttendanceRecord{
			ID:            uuid.New(),
			PatientID:     e.PatientID,
			Day:           b.Day,
			DiseaseName:   e.DiseaseName,
			DiseaseAmount: e.DiseaseAmount,
			AddedBy:       b.AddedBy,
			MarkedAt:      b.MarkedAt,
		})
	}
	return int64(len(b.Entries)), nil
}

func (t *memTx) DeleteAttendanceBatch(_ context.Context, day domain.Day, patientIDs []uuid.UUID) (int64, error) {
	if err := t.check("DeleteAttendanceBatch"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range patientIDs {
		k := attKey{id, day}
		if _, ok := t.s.attendance[k]; ok {
			delete(t.s.attendance, k)
			n++
		}
	}
	return n, nil
}

func (t *memTx) NotificationFor(_ context.Context, patientID uuid.UUID) (domain.Notification, bool, error) {
	if err := t.check("NotificationFor"); err != nil {
		return domain.Notification{}, false, err
	}
	n, ok := t.s.notifications[patientID]
	return n, ok, nil
}

func (t *memTx) SaveNotification(_ context.Context, n domain.Notification) (domain.Notification, error) {
	if err := t.check("SaveNotification"); err != nil {
		return domain.Notification{}, err
	}
	if _, ok := t.s.patients[n.PatientID]; !ok {
		return domain.Notification{}, fmt.Errorf("save notification: %w", store.ErrForeignKey)
	}
	if cur, ok := t.s.notifications[n.PatientID]; ok {
		n.ID = cur.ID
		n.CreatedAt = cur.CreatedAt
	} else {
		n.CreatedAt = n.UpdatedAt
	}
	n.AmountPaid = nil
	t.s.notifications[n.PatientID] = n
	return n, nil
}

func (t *memTx) DeleteNotification(_ context.Context, patientID uuid.UUID) (int64, error) {
	if err := t.check("DeleteNotification"); err != nil {
		return 0, err
	}
	if _, ok := t.s.notifications[patientID]; !ok {
		return 0, nil
	}
	delete(t.s.notifications, patientID)
	return 1, nil
}

func (t *memTx) InsertTransaction(_ context.Context, tr domain.Transaction) (domain.Transaction, error) {
	if err := t.check("InsertTransaction"); err != nil {
		return domain.Transaction{}, err
	}
	if _, ok := t.s.patients[tr.PatientID]; !ok {
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", store.ErrForeignKey)
	}
	if tr.Amount.IsZero() {
		return domain.Transaction{}, errors.New("insert transaction: amount violates check constraint")
	}
	if _, ok := t.s.transactions[tr.ID]; ok {
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", store.ErrDuplicate)
	}
	tr.PatientName, tr.CreatorName = "", nil
	t.s.transactions[tr.ID] = tr
	return tr, nil
}

func (t *memTx) LockTransaction(_ context.Context, id uuid.UUID) (domain.Transaction, error) {
	if err := t.check("LockTransaction"); err != nil {
		return domain.Transaction{}, err
	}
	tr, ok := t.s.transactions[id]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("lock transaction: %w", store.ErrNoRows)
	}
	return tr, nil
}

func (t *memTx) DeleteTransaction(_ context.Context, id uuid.UUID) (int64, error) {
	if err := t.check("DeleteTransaction"); err != nil {
		return 0, err
	}
	if _, ok := t.s.transactions[id]; !ok {
		return 0, nil
	}
	delete(t.s.transactions, id)
	return 1, nil
}

// ---------------------------------------------------------------------------
// Reads and plain writes
// ---------------------------------------------------------------------------

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (m *Memory) patientRow(p domain.Patient, date *domain.Day) domain.PatientRow {
	t := totals(&m.state, p.ID)
	row := domain.PatientRow{
		Patient:         p,
		AttendanceCount: t.Count,
		TotalBill:       t.Bill,
		Due:             t.Bill.Sub(p.AmountPaid),
	}
	if p.DiseaseID != nil {
		if d, ok := m.state.diseases[*p.DiseaseID]; ok {
			row.Disease = &d
		}
	}
	if p.CreatedBy != nil {
		if u, ok := m.state.users[*p.CreatedBy]; ok {
			row.CreatedByName = &u.Name
		}
	}
	if p.UpdatedBy != nil {
		if u, ok := m.state.users[*p.UpdatedBy]; ok {
			row.UpdatedByName = &u.Name
		}
	}
	if date != nil {
		row.Attendance = &domain.DayAttendance{}
		if rec, ok := m.state.attendance[attKey{p.ID, *date}]; ok {
			name, amount, at := rec.DiseaseName, rec.DiseaseAmount, rec.MarkedAt
			row.Attendance = &domain.DayAttendance{IsPresent: true, Disease: &name, Amount: &amount, MarkedAt: &at}
		}
	}
	return row
}

func (m *Memory) ListPatients(_ context.Context, f store.PatientFilter) ([]domain.PatientRow, int, error) {
	if err := m.fail("ListPatients"); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.Patient
	for _, p := range m.state.patients {
		if q := strings.TrimSpace(f.Search); q != "" && !contains(p.Name, q) && !contains(p.Phone, q) {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	var out []domain.PatientRow
	for _, p := range window(matched, f.Limit, f.Offset) {
		out = append(out, m.patientRow(p, f.Date))
	}
	return out, len(matched), nil
}

func (m *Memory) GetPatient(_ context.Context, id uuid.UUID) (domain.PatientRow, error) {
	if err := m.fail("GetPatient"); err != nil {
		return domain.PatientRow{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.patients[id]
	if !ok {
		return domain.PatientRow{}, fmt.Errorf("get patient: %w", store.ErrNoRows)
	}
	return m.patientRow(p, nil), nil
}

func (m *Memory) CreatePatient(_ context.Context, p domain.Patient) (domain.Patient, error) {
	if err := m.fail("CreatePatient"); err != nil {
		return domain.Patient{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.patients[p.ID]; ok {
		return domain.Patient{}, fmt.Errorf("create patient: %w", store.ErrDuplicate)
	}
	if p.DiseaseID != nil {
		if _, ok := m.state.diseases[*p.DiseaseID]; !ok {
			return domain.Patient{}, fmt.Errorf("create patient: %w", store.ErrForeignKey)
		}
	}
	if p.CreatedBy != nil {
		if _, ok := m.state.users[*p.CreatedBy]; !ok {
			return domain.Patient{}, fmt.Errorf("create patient: %w", store.ErrForeignKey)
		}
	}
	p.AmountPaid = decimal.Zero
	p.UpdatedBy = p.CreatedBy
	p.UpdatedAt = p.CreatedAt
	m.state.patients[p.ID] = p
	return p, nil
}

func (m *Memory) UpdatePatient(_ context.Context, id uuid.UUID, patch store.PatientPatch) (domain.Patient, error) {
	if err := m.fail("UpdatePatient"); err != nil {
		return domain.Patient{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.patients[id]
	if !ok {
		return domain.Patient{}, fmt.Errorf("update patient: %w", store.ErrNoRows)
	}
	if patch.DiseaseID != nil {
		if _, ok := m.state.diseases[*patch.DiseaseID]; !ok {
			return domain.Patient{}, fmt.Errorf("update patient: %w", store.ErrForeignKey)
		}
		p.DiseaseID = patch.DiseaseID
	}
	if patch.UpdatedBy != nil {
		if _, ok := m.state.users[*patch.UpdatedBy]; !ok {
			return domain.Patient{}, fmt.Errorf("update patient: %w", store.ErrForeignKey)
		}
		p.UpdatedBy = patch.UpdatedBy
	}
	setIf(&p.Name, patch.Name)
	setIf(&p.FatherName, patch.FatherName)
	setIf(&p.Gender, patch.Gender)
	setIf(&p.Phone, patch.Phone)
	setIf(&p.Address, patch.Address)
	setIf(&p.Status, patch.Status)
	setIf(&p.EnrollmentDate, patch.EnrollmentDate)
	if patch.DOB != nil {
		p.DOB = patch.DOB
	}
	p.UpdatedAt = patch.UpdatedAt
	m.state.patients[id] = p
	return p, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (m *Memory) DeletePatient(_ context.Context, id uuid.UUID) (int64, error) {
	if err := m.fail("DeletePatient"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.patients[id]; !ok {
		return 0, nil
	}
	delete(m.state.patients, id)
	delete(m.state.notifications, id)
	for k := range m.state.attendance {
		if k.patient == id {
			delete(m.state.attendance, k)
		}
	}
	for tid, tr := range m.state.transactions {
		if tr.PatientID == id {
			delete(m.state.transactions, tid)
		}
	}
	return 1, nil
}

func (m *Memory) ListAttendance(_ context.Context, f store.AttendanceFilter) ([]domain.AttendanceRecord, int, error) {
	if err := m.fail("ListAttendance"); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.AttendanceRecord
	for k, rec := range m.state.attendance {
		if k.patient != f.PatientID {
			continue
		}
		if q := strings.TrimSpace(f.Search); q != "" && !contains(rec.DiseaseName, q) {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[j].Day.Before(matched[i].Day) })
	return window(matched, f.Limit, f.Offset), len(matched), nil
}

func (m *Memory) ListNotifications(_ context.Context, f store.NotificationFilter) (store.NotificationList, error) {
	if err := m.fail("ListNotifications"); err != nil {
		return store.NotificationList{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		out     store.NotificationList
		matched []domain.Notification
	)
	for _, n := range m.state.notifications {
		if !n.IsRead {
			out.Unread++
		}
		if q := strings.TrimSpace(f.Search); q != "" && !contains(n.PatientName, q) && !contains(n.Message, q) {
			continue
		}
		if f.Read != nil && n.IsRead != *f.Read {
			continue
		}
		paid := m.state.patients[n.PatientID].AmountPaid
		n.AmountPaid = &paid
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	out.Total = len(matched)
	out.Items = window(matched, f.Limit, f.Offset)
	return out, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, id uuid.UUID) (int64, error) {
	if err := m.fail("MarkNotificationRead"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for pid, n := range m.state.notifications {
		if n.ID == id {
			n.IsRead = true
			m.state.notifications[pid] = n
			return 1, nil
		}
	}
	return 0, nil
}

func (m *Memory) MarkAllNotificationsRead(context.Context) (int64, error) {
	if err := m.fail("MarkAllNotificationsRead"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for pid, note := range m.state.notifications {
		if !note.IsRead {
			note.IsRead = true
			m.state.notifications[pid] = note
			n++
		}
	}
	return n, nil
}

func (m *Memory) withNames(tr domain.Transaction) domain.Transaction {
	tr.PatientName = m.state.patients[tr.PatientID].Name
	if tr.CreatedBy != nil {
		if u, ok := m.state.users[*tr.CreatedBy]; ok {
			tr.CreatorName = &u.Name
		}
	}
	return tr
}

func (m *Memory) GetTransaction(_ context.Context, id uuid.UUID) (domain.Transaction, error) {
	if err := m.fail("GetTransaction"); err != nil {
		return domain.Transaction{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.state.transactions[id]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", store.ErrNoRows)
	}
	return m.withNames(tr), nil
}

func (m *Memory) ListTransactions(_ context.Context, f store.TransactionFilter) ([]domain.Transaction, int, error) {
	if err := m.fail("ListTransactions"); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.Transaction
	for _, tr := range m.state.transactions {
		if f.PatientID != nil && tr.PatientID != *f.PatientID {
			continue
		}
		if f.From != nil && tr.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !tr.CreatedAt.Before(*f.To) {
			continue
		}
		matched = append(matched, m.withNames(tr))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return window(matched, f.Limit, f.Offset), len(matched), nil
}

func (m *Memory) HomeStats(_ context.Context, today domain.Day, loc *time.Location) (domain.HomeStats, error) {
	if err := m.fail("HomeStats"); err != nil {
		return domain.HomeStats{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := domain.HomeStats{
		Day:              today,
		TodayRevenue:     decimal.Zero,
		PatientsByStatus: make(map[domain.Status]int, len(domain.Statuses)),
	}
	for _, st := range domain.Statuses {
		out.PatientsByStatus[st] = 0
	}
	for _, p := range m.state.patients {
		out.PatientsByStatus[p.Status]++
		out.TotalPatients++
	}

	weekStart := today.AddDays(-6)
	byDay := map[domain.Day]int{}
	for k := range m.state.attendance {
		if k.day == today {
			out.TodayAttendance++
		}
		if !k.day.Before(weekStart) && !today.Before(k.day) {
			byDay[k.day]++
		}
	}
	for i := 0; i < 7; i++ {
		d := weekStart.AddDays(i)
		out.LastSevenDays = append(out.LastSevenDays, domain.DayCount{Day: d, Count: byDay[d]})
	}

	from, to := today.Start(loc), today.AddDays(1).Start(loc)
	for _, tr := range m.state.transactions {
		if !tr.CreatedAt.Before(from) && tr.CreatedAt.Before(to) {
			out.TodayRevenue = out.TodayRevenue.Add(tr.Amount)
		}
	}
	return out, nil
}

func (m *Memory) UpsertUser(_ context.Context, u domain.User) (domain.User, error) {
	if err := m.fail("UpsertUser"); err != nil {
		return domain.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, cur := range m.state.users {
		if strings.EqualFold(cur.Email, u.Email) {
			cur.Name = u.Name
			m.state.users[id] = cur
			return cur, nil
		}
	}
	m.state.users[u.ID] = u
	return u, nil
}
