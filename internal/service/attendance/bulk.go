package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/service/notification"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
)

// collapse keeps the last record per patient, ordered by each patient's
// first appearance.
func collapse(records []BulkRecord) ([]BulkRecord, error) {
	idx := make(map[uuid.UUID]int, len(records))
	out := make([]BulkRecord, 0, len(records))
	for i, r := range records {
		if r.PatientID == uuid.Nil {
			return nil, fmt.Errorf("records[%d]: %w", i, ErrPatientRequired)
		}
		if _, err := amountOf(r.DiseaseAmount); err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		if j, seen := idx[r.PatientID]; seen {
			out[j] = r
			continue
		}
		idx[r.PatientID] = len(out)
		out = append(out, r)
	}
	return out, nil
}

func (s *attendanceService) BulkMark(ctx context.Context, req BulkMarkRequest) (BulkMarkResult, error) {
	day, err := parseDate(req.Date)
	if err != nil {
		return BulkMarkResult{}, err
	}
	if len(req.Records) == 0 {
		return BulkMarkResult{}, ErrRecordsRequired
	}
	records, err := collapse(req.Records)
	if err != nil {
		return BulkMarkResult{}, err
	}

	now := s.now()
	batch := store.AttendanceBatch{Day: day, AddedBy: req.AddedBy, MarkedAt: day.At(now)}
	var absent []uuid.UUID
	isAbsent := make(map[uuid.UUID]bool)
	for _, r := range records {
		if !r.IsPresent {
			absent = append(absent, r.PatientID)
			isAbsent[r.PatientID] = true
			continue
		}
		amount, _ := amountOf(r.DiseaseAmount)
		batch.Entries = append(batch.Entries, store.BatchEntry{
			PatientID:     r.PatientID,
			DiseaseName:   strings.TrimSpace(r.DiseaseName),
			DiseaseAmount: amount,
		})
	}

	// Counts cover the submitted records, before last-wins collapsing.
	res := BulkMarkResult{Date: day, Reconciled: s.opts.BulkReconcile}
	for _, r := range req.Records {
		if r.IsPresent {
			res.PresentCount++
		} else {
			res.AbsentCount++
		}
	}
	var milestones []*domain.Notification

	err = s.st.WithTx(ctx, func(tx store.Tx) error {
		var patients []domain.Patient
		if s.opts.BulkReconcile {
			ids := make([]uuid.UUID, len(records))
			for i, r := range records {
				ids[i] = r.PatientID
			}
			// A fixed lock order keeps concurrent batches from deadlocking.
			sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
			for _, id := range ids {
				p, err := tx.LockPatient(ctx, id)
				if err != nil {
					// An unknown patient marked absent has nothing to delete or reconcile.
					if errors.Is(err, domain.ErrNotFound) && isAbsent[id] {
						continue
					}
					return patientErr(err)
				}
				patients = append(patients, p)
			}
		}

		if _, err := tx.UpsertAttendanceBatch(ctx, batch); err != nil {
			return err
		}
		if _, err := tx.DeleteAttendanceBatch(ctx, day, absent); err != nil {
			return err
		}

		for _, p := range patients {
			totals, err := tx.AttendanceTotals(ctx, p.ID)
			if err != nil {
				return err
			}
			out, err := s.deriver.Reconcile(ctx, tx, notification.Input{
				PatientID:   p.ID,
				PatientName: p.Name,
				Count:       totals.Count,
				TotalBill:   totals.Bill,
				Now:         now,
			})
			if err != nil {
				return err
			}
			if out.Outcome.Reached() {
				milestones = append(milestones, out.Notification)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			err = fmt.Errorf("%w: %w", ErrPatientNotFound, err)
		}
		return BulkMarkResult{}, fmt.Errorf("bulk mark attendance: %w", err)
	}

	s.marked.Add(ctx, int64(res.PresentCount), metric.WithAttributes(attribute.Bool("present", true)))
	s.marked.Add(ctx, int64(res.AbsentCount), metric.WithAttributes(attribute.Bool("present", false)))

	s.publish(ctx, events.SubjectBulkMarked, events.BulkMarked{
		Date:         day.String(),
		PresentCount: res.PresentCount,
		AbsentCount:  res.AbsentCount,
		At:           now,
	})
	for _, n := range milestones {
		s.publish(ctx, events.SubjectMilestoneReached, milestoneEvent(n, day))
	}

	return res, nil
}
