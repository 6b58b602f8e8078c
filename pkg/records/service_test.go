package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/verident/registry/pkg/common/models"
)

type fakeStore struct {
	records map[uuid.UUID]models.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[uuid.UUID]models.Record)}
}

func (f *fakeStore) Create(ctx context.Context, input CreateRecordInput) (models.Record, error) {
	for _, existing := range f.records {
		if existing.SSN == input.SSN {
			return models.Record{}, ErrSSNAlreadyExists
		}
	}
	record := models.Record{
		ID:               uuid.New(),
		Name:             input.Name,
		DateOfDeath:      input.DateOfDeath,
		SSN:              input.SSN,
		Status:           input.Status,
		DocumentVerified: input.DocumentVerified,
		LastUpdated:      input.LastUpdated,
		MedicalNotes:     input.MedicalNotes,
		VerifiedBy:       input.VerifiedBy,
	}
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeStore) Get(ctx context.Context, id uuid.UUID) (models.Record, error) {
	record, ok := f.records[id]
	if !ok {
		return models.Record{}, ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeStore) List(ctx context.Context) ([]models.Record, error) {
	out := make([]models.Record, 0, len(f.records))
	for _, record := range f.records {
		out = append(out, record)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (models.Record, error) {
	record, ok := f.records[id]
	if !ok {
		return models.Record{}, ErrRecordNotFound
	}
	if v, ok := updates["name"]; ok {
		record.Name = v.(string)
	}
	if v, ok := updates["ssn"]; ok {
		record.SSN = v.(string)
	}
	if v, ok := updates["status"]; ok {
		record.Status = v.(string)
	}
	if v, ok := updates["medical_notes"]; ok {
		record.MedicalNotes = v.(string)
	}
	if v, ok := updates["verified_by"]; ok {
		record.VerifiedBy = v.(string)
	}
	if v, ok := updates["document_verified"]; ok {
		record.DocumentVerified = v.(bool)
	}
	if v, ok := updates["date_of_death"]; ok {
		record.DateOfDeath = v.(time.Time)
	}
	if v, ok := updates["last_updated"]; ok {
		record.LastUpdated = v.(time.Time)
	}
	f.records[id] = record
	return record, nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.records[id]; !ok {
		return ErrRecordNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) Counts(ctx context.Context) (models.RecordStats, error) {
	var stats models.RecordStats
	for _, record := range f.records {
		stats.Total++
		switch record.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusVerified:
			stats.Verified++
		case models.StatusProcessed:
			stats.Processed++
		}
	}
	return stats, nil
}

func newTestService(store Store) *Service {
	return NewService(store, DefaultPolicy(), nil, nil, nil)
}

func validCreateRequest() models.CreateRecordRequest {
	return models.CreateRecordRequest{
		Name:        "Jane Doe",
		DateOfDeath: "2023-01-01",
		SSN:         "123-45-6789",
	}
}

func TestCreateRequiredFields(t *testing.T) {
	s := newTestService(newFakeStore())
	ctx := context.Background()

	cases := []models.CreateRecordRequest{
		{DateOfDeath: "2023-01-01", SSN: "123-45-6789"},
		{Name: "Jane Doe", SSN: "123-45-6789"},
		{Name: "Jane Doe", DateOfDeath: "2023-01-01"},
	}
	for _, req := range cases {
		if _, err := s.Create(ctx, "", req); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", req, err)
		}
	}
}

func TestCreateRejectsBadSSNAndStatus(t *testing.T) {
	s := newTestService(newFakeStore())
	ctx := context.Background()

	req := validCreateRequest()
	req.SSN = "123456789"
	if _, err := s.Create(ctx, "", req); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unformatted ssn, got %v", err)
	}

	req = validCreateRequest()
	req.Status = "archived"
	if _, err := s.Create(ctx, "", req); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown status, got %v", err)
	}
}

func TestCreateDefaultsAndDuplicateSSN(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	ctx := context.Background()

	record, err := s.Create(ctx, "", validCreateRequest())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if record.Status != models.StatusPending {
		t.Fatalf("expected default status pending, got %q", record.Status)
	}
	if record.LastUpdated.IsZero() {
		t.Fatal("expected lastUpdated to be set on create")
	}

	// A second create with the same ssn must fail and leave the original.
	dup := validCreateRequest()
	dup.Name = "Someone Else"
	if _, err := s.Create(ctx, "", dup); !errors.Is(err, ErrSSNAlreadyExists) {
		t.Fatalf("expected ErrSSNAlreadyExists, got %v", err)
	}

	got, err := s.Get(ctx, record.ID.String())
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Name != "Jane Doe" {
		t.Fatalf("original record changed: %+v", got)
	}
}

func TestUpdateMergesAndRefreshesLastUpdated(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return base }

	record, err := s.Create(ctx, "", validCreateRequest())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	s.nowFunc = func() time.Time { return base.Add(time.Minute) }

	status := models.StatusVerified
	notes := "coroner report attached"
	updated, err := s.Update(ctx, "", record.ID.String(), models.UpdateRecordRequest{
		Status:       &status,
		MedicalNotes: &notes,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if updated.Status != models.StatusVerified || updated.MedicalNotes != notes {
		t.Fatalf("merge not applied: %+v", updated)
	}
	if updated.Name != "Jane Doe" {
		t.Fatalf("untouched field changed: %+v", updated)
	}
	if !updated.LastUpdated.After(record.LastUpdated) {
		t.Fatalf("lastUpdated not refreshed: %s -> %s", record.LastUpdated, updated.LastUpdated)
	}

	got, err := s.Get(ctx, record.ID.String())
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != models.StatusVerified {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestUpdateInvalidInput(t *testing.T) {
	s := newTestService(newFakeStore())
	ctx := context.Background()

	if _, err := s.Update(ctx, "", "not-a-uuid", models.UpdateRecordRequest{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	badSSN := "nope"
	if _, err := s.Update(ctx, "", uuid.NewString(), models.UpdateRecordRequest{SSN: &badSSN}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteThenGetNotFound(t *testing.T) {
	s := newTestService(newFakeStore())
	ctx := context.Background()

	record, err := s.Create(ctx, "", validCreateRequest())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := s.Delete(ctx, "", record.ID.String()); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Get(ctx, record.ID.String()); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "", record.ID.String()); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for second delete, got %v", err)
	}
}

func TestStatsCountsCreates(t *testing.T) {
	s := newTestService(newFakeStore())
	ctx := context.Background()

	before, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}

	if _, err := s.Create(ctx, "", validCreateRequest()); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	after, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if after.Total != before.Total+1 || after.Pending != before.Pending+1 {
		t.Fatalf("expected total and pending to grow by one: %+v -> %+v", before, after)
	}
	if after.Pending+after.Verified+after.Processed > after.Total {
		t.Fatalf("status counts exceed total: %+v", after)
	}
}
