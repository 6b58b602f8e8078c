package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/verident/registry/pkg/audit"
	"github.com/verident/registry/pkg/common/logger"
	"github.com/verident/registry/pkg/common/models"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrInvalidID  = errors.New("invalid record id")
)

const (
	ActionCreated = "record.created"
	ActionUpdated = "record.updated"
	ActionDeleted = "record.deleted"
)

// Store is the persistence contract the service drives. The gorm-backed
// Repository satisfies it; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, input CreateRecordInput) (models.Record, error)
	Get(ctx context.Context, id uuid.UUID) (models.Record, error)
	List(ctx context.Context) ([]models.Record, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (models.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context) (models.RecordStats, error)
}

type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, action, recordID, actor string, data map[string]interface{}) error
}

type AuditTrail interface {
	Append(ctx context.Context, entry audit.Entry) error
}

type Service struct {
	store   Store
	policy  Policy
	cache   *StatsCache
	events  EventPublisher
	trail   AuditTrail
	nowFunc func() time.Time
}

// NewService wires the record workflow. cache, events and trail may each be
// nil; the corresponding side channel is then skipped.
func NewService(store Store, policy Policy, cache *StatsCache, events EventPublisher, trail AuditTrail) *Service {
	return &Service{
		store:   store,
		policy:  policy,
		cache:   cache,
		events:  events,
		trail:   trail,
		nowFunc: time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]models.Record, error) {
	return s.store.List(ctx)
}

// Get treats a malformed id the same as a missing record: both surface as
// not-found, matching the external contract.
func (s *Service) Get(ctx context.Context, id string) (models.Record, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return models.Record{}, ErrInvalidID
	}
	return s.store.Get(ctx, recordID)
}

func (s *Service) Create(ctx context.Context, actor string, req models.CreateRecordRequest) (models.Record, error) {
	if req.Name == "" {
		return models.Record{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.DateOfDeath == "" {
		return models.Record{}, fmt.Errorf("%w: dateOfDeath is required", ErrValidation)
	}
	if req.SSN == "" {
		return models.Record{}, fmt.Errorf("%w: ssn is required", ErrValidation)
	}
	if !s.policy.ValidSSN(req.SSN) {
		return models.Record{}, fmt.Errorf("%w: ssn has an invalid format", ErrValidation)
	}

	dateOfDeath, err := parseDeathDate(req.DateOfDeath)
	if err != nil {
		return models.Record{}, err
	}

	status := req.Status
	if status == "" {
		status = models.StatusPending
	}
	if !models.ValidStatus(status) {
		return models.Record{}, fmt.Errorf("%w: unknown status", ErrValidation)
	}

	now := s.nowFunc().UTC()
	input := CreateRecordInput{
		Name:         req.Name,
		DateOfDeath:  dateOfDeath,
		SSN:          req.SSN,
		Status:       status,
		LastUpdated:  now,
		MedicalNotes: req.MedicalNotes,
		VerifiedBy:   req.VerifiedBy,
	}
	if req.DocumentVerified != nil {
		input.DocumentVerified = *req.DocumentVerified
	}

	record, err := s.store.Create(ctx, input)
	if err != nil {
		return models.Record{}, err
	}

	s.afterMutation(ctx, ActionCreated, actor, record.ID.String(), map[string]interface{}{
		"status": record.Status,
	})
	return record, nil
}

func (s *Service) Update(ctx context.Context, actor, id string, req models.UpdateRecordRequest) (models.Record, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return models.Record{}, ErrInvalidID
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return models.Record{}, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		updates["name"] = *req.Name
	}
	if req.DateOfDeath != nil {
		dateOfDeath, err := parseDeathDate(*req.DateOfDeath)
		if err != nil {
			return models.Record{}, err
		}
		updates["date_of_death"] = dateOfDeath
	}
	if req.SSN != nil {
		if !s.policy.ValidSSN(*req.SSN) {
			return models.Record{}, fmt.Errorf("%w: ssn has an invalid format", ErrValidation)
		}
		updates["ssn"] = *req.SSN
	}
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			return models.Record{}, fmt.Errorf("%w: unknown status", ErrValidation)
		}
		updates["status"] = *req.Status
	}
	if req.DocumentVerified != nil {
		updates["document_verified"] = *req.DocumentVerified
	}
	if req.MedicalNotes != nil {
		updates["medical_notes"] = *req.MedicalNotes
	}
	if req.VerifiedBy != nil {
		updates["verified_by"] = *req.VerifiedBy
	}

	// lastUpdated is rewritten on every update, whatever the payload.
	updates["last_updated"] = s.nowFunc().UTC()
	updates["updated_at"] = s.nowFunc().UTC()

	record, err := s.store.Update(ctx, recordID, updates)
	if err != nil {
		return models.Record{}, err
	}

	s.afterMutation(ctx, ActionUpdated, actor, record.ID.String(), map[string]interface{}{
		"status": record.Status,
	})
	return record, nil
}

func (s *Service) Delete(ctx context.Context, actor, id string) error {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidID
	}

	if err := s.store.Delete(ctx, recordID); err != nil {
		return err
	}

	s.afterMutation(ctx, ActionDeleted, actor, recordID.String(), nil)
	return nil
}

func (s *Service) Stats(ctx context.Context) (models.RecordStats, error) {
	if stats, ok := s.cache.Get(ctx); ok {
		return stats, nil
	}

	stats, err := s.store.Counts(ctx)
	if err != nil {
		return models.RecordStats{}, err
	}
	s.cache.Set(ctx, stats)
	return stats, nil
}

// afterMutation fans a successful mutation out to the stats cache, the
// event topic and the audit trail. All three are best effort.
func (s *Service) afterMutation(ctx context.Context, action, actor, recordID string, data map[string]interface{}) {
	s.cache.Invalidate(ctx)

	if s.events != nil {
		if err := s.events.PublishRecordEvent(ctx, action, recordID, actor, data); err != nil {
			logger.Log.WithError(err).WithField("action", action).Warn("Record event not published")
		}
	}
	if s.trail != nil {
		entry := audit.Entry{
			Actor:    actor,
			Action:   action,
			Entity:   "record",
			EntityID: recordID,
			Payload:  data,
		}
		if err := s.trail.Append(ctx, entry); err != nil {
			logger.Log.WithError(err).WithField("action", action).Warn("Audit entry not written")
		}
	}
}

func parseDeathDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: dateOfDeath must be a date or RFC 3339 timestamp", ErrValidation)
}
