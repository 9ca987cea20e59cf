package rdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/domain/model"
)

// RunRepository implements domain.RunJournal.
type RunRepository struct{ db *gorm.DB }

func NewRunRepository(db *gorm.DB) *RunRepository { return &RunRepository{db: db} }

// OpenJournal opens the database at dbURL, migrates it and returns the journal.
func OpenJournal(dbURL string) (*RunRepository, error) {
	db, err := OpenFromURL(dbURL)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return NewRunRepository(db), nil
}

func runToRecord(r *model.Run) (*RunRecord, error) {
	rec := &RunRecord{
		ID:         r.ID,
		Operation:  r.Operation,
		Source:     r.Source,
		State:      string(r.State),
		Error:      r.Error,
		Digest:     r.Digest,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if len(r.Documents) > 0 {
		b, err := json.Marshal(r.Documents)
		if err != nil {
			return nil, err
		}
		rec.Documents = string(b)
	}
	return rec, nil
}

func runToModel(rec *RunRecord) (*model.Run, error) {
	r := &model.Run{
		ID:         rec.ID,
		Operation:  rec.Operation,
		Source:     rec.Source,
		State:      model.RunState(rec.State),
		Error:      rec.Error,
		Digest:     rec.Digest,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}
	if rec.Documents != "" {
		if err := json.Unmarshal([]byte(rec.Documents), &r.Documents); err != nil {
			return nil, fmt.Errorf("decode documents of run %s: %w", rec.ID, err)
		}
	}
	return r, nil
}

// Record stores the run, replacing an earlier record with the same id.
func (r *RunRepository) Record(ctx context.Context, run *model.Run) error {
	rec, err := runToRecord(run)
	if err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
		run.ID = rec.ID
	}
	return r.db.WithContext(ctx).Save(rec).Error
}

// List returns up to limit runs, newest first. A non-positive limit returns all runs.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*model.Run, error) {
	q := r.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []RunRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Run, 0, len(recs))
	for i := range recs {
		m, err := runToModel(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

var _ domain.RunJournal = (*RunRepository)(nil)
