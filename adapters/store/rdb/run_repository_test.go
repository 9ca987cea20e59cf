package rdb

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/koishi/kdeploy/domain/model"
)

func TestRunRepository_RecordAndList(t *testing.T) {
	repo, err := OpenJournal("sqlite:" + filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := &model.Run{Operation: model.RunOpFile, Source: "app.yaml", State: model.RunVerified,
		Documents: []string{"Deployment web/api"}, StartedAt: base, FinishedAt: base.Add(time.Minute)}
	if err := repo.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("Record should assign an id")
	}
	second := &model.Run{ID: "r2", Operation: model.RunOpMeta, Source: "pullsecret-cloudprivate", State: model.RunFailed,
		Error: "boom", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour)}
	if err := repo.Record(ctx, second); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r2" || runs[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if !reflect.DeepEqual(runs[1].Documents, first.Documents) || runs[0].Error != "boom" {
		t.Fatalf("fields not preserved: %+v %+v", runs[0], runs[1])
	}

	second.State = model.RunVerified
	if err := repo.Record(ctx, second); err != nil {
		t.Fatalf("Record update: %v", err)
	}
	runs, _ = repo.List(ctx, 1)
	if len(runs) != 1 || runs[0].State != model.RunVerified {
		t.Fatalf("limit/update not honored: %+v", runs)
	}
}

func TestOpenFromURL_UnsupportedScheme(t *testing.T) {
	if _, err := OpenFromURL("postgres://x"); err == nil {
		t.Fatalf("expected error")
	}
}
