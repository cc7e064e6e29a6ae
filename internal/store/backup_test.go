package store

import (
	"testing"

	"github.com/dmorneau/carebell/internal/model"
)

func TestBackupRecordAndList(t *testing.T) {
	db := openTestDB(t)
	s := NewBackupStore(db)

	ok, err := s.Record("backups/carebell-20260901.db.enc", 2048, model.BackupStatusCompleted, "")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if ok.Status != model.BackupStatusCompleted || ok.Error != "" {
		t.Errorf("recorded = %+v", ok)
	}

	failed, err := s.Record("", 0, model.BackupStatusFailed, "upload timed out")
	if err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if failed.Error != "upload timed out" {
		t.Errorf("error = %q", failed.Error)
	}

	list, err := s.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d backups, want 2", len(list))
	}
	if list[0].ID != failed.ID {
		t.Errorf("list[0].ID = %d, want newest first", list[0].ID)
	}
}
