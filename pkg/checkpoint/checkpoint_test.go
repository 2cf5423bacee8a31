package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointManager(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	job := "roots"

	t.Run("CreateAndLoad", func(t *testing.T) {
		mgr, err := NewManager(job)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(job, 10000)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if cp.Job != job || cp.Limit != 10000 {
			t.Errorf("Unexpected checkpoint %+v", cp)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Job != job {
			t.Errorf("Expected loaded job %s, got %s", job, loaded.Job)
		}
		if loaded.CompletedRoots == nil {
			t.Error("Expected completed roots map to be initialised")
		}
	})

	t.Run("RecordRoot", func(t *testing.T) {
		mgr, err := NewManager(job)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(job, 0)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		if err := mgr.RecordRoot(cp, 12, "exhausted", 40); err != nil {
			t.Fatalf("Failed to record root: %v", err)
		}
		if err := mgr.RecordRoot(cp, 1234567890123456789, "skipped", 5); err != nil {
			t.Fatalf("Failed to record root: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if !loaded.IsRootDone(12) || !loaded.IsRootDone(1234567890123456789) {
			t.Error("Expected both roots to be done")
		}
		if loaded.IsRootDone(13) {
			t.Error("Expected root 13 not to be done")
		}
		if loaded.CompletedRoots[1234567890123456789] != "skipped" {
			t.Errorf("Unexpected state %q", loaded.CompletedRoots[1234567890123456789])
		}
		if loaded.TotalFollowers != 45 {
			t.Errorf("Expected 45 followers, got %d", loaded.TotalFollowers)
		}
	})

	t.Run("DeleteAndExists", func(t *testing.T) {
		mgr, err := NewManager(job)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if _, err := mgr.Create(job, 0); err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if !mgr.Exists() {
			t.Error("Expected checkpoint to exist")
		}

		if err := mgr.Delete(); err != nil {
			t.Fatalf("Failed to delete checkpoint: %v", err)
		}
		if mgr.Exists() {
			t.Error("Expected checkpoint to be deleted")
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Unexpected error loading missing checkpoint: %v", err)
		}
		if loaded != nil {
			t.Error("Expected nil checkpoint after delete")
		}
	})
}

func TestAtomicSave(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerInDir(dir, "atomic")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, err := mgr.Create("atomic", 5); err != nil {
		t.Fatalf("Failed to create checkpoint: %v", err)
	}

	if _, err := os.Stat(mgr.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temporary file should not exist after save")
	}
	if filepath.Dir(mgr.Path()) != dir {
		t.Errorf("Expected checkpoint in %s, got %s", dir, mgr.Path())
	}
}

func TestCorruptedCheckpoint(t *testing.T) {
	mgr, err := NewManagerInDir(t.TempDir(), "corrupt")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := os.WriteFile(mgr.Path(), []byte("{invalid json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.Load(); err == nil {
		t.Error("Expected error loading corrupted checkpoint")
	}
}

func TestFutureVersionRejected(t *testing.T) {
	mgr, err := NewManagerInDir(t.TempDir(), "future")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := os.WriteFile(mgr.Path(), []byte(`{"job":"future","version":99}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.Load(); err == nil {
		t.Error("Expected error loading a newer checkpoint version")
	}
}

func TestJobName(t *testing.T) {
	tests := map[string]string{
		"/data/roots.txt":    "roots",
		"my roots (v2).csv":  "my_roots__v2_",
		"":                   "followers",
		"seed-accounts_2024": "seed-accounts_2024",
	}

	for in, want := range tests {
		if got := JobName(in); got != want {
			t.Errorf("JobName(%q) = %q, want %q", in, got, want)
		}
	}
}
