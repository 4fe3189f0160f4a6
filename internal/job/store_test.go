package job

import "testing"

func TestStoreUpdateThenGet(t *testing.T) {
	s, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := s.Update("job-1", "running", 40, "Akıllı Eşleştirme"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := s.Get("job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != "running" || got.Progress != 40 {
		t.Errorf("got %+v", got)
	}
	if got.Message != "%40 - Akıllı Eşleştirme" {
		t.Errorf("Message = %q, want percent-prefixed", got.Message)
	}
}

func TestStoreComplete(t *testing.T) {
	s, _ := NewStore(t.TempDir(), nil)
	if err := s.Complete("job-2", "/data/output/job-2.xlsx"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	got, _ := s.Get("job-2")
	if got.Status != "completed" || got.ResultFile != "/data/output/job-2.xlsx" {
		t.Errorf("got %+v", got)
	}
}

type recordingMirror struct {
	calls map[string]Status
}

func (m *recordingMirror) Set(jobID string, status Status) error {
	if m.calls == nil {
		m.calls = map[string]Status{}
	}
	m.calls[jobID] = status
	return nil
}

func TestStoreWritesThroughMirror(t *testing.T) {
	mirror := &recordingMirror{}
	s, _ := NewStore(t.TempDir(), mirror)

	if err := s.Update("job-3", "running", 5, "start"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, ok := mirror.calls["job-3"]; !ok {
		t.Error("expected mirror to receive the status update")
	}
}
