package template

import "testing"

func TestFileStoreSaveLoad(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	m := Mapping{"barkod": "  Ürün Barkod No \n", "fiyat": "Satis Fiyati"}
	if err := store.Save("trendyol", m); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load("trendyol")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got["barkod"] != "ürün barkod no" {
		t.Errorf("barkod = %q, want cleaned header", got["barkod"])
	}
	if got["fiyat"] != "satis fiyati" {
		t.Errorf("fiyat = %q, want cleaned header", got["fiyat"])
	}
}

func TestFileStoreLoadMissingIsEmpty(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	m, err := store.Load("does-not-exist")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty mapping, got %v", m)
	}
}

func TestFileStoreList(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)
	store.Save("a", Mapping{"x": "y"})
	store.Save("b", Mapping{"x": "y"})

	names, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
}
