package ingest

import (
	"testing"
)

func TestReadFileCSV(t *testing.T) {
	data := []byte("Barkod ,SKU\n111,A-1\n222,A-2\n")
	records, err := ReadFile("list.csv", data)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0]["barkod"] != "111" || records[0]["sku"] != "A-1" {
		t.Errorf("records[0] = %+v", records[0])
	}
}

func TestReadFileCSVWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Barkod,SKU\n111,A-1\n")...)
	records, err := ReadFile("list.csv", data)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(records) != 1 || records[0]["barkod"] != "111" {
		t.Errorf("records = %+v", records)
	}
}

func TestReadFileUnsupportedExtension(t *testing.T) {
	if _, err := ReadFile("list.txt", []byte("x")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
