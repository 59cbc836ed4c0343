package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSON_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	payload := map[string]int{"panels": 20}

	if err := writeJSON(path, payload); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["panels"] != 20 {
		t.Errorf("panels = %d, want 20", decoded["panels"])
	}
}

func TestWriteJSON_Unmarshalable(t *testing.T) {
	if err := writeJSON("", func() {}); err == nil {
		t.Error("expected error for unmarshalable payload")
	}
}
