package main

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleScore = `
export fn main() -> Score {
	return score {
		meta { title: "Demo" }
		tempo { 1:1 -> 120; }
		meter { 1:1 -> 4/4; }
		sound "piano" kind instrument { label: "Grand" }
		track "Lead" role instrument sound "piano" {
			place 1:1 clip { note(C4, q); rest(q); };
		}
	};
}
`

func TestRunPipelineProducesIR(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.tako")
	if err := os.WriteFile(entry, []byte(sampleScore), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := runPipeline(entry)
	if err != nil {
		t.Fatalf("runPipeline: %v", err)
	}
	if result.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", result.bag.All())
	}
	if result.doc == nil {
		t.Fatal("expected a normalized document")
	}
	if len(result.doc.Tracks) != 1 {
		t.Errorf("len(Tracks) = %d, want 1", len(result.doc.Tracks))
	}
	if len(result.doc.Sounds) != 1 {
		t.Errorf("len(Sounds) = %d, want 1", len(result.doc.Sounds))
	}
}

func TestRunPipelineWithImport(t *testing.T) {
	dir := t.TempDir()
	lib := `export fn helper() -> Number { return 3; }`
	if err := os.WriteFile(filepath.Join(dir, "lib.tako"), []byte(lib), 0o644); err != nil {
		t.Fatal(err)
	}
	entry := filepath.Join(dir, "main.tako")
	main := `
import helper from "./lib.tako";
export fn main() -> Score {
	let n = helper();
	return score {
		sound "piano" kind instrument { label: "Grand" }
		track "Lead" role instrument sound "piano" {
			place 1:1 clip { note(C4, q); };
		}
	};
}
`
	if err := os.WriteFile(entry, []byte(main), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := runPipeline(entry)
	if err != nil {
		t.Fatalf("runPipeline: %v", err)
	}
	if result.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", result.bag.All())
	}
}

func TestRunPipelineReportsMissingFile(t *testing.T) {
	if _, err := runPipeline("/nonexistent/entry.tako"); err == nil {
		t.Error("expected an error for a missing entry file")
	}
}
