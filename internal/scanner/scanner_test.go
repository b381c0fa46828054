package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScannerScanFiltersToTargetExt(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		"main.go",
		"README.md",
		"src/app.py",
		"src/index.js",
		".hidden/file.py",
		"__pycache__/app.cpython-311.pyc",
		".git/config",
	}

	for _, path := range files {
		fullPath := filepath.Join(tmpDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte("content"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	scanner := New(DefaultOptions())
	results, err := scanner.Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	foundFiles := make(map[string]bool)
	for _, f := range results {
		foundFiles[f.Path] = true
	}

	if !foundFiles["src/app.py"] {
		t.Error("expected to find src/app.py")
	}
	for _, excluded := range []string{"main.go", "README.md", "src/index.js", ".hidden/file.py", "__pycache__/app.cpython-311.pyc", ".git/config"} {
		if foundFiles[excluded] {
			t.Errorf("expected %s to be excluded, but it was found", excluded)
		}
	}
}

func TestScannerResultsAreSorted(t *testing.T) {
	tmpDir := t.TempDir()
	for _, path := range []string{"zeta.py", "alpha.py", "mid/beta.py"} {
		fullPath := filepath.Join(tmpDir, path)
		os.MkdirAll(filepath.Dir(fullPath), 0755)
		os.WriteFile(fullPath, []byte("x = 1"), 0644)
	}

	results, err := Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 files, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Path >= results[i].Path {
			t.Errorf("results not sorted: %q before %q", results[i-1].Path, results[i].Path)
		}
	}
}

func TestScannerWithPyflybyignore(t *testing.T) {
	tmpDir := t.TempDir()

	ignoreContent := `# generated fixtures
gen/
# a specific file
secret.py
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".pyflybyignore"), []byte(ignoreContent), 0644); err != nil {
		t.Fatalf("failed to create .pyflybyignore: %v", err)
	}

	for _, path := range []string{"app.py", "gen/output.py", "secret.py", "lib/util.py"} {
		fullPath := filepath.Join(tmpDir, path)
		os.MkdirAll(filepath.Dir(fullPath), 0755)
		os.WriteFile(fullPath, []byte("x = 1"), 0644)
	}

	scanner := New(DefaultOptions())
	results, err := scanner.Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	foundFiles := make(map[string]bool)
	for _, f := range results {
		foundFiles[f.Path] = true
	}

	for _, expected := range []string{"app.py", "lib/util.py"} {
		if !foundFiles[expected] {
			t.Errorf("expected to find %s", expected)
		}
	}
	for _, ignored := range []string{"gen/output.py", "secret.py"} {
		if foundFiles[ignored] {
			t.Errorf("expected %s to be ignored", ignored)
		}
	}
}

func TestScannerSkipHidden(t *testing.T) {
	tmpDir := t.TempDir()

	os.WriteFile(filepath.Join(tmpDir, "visible.py"), []byte("x = 1"), 0644)
	os.MkdirAll(filepath.Join(tmpDir, ".hidden"), 0755)
	os.WriteFile(filepath.Join(tmpDir, ".hidden/file.py"), []byte("x = 1"), 0644)

	opts := DefaultOptions()
	scanner := New(opts)
	results, _ := scanner.Scan(tmpDir)

	for _, f := range results {
		if f.Path == ".hidden/file.py" {
			t.Error("should skip hidden files when SkipHidden=true")
		}
	}

	opts.SkipHidden = false
	scanner = New(opts)
	results, _ = scanner.Scan(tmpDir)

	found := false
	for _, f := range results {
		if f.Path == ".hidden/file.py" {
			found = true
		}
	}
	if !found {
		t.Error("should find .hidden/file.py when SkipHidden=false")
	}
}

func TestIgnorePattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		match   bool
	}{
		{"*.py", "file.py", true},
		{"*.py", "dir/file.py", true},
		{"*.py", "file.txt", false},
		{"build/", "build/file.py", true},
		{"build/", "other/build/file.py", true},
		{"build/", "builder.py", false},

		{"/build/", "build/file.py", true},
		{"/build/", "src/build/file.py", false},

		{"gen/", "gen/pkg/file.py", true},
		{"gen/", "src/gen/pkg/file.py", true},

		{"*_pb2.py", "service_pb2.py", true},
		{"*_pb2.py", "deep/service_pb2.py", true},
		{"src/*.py", "src/app.py", true},
		{"src/*.py", "src/deep/app.py", false},

		{"**/test/**", "test/file.py", true},
		{"**/test/**", "src/test/file.py", true},
		{"**/test/**", "src/deep/test/file.py", true},
		{"**/test/**", "testing/file.py", false},

		{"file?.py", "file1.py", true},
		{"file?.py", "file12.py", false},

		{"!*.py", "file.py", true}, // negation pattern still matches the file
	}

	for _, tt := range tests {
		pattern := ParseIgnorePattern(tt.pattern)
		result := pattern.Match(tt.path)
		if result != tt.match {
			t.Errorf("pattern %q matching %q: got %v, want %v", tt.pattern, tt.path, result, tt.match)
		}
	}
}
