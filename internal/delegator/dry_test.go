package delegator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDryRunPurity(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nope")

	d := NewDry()
	ctx := context.Background()

	if err := d.RemoveFile(ctx, target); err != nil {
		t.Fatalf("remove_file: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("dry remove_file must not create or touch the path")
	}

	if _, err := d.WriteFile(ctx, target, []byte("x")); err != nil {
		t.Fatalf("write_file: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("dry write_file mutated the host filesystem")
	}

	md, err := d.Metadata(ctx, target)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if md.Path != target || md.Size != nil || md.Permissions != nil {
		t.Fatalf("dry metadata should be a placeholder, got %#v", md)
	}

	entries, err := d.ListDirectory(ctx, dir)
	if err != nil {
		t.Fatalf("list_directory: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("dry list_directory should be empty, got %v", entries)
	}

	result, err := d.RunCommand(ctx, "exit 7")
	if err != nil {
		t.Fatalf("run_command: %v", err)
	}
	if result.ExitCode != 0 || result.Stdout != "" || result.Stderr != "" {
		t.Fatalf("dry run_command should be zero-valued, got %#v", result)
	}
}
