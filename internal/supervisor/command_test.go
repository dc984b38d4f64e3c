package supervisor

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBuildCommandSimpleArgv(t *testing.T) {
	cmd := BuildCommand("sleep 5")
	if filepath.Base(cmd.Path) != "sleep" {
		t.Fatalf("path = %q, want sleep", cmd.Path)
	}
	if !reflect.DeepEqual(cmd.Args[1:], []string{"5"}) {
		t.Fatalf("args = %v", cmd.Args)
	}
}

func TestBuildCommandMetachars(t *testing.T) {
	cmd := BuildCommand("echo hi > out.txt")
	if cmd.Path != "/bin/sh" {
		t.Fatalf("path = %q, want /bin/sh", cmd.Path)
	}
	if cmd.Args[1] != "-c" || cmd.Args[2] != "echo hi > out.txt" {
		t.Fatalf("args = %v", cmd.Args)
	}
}

func TestBuildCommandExplicitShell(t *testing.T) {
	cmd := BuildCommand("sh -c 'sleep 1; echo done'")
	if cmd.Path != "/bin/sh" {
		t.Fatalf("path = %q, want /bin/sh", cmd.Path)
	}
	// No double wrapping: the script is passed through as the -c argument.
	if cmd.Args[2] != "sleep 1; echo done" {
		t.Fatalf("script = %q", cmd.Args[2])
	}
}

func TestBuildCommandEmpty(t *testing.T) {
	cmd := BuildCommand("   ")
	if cmd.Path != "/bin/true" {
		t.Fatalf("path = %q, want /bin/true", cmd.Path)
	}
}

func TestReadCommandLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "command")

	if _, err := ReadCommandLine(path); err == nil {
		t.Fatal("expected error for missing file")
	}

	content := "# supervised command\n\n  sleep 30  \nignored second line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCommandLine(path)
	if err != nil {
		t.Fatalf("ReadCommandLine: %v", err)
	}
	if got != "sleep 30" {
		t.Fatalf("command = %q, want %q", got, "sleep 30")
	}

	if err := os.WriteFile(path, []byte("\n# nothing here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadCommandLine(path); err == nil {
		t.Fatal("expected error for comment-only file")
	}
}
