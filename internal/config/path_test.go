package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDataDir(t *testing.T) {
	if isDir(systemDataDir) {
		t.Skipf("%s exists on this host", systemDataDir)
	}
	tests := []struct {
		name  string
		xdg   string
		dirs  []string // created under a fresh home
		want  func(home string) string
		noHome bool
	}{
		{
			name: "XDG_DATA_HOME wins",
			xdg:  "/custom/data",
			want: func(string) string { return "/custom/data/blinkhub" },
		},
		{
			name: "macOS application support",
			dirs: []string{"Library"},
			want: func(h string) string { return filepath.Join(h, "Library", "Application Support", "Blinkhub") },
		},
		{
			name: "windows local app data",
			dirs: []string{"AppData"},
			want: func(h string) string { return filepath.Join(h, "AppData", "Local", "Blinkhub") },
		},
		{
			name: "dotdir fallback",
			want: func(h string) string { return filepath.Join(h, ".blinkhub") },
		},
		{
			name:  "no home directory",
			noHome: true,
			want:  func(string) string { return "./data" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			for _, d := range tt.dirs {
				if err := os.MkdirAll(filepath.Join(home, d), 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
			}
			t.Setenv("XDG_DATA_HOME", tt.xdg)
			t.Setenv("HOME", home)
			if tt.noHome {
				t.Setenv("HOME", "")
			}
			if got, want := DefaultDataDir(), tt.want(home); got != want {
				t.Fatalf("DefaultDataDir() = %s, want %s", got, want)
			}
		})
	}
}

func TestIsDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "store.lock")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for path, want := range map[string]bool{
		".":                       true,
		file:                      false,
		"/non/existent/blinkhub/": false,
	} {
		if got := isDir(path); got != want {
			t.Errorf("isDir(%s) = %v, want %v", path, got, want)
		}
	}
}
