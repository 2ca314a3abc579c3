package services

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/adampresley/randomgallery/pkg/models"
)

func TestFileSystemSource_List(t *testing.T) {
	root := t.TempDir()

	writeFile(t, root, "a.png", pngBytes(t, 4, 4))
	writeFile(t, root, "trip/b.JPG", []byte("not really a jpeg"))
	writeFile(t, root, "notes.txt", []byte("hello"))
	writeFile(t, root, ".thumbnails/c.png", pngBytes(t, 2, 2))

	source := NewFileSystemSource(FileSystemSourceConfig{Root: root})
	objects, err := source.List()

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	keys := []string{}

	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}

	sort.Strings(keys)
	want := []string{"a.png", "trip/b.JPG"}

	if len(keys) != len(want) {
		t.Fatalf("Expected %v, got %v", want, keys)
	}

	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Expected %q, got %q", want[i], keys[i])
		}
	}
}

func TestFileSystemSource_StatOpenDelete(t *testing.T) {
	root := t.TempDir()
	data := pngBytes(t, 3, 3)
	writeFile(t, root, "x/y.png", data)

	source := NewFileSystemSource(FileSystemSourceConfig{Root: root})

	stat, err := source.Stat("x/y.png")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stat.Size != int64(len(data)) {
		t.Errorf("Expected size %d, got %d", len(data), stat.Size)
	}

	rc, err := source.Open("x/y.png")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, _ := io.ReadAll(rc)
	_ = rc.Close()

	if len(got) != len(data) {
		t.Errorf("Expected %d bytes, got %d", len(data), len(got))
	}

	if err = source.Delete("x/y.png"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err = source.Stat("x/y.png"); !errors.Is(err, models.ErrPhotoNotFound) {
		t.Errorf("Expected ErrPhotoNotFound after delete, got %v", err)
	}

	if err = source.Delete("x/y.png"); !errors.Is(err, models.ErrPhotoNotFound) {
		t.Errorf("Expected ErrPhotoNotFound deleting twice, got %v", err)
	}
}

func TestFileSystemSource_RejectsEscapingKeys(t *testing.T) {
	source := NewFileSystemSource(FileSystemSourceConfig{Root: t.TempDir()})

	keys := []string{"", "../etc/passwd", "/etc/passwd", "a/../../b.png", "a\\b.png"}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			if _, err := source.Stat(key); !errors.Is(err, models.ErrInvalidKey) {
				t.Errorf("Expected ErrInvalidKey for %q, got %v", key, err)
			}
		})
	}
}

type fakeDirEntry struct {
	name  string
	isDir bool
}

func (e fakeDirEntry) Name() string               { return e.name }
func (e fakeDirEntry) IsDir() bool                { return e.isDir }
func (e fakeDirEntry) Type() fs.FileMode          { return 0 }
func (e fakeDirEntry) Info() (fs.FileInfo, error) { return nil, errors.New("no info") }

func TestFileSystemSource_WalkError(t *testing.T) {
	root := t.TempDir()
	source := NewFileSystemSource(FileSystemSourceConfig{Root: root})
	readErr := errors.New("permission denied")

	tests := []struct {
		name  string
		path  string
		entry fs.DirEntry
		want  error
	}{
		{name: "root fails the walk", path: source.Root(), entry: fakeDirEntry{name: "root", isDir: true}, want: readErr},
		{name: "missing entry fails the walk", path: filepath.Join(root, "x"), entry: nil, want: readErr},
		{name: "subdirectory is skipped", path: filepath.Join(root, "locked"), entry: fakeDirEntry{name: "locked", isDir: true}, want: filepath.SkipDir},
		{name: "file is ignored", path: filepath.Join(root, "a.png"), entry: fakeDirEntry{name: "a.png"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := source.walkError(tt.path, tt.entry, readErr)

			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFileSystemSource_ListSkipsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	root := t.TempDir()
	writeFile(t, root, "a.png", pngBytes(t, 4, 4))
	writeFile(t, root, "locked/b.png", pngBytes(t, 4, 4))

	locked := filepath.Join(root, "locked")

	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	source := NewFileSystemSource(FileSystemSourceConfig{Root: root})
	objects, err := source.List()

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(objects) != 1 || objects[0].Key != "a.png" {
		t.Errorf("Expected only a.png, got %v", objects)
	}
}
