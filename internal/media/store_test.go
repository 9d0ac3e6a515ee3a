package media

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	obj, err := store.Save(ctx, AvatarDir, "me at the beach.png", bytes.NewReader([]byte("pixels")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if obj.Size != 6 {
		t.Errorf("Size = %d, want 6", obj.Size)
	}
	if !strings.HasSuffix(obj.Filename, "_me_at_the_beach.png") {
		t.Errorf("Filename = %q, want generated prefix + original name", obj.Filename)
	}
	if filepath.Base(filepath.Dir(obj.Path)) != AvatarDir {
		t.Errorf("Path = %q, want it under %s", obj.Path, AvatarDir)
	}

	data, err := store.Read(ctx, obj.Path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != "pixels" {
		t.Errorf("Read() = %q, want pixels", data)
	}

	if err := store.Delete(ctx, obj.Path); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(obj.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("blob still present after Delete(), stat err = %v", err)
	}
	if _, err := store.Read(ctx, obj.Path); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, obj.Path); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
}

func TestGenerateNameIsUnique(t *testing.T) {
	a, b := GenerateName("poster.jpg"), GenerateName("poster.jpg")
	if a == b {
		t.Fatalf("GenerateName returned %q twice", a)
	}
	if n := GenerateName("../../etc/passwd"); strings.Contains(n, "..") {
		t.Errorf("GenerateName kept path traversal: %q", n)
	}
}
