package uploads

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeStorage struct {
	location string
	err      error
	saved    []string
}

func (f *fakeStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.saved = append(f.saved, name)
	if f.location != "" {
		return f.location, nil
	}
	return "https://cdn.example.com/" + name, nil
}

func tempUpload(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
		t.Fatalf("write temp upload: %v", err)
	}
	return path
}

func TestUploadNoFile(t *testing.T) {
	service := NewService(&fakeStorage{})

	result, err := service.Upload(context.Background(), NoFile{})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result != (Result{}) {
		t.Fatalf("expected empty result got %+v", result)
	}
}

func TestUploadSingleFile(t *testing.T) {
	storage := &fakeStorage{}
	service := NewService(storage)

	result, err := service.Upload(context.Background(), SingleFile{
		Field: "thumbnail",
		Path:  tempUpload(t, "thumb.png"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.URL == "" {
		t.Fatal("expected a location")
	}
	if len(storage.saved) != 1 {
		t.Fatalf("expected one save got %d", len(storage.saved))
	}
	key := storage.saved[0]
	if !strings.HasPrefix(key, "thumbnail/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected storage key %q", key)
	}
}

func TestUploadNamedFileSet(t *testing.T) {
	storage := &fakeStorage{}
	service := NewService(storage)

	cover := SingleFile{Field: "coverImage", Path: tempUpload(t, "cover.jpg")}
	result, err := service.Upload(context.Background(), NamedFileSet{
		Avatar:     SingleFile{Field: "avatar", Path: tempUpload(t, "avatar.png")},
		CoverImage: &cover,
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.Avatar == "" || result.CoverImage == "" {
		t.Fatalf("expected both locations got %+v", result)
	}
	if len(storage.saved) != 2 {
		t.Fatalf("expected two saves got %d", len(storage.saved))
	}
}

func TestUploadNamedFileSetWithoutCover(t *testing.T) {
	storage := &fakeStorage{}
	service := NewService(storage)

	result, err := service.Upload(context.Background(), NamedFileSet{
		Avatar: SingleFile{Field: "avatar", Path: tempUpload(t, "avatar.png")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.Avatar == "" || result.CoverImage != "" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestUploadEmptyLocationFails(t *testing.T) {
	service := NewService(&fakeStorage{location: "  "})

	_, err := service.Upload(context.Background(), SingleFile{
		Field: "avatar",
		Path:  tempUpload(t, "avatar.png"),
	})
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed got %v", err)
	}
}

func TestUploadMissingLocalFile(t *testing.T) {
	service := NewService(&fakeStorage{})

	if _, err := service.Upload(context.Background(), SingleFile{Field: "avatar", Path: ""}); err == nil {
		t.Fatal("expected error for missing path")
	}
	if _, err := service.Upload(context.Background(), SingleFile{Field: "avatar", Path: "/nope/such/file.png"}); err == nil {
		t.Fatal("expected error for unreadable file")
	}
}
