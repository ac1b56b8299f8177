package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadAndPublicURL(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "http://localhost:8080/")
	if err != nil {
		t.Fatalf("new local: %v", err)
	}

	name, err := l.Upload("avatar.PNG", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Fatalf("expected lowercased extension, got %q", name)
	}

	data, err := os.ReadFile(filepath.Join(l.Dir(), name))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("unexpected content: %q", data)
	}

	url := l.PublicURL(name)
	if url != "http://localhost:8080/files/"+name {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestDeleteMissingIsNoError(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("new local: %v", err)
	}
	if err := l.Delete("nope.png"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}
