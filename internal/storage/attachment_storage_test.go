package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

// pngHeader - сигнатура PNG с заголовком IHDR.
var pngHeader = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x02, 0x00, 0x00, 0x00,
}

func newStorage(t *testing.T, maxMB int64) (*AttachmentStorage, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewAttachmentStorage(root, maxMB)
	require.NoError(t, err)
	return s, root
}

func TestStore_SavesFile(t *testing.T) {
	s, root := newStorage(t, 1)
	ctx := context.Background()

	stored, err := s.Store(ctx, "../../etc/макет.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, int64(len(pngHeader)), stored.Size)
	assert.True(t, strings.HasSuffix(stored.Path, ".png"))

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(stored.Path)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, content)

	text, err := s.Store(ctx, "notes.TXT", strings.NewReader("правки по макету"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(text.Path, ".txt"))
}

func TestStore_Rejects(t *testing.T) {
	s, root := newStorage(t, 1)
	ctx := context.Background()

	tests := []struct {
		name    string
		file    string
		content []byte
	}{
		{"недопустимое расширение", "setup.exe", []byte("MZ")},
		{"без расширения", "README", []byte("text")},
		{"пустой файл", "empty.txt", nil},
		{"сигнатура не совпадает", "report.pdf", pngHeader},
		{"больше лимита", "big.txt", bytes.Repeat([]byte("a"), 1<<20+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Store(ctx, tt.file, bytes.NewReader(tt.content))
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}

	// отклонённые файлы не оставляют временных копий
	var leftovers []string
	require.NoError(t, filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			leftovers = append(leftovers, path)
		}
		return err
	}))
	assert.Empty(t, leftovers)
}

func TestStore_CancelledContext(t *testing.T) {
	s, _ := newStorage(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Store(ctx, "notes.txt", strings.NewReader("текст"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDerive(t *testing.T) {
	s, _ := newStorage(t, 1)
	ctx := context.Background()
	stored, err := s.Store(ctx, "notes.txt", strings.NewReader("правки по макету"))
	require.NoError(t, err)

	protected, err := s.Derive(ctx, stored.Path)
	require.NoError(t, err)
	assert.Equal(t, "protected/"+stored.Path, protected)

	for _, bad := range []string{"", "../secret.txt", "/etc/passwd", "2026/01/01/missing.txt"} {
		_, err := s.Derive(ctx, bad)
		assert.Error(t, err, bad)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "file", sanitizeFilename(""))
	assert.Equal(t, "a_b.txt", sanitizeFilename(`a\b.txt`))
}
