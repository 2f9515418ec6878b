package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

// protectedPrefix - пространство путей защищённых копий. Файлы из него отдаются
// только через раздачу с водяным знаком.
const protectedPrefix = "protected"

// sniffLen - сколько байт нужно filetype для определения типа.
const sniffLen = 262

// containerExtensions - форматы, которые по сигнатуре определяются как zip.
var containerExtensions = map[string]bool{
	".docx": true, ".xlsx": true, ".pptx": true, ".fig": true, ".sketch": true,
}

// AttachmentStorage хранит вложения сдач и доказательства обязательств на диске.
type AttachmentStorage struct {
	rootPath       string
	maxUploadBytes int64
}

func NewAttachmentStorage(rootPath string, maxUploadMB int64) (*AttachmentStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &AttachmentStorage{rootPath: rootPath, maxUploadBytes: maxUploadMB << 20}, nil
}

func (s *AttachmentStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Store сохраняет файл, проверив расширение и реальный тип по сигнатуре.
func (s *AttachmentStorage) Store(ctx context.Context, originalName string, r io.Reader) (*repository.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	safeName := sanitizeFilename(originalName)
	if !entity.IsAllowedExtension(safeName) {
		return nil, apperror.Validation("тип файла %s не поддерживается", safeName)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, apperror.Validation("файл %s пуст", safeName)
	}
	if err := matchesExtension(safeName, head); err != nil {
		return nil, err
	}

	day := time.Now().UTC().Format("2006/01/02")
	dir := filepath.Join(s.rootPath, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог: %w", err)
	}
	fileName := uuid.NewString() + strings.ToLower(filepath.Ext(safeName))
	targetPath := filepath.Join(dir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, apperror.Validation("файл %s превышает %d МБ", safeName, s.maxUploadBytes>>20)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return &repository.StoredFile{Path: filepath.ToSlash(filepath.Join(day, fileName)), Size: written}, nil
}

// Derive возвращает путь защищённой копии. Сам водяной знак накладывает раздача файлов.
func (s *AttachmentStorage) Derive(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("storage: некорректный путь %q", path)
	}
	if _, err := os.Stat(filepath.Join(s.rootPath, clean)); err != nil {
		return "", fmt.Errorf("storage: исходный файл недоступен: %w", err)
	}
	return protectedPrefix + "/" + filepath.ToSlash(clean), nil
}

// matchesExtension сверяет сигнатуру файла с расширением. Файлы без сигнатуры
// (текст, csv, svg) принимаются по расширению.
func matchesExtension(name string, head []byte) error {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	actual := "." + kind.Extension
	switch {
	case ext == actual:
		return nil
	case (ext == ".jpg" || ext == ".jpeg") && (actual == ".jpg" || actual == ".jpeg"):
		return nil
	case actual == ".zip" && containerExtensions[ext]:
		return nil
	case ext == ".ai" && actual == ".pdf":
		return nil
	case ext == ".mov" && actual == ".mp4":
		return nil
	}
	return apperror.Validation("расширение файла (%s) не соответствует реальному типу (%s)", ext, actual)
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" || name == "." {
		name = "file"
	}
	return name
}
