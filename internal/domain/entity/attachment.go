package entity

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

type Attachment struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
}

const (
	MaxDeliveryAttachments = 10
	MaxEvidenceFiles       = 5
	DefaultMaxFileSize     = 20 << 20
)

// AllowedAttachmentExtensions - расширения, которые принимаются в сдачах и доказательствах.
var AllowedAttachmentExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".csv", ".md",
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg",
	".mp4", ".mov", ".mp3", ".wav",
	".zip", ".rar", ".7z",
	".psd", ".ai", ".fig", ".sketch",
}

type AttachmentRules struct {
	MaxCount    int
	MaxFileSize int64
}

func IsAllowedExtension(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return ext != "" && slices.Contains(AllowedAttachmentExtensions, ext)
}

func (r AttachmentRules) Validate(files []Attachment) error {
	if len(files) > r.MaxCount {
		return apperror.Validation("можно приложить не более %d файлов", r.MaxCount)
	}
	for _, f := range files {
		if strings.TrimSpace(f.FileName) == "" || strings.TrimSpace(f.FilePath) == "" {
			return apperror.Validation("у файла должны быть имя и путь")
		}
		if f.FileSize <= 0 {
			return apperror.Validation("файл %s пуст", f.FileName)
		}
		if f.FileSize > r.MaxFileSize {
			return apperror.Validation("файл %s превышает %d МБ", f.FileName, r.MaxFileSize>>20)
		}
		if !IsAllowedExtension(f.FileName) {
			return apperror.Validation("тип файла %s не поддерживается", f.FileName)
		}
	}
	return nil
}
