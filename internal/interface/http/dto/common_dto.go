package dto

import (
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
)

// AttachmentDTO - файл, ранее загруженный через POST /attachments.
type AttachmentDTO struct {
	FileName string `json:"file_name" binding:"required"`
	FilePath string `json:"file_path" binding:"required"`
	FileSize int64  `json:"file_size"`
}

func ToAttachments(list []AttachmentDTO) []entity.Attachment {
	out := make([]entity.Attachment, 0, len(list))
	for _, a := range list {
		out = append(out, entity.Attachment{FileName: a.FileName, FilePath: a.FilePath, FileSize: a.FileSize})
	}
	return out
}

func FromAttachments(list []entity.Attachment) []AttachmentDTO {
	out := make([]AttachmentDTO, 0, len(list))
	for _, a := range list {
		out = append(out, AttachmentDTO{FileName: a.FileName, FilePath: a.FilePath, FileSize: a.FileSize})
	}
	return out
}

type UploadResponse struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	FileName string `json:"file_name"`
}

// ReasonRequest - тело команд, принимающих только причину.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

type MoneyDTO struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}
