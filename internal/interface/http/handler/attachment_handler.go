package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/dto"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/response"
	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/ignatzorin/hiring-lifecycle/internal/validation"
)

// FileStore - хранилище загружаемых вложений.
type FileStore interface {
	Store(ctx context.Context, fileName string, r io.Reader) (*repository.StoredFile, error)
	MaxUploadBytes() int64
}

// multipartOverhead - запас на заголовки multipart поверх размера файла.
const multipartOverhead = 1 << 20

// AttachmentHandler принимает файлы для сдач и доказательств по обязательствам.
// Путь из ответа затем передаётся в attachments/evidence команд.
type AttachmentHandler struct {
	store FileStore
}

func NewAttachmentHandler(store FileStore) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// Upload обрабатывает POST /attachments.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	if _, ok := currentActor(c); !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.store.MaxUploadBytes()+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, apperror.Validation("файл превышает %d МБ", h.store.MaxUploadBytes()>>20))
			return
		}
		response.BadRequest(c, "поле file обязательно")
		return
	}
	if file.Size == 0 {
		response.BadRequest(c, "файл не может быть пустым")
		return
	}
	name := filepath.Base(file.Filename)
	if !checkLengths(c, validation.Field{Name: "file_name", Value: name, Max: validation.MaxFileNameLength}) {
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	stored, err := h.store.Store(c.Request.Context(), name, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.UploadResponse{Path: stored.Path, Size: stored.Size, FileName: name})
}
