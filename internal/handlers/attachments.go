package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoaxify/hoaxify/internal/services"
	"github.com/hoaxify/hoaxify/internal/storage"
	appErrors "github.com/hoaxify/hoaxify/pkg/errors"
)

const (
	// DefaultMaxAttachmentSize is the largest accepted upload.
	DefaultMaxAttachmentSize int64 = 5 * 1024 * 1024

	attachmentField = "file"
	// multipartOverhead leaves room for boundaries and part headers.
	multipartOverhead = 64 * 1024
)

var errAttachmentMissing = appErrors.NewBadRequest("attachment_missing")

// AttachmentHandler accepts file uploads that hoaxes reference later.
type AttachmentHandler struct {
	files   *storage.FileService
	maxSize int64
}

// NewAttachmentHandler constructs an AttachmentHandler. maxSize <= 0 selects
// DefaultMaxAttachmentSize.
func NewAttachmentHandler(files *storage.FileService, maxSize int64) *AttachmentHandler {
	if maxSize <= 0 {
		maxSize = DefaultMaxAttachmentSize
	}
	return &AttachmentHandler{files: files, maxSize: maxSize}
}

type attachmentResponse struct {
	ID uint `json:"id"`
}

// POST /api/1.0/hoaxes/attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+multipartOverhead)

	header, err := c.FormFile(attachmentField)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(c, services.ErrAttachmentTooLarge)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeError(c, errAttachmentMissing)
		default:
			writeError(c, errInvalidRequest.WithInternal(err))
		}
		return
	}
	if header.Size > h.maxSize {
		writeError(c, services.ErrAttachmentTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		writeError(c, err)
		return
	}
	if int64(len(data)) > h.maxSize {
		writeError(c, services.ErrAttachmentTooLarge)
		return
	}

	attachment, err := h.files.SaveAttachment(ctx(c), data)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, attachmentResponse{ID: attachment.ID})
}
