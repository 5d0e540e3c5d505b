package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoaxify/hoaxify/internal/middleware"
	"github.com/hoaxify/hoaxify/internal/services"
	appErrors "github.com/hoaxify/hoaxify/pkg/errors"
	appValidator "github.com/hoaxify/hoaxify/pkg/validator"
)

var errUnauthorizedHoaxSubmit = appErrors.NewUnauthorized("unauthorized_hoax_submit")

var hoaxMessages = appValidator.FieldMessages{
	"content": {"*": "hoax_content_size"},
}

// HoaxHandler serves hoax submission, listing and deletion.
type HoaxHandler struct {
	hoaxes *services.HoaxService
}

// NewHoaxHandler constructs a HoaxHandler.
func NewHoaxHandler(hoaxes *services.HoaxService) *HoaxHandler {
	return &HoaxHandler{hoaxes: hoaxes}
}

type createHoaxRequest struct {
	Content        string `json:"content" validate:"min=10,max=5000"`
	FileAttachment *uint  `json:"fileAttachment"`
}

// POST /api/1.0/hoaxes
func (h *HoaxHandler) Create(c *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		writeError(c, errUnauthorizedHoaxSubmit)
		return
	}

	var req createHoaxRequest
	if !bindAndValidate(c, &req, hoaxMessages) {
		return
	}

	_, err := h.hoaxes.Create(ctx(c), services.CreateHoaxInput{
		Content:        req.Content,
		FileAttachment: req.FileAttachment,
	}, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "hoax_submit_success")
}

// GET /api/1.0/hoaxes
func (h *HoaxHandler) List(c *gin.Context) {
	h.list(c, nil)
}

// GET /api/1.0/users/:id/hoaxes
func (h *HoaxHandler) ListByUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		writeError(c, services.ErrUserNotFound)
		return
	}
	h.list(c, &userID)
}

func (h *HoaxHandler) list(c *gin.Context, userID *uint) {
	page := middleware.GetPage(c)
	result, err := h.hoaxes.List(ctx(c), page.Page, page.Size, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, result)
}

// DELETE /api/1.0/hoaxes/:id
func (h *HoaxHandler) Delete(c *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		writeError(c, services.ErrUnauthorizedHoaxDelete)
		return
	}

	hoaxID, ok := parseIDParam(c, "id")
	if !ok {
		writeError(c, services.ErrUnauthorizedHoaxDelete)
		return
	}

	if err := h.hoaxes.Delete(ctx(c), hoaxID, userID); err != nil {
		writeError(c, err)
		return
	}
	writeEmpty(c)
}
