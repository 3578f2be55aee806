package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"alcyxob/material-approval/internal/domain"
	"alcyxob/material-approval/internal/repository"
	"alcyxob/material-approval/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MaterialHandler serves the material workflow endpoints.
type MaterialHandler struct {
	materialService service.MaterialService
	maxUploadBytes  int64
	log             logrus.FieldLogger
}

// NewMaterialHandler creates a new MaterialHandler.
func NewMaterialHandler(materialService service.MaterialService, maxUploadBytes int64, log logrus.FieldLogger) *MaterialHandler {
	return &MaterialHandler{materialService: materialService, maxUploadBytes: maxUploadBytes, log: log}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type PendingCountResponse struct {
	Count int `json:"count"`
}

// ListMaterials godoc
// @Summary List materials
// @Description Without a status filter every material is returned in upload order.
// @Tags Materials
// @Produce json
// @Security BearerAuth
// @Param status query []string false "Status filter, repeatable or comma separated"
// @Success 200 {array} domain.Material
// @Failure 400 {object} gin.H "Unknown status"
// @Router /materials [get]
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	statuses, err := parseStatuses(c.QueryArray("status"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.materialService.List(statuses...))
}

func parseStatuses(raw []string) ([]domain.Status, error) {
	var statuses []domain.Status
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			s, err := domain.ParseStatus(part)
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, s)
		}
	}
	return statuses, nil
}

// GetMaterial godoc
// @Summary Get one material
// @Tags Materials
// @Produce json
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Success 200 {object} domain.Material
// @Failure 404 {object} gin.H "Not found"
// @Router /materials/{id} [get]
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	id, ok := materialIDParam(c)
	if !ok {
		return
	}
	m, err := h.materialService.Get(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// UploadMaterial godoc
// @Summary Upload an image for review
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param file formData file true "Image file"
// @Success 201 {object} domain.Material
// @Failure 400 {object} gin.H "Validation error"
// @Router /materials [post]
func (h *MaterialHandler) UploadMaterial(c *gin.Context) {
	user := currentUser(c)
	in := service.UploadInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}
	if user != nil {
		in.Uploader = user.Name
	}

	header, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// left empty; the service reports the missing file
	case err != nil:
		abortWithError(c, http.StatusBadRequest, "could not read upload")
		return
	default:
		f, err := header.Open()
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "could not read upload")
			return
		}
		defer f.Close()

		reader := io.Reader(f)
		if h.maxUploadBytes > 0 {
			// One extra byte lets the service see the limit was exceeded.
			reader = io.LimitReader(f, h.maxUploadBytes+1)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "could not read upload")
			return
		}
		in.FileName = header.Filename
		in.Data = data
		in.ContentType = header.Header.Get("Content-Type")
		if in.ContentType == "" || in.ContentType == "application/octet-stream" {
			in.ContentType = http.DetectContentType(data)
		}
	}

	m, err := h.materialService.Upload(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// PendingCount returns how many materials await review.
func (h *MaterialHandler) PendingCount(c *gin.Context) {
	c.JSON(http.StatusOK, PendingCountResponse{Count: h.materialService.PendingCount()})
}

// ListPublished returns published materials, optionally filtered by ?q= on the title.
func (h *MaterialHandler) ListPublished(c *gin.Context) {
	c.JSON(http.StatusOK, h.materialService.SearchPublished(c.Query("q")))
}

// Stats returns the dashboard summary.
func (h *MaterialHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.materialService.Stats())
}

// ApproveMaterial godoc
// @Summary Approve a material
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Success 200 {object} domain.Material
// @Failure 403 {object} gin.H "Reviewer role required"
// @Failure 404 {object} gin.H "Not found"
// @Router /materials/{id}/approve [post]
func (h *MaterialHandler) ApproveMaterial(c *gin.Context) {
	h.review(c, func(id int, reviewer domain.User) (*domain.Material, error) {
		return h.materialService.Approve(c.Request.Context(), id, reviewer)
	})
}

// RejectMaterial godoc
// @Summary Reject a material
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Success 200 {object} domain.Material
// @Router /materials/{id}/reject [post]
func (h *MaterialHandler) RejectMaterial(c *gin.Context) {
	h.review(c, func(id int, reviewer domain.User) (*domain.Material, error) {
		return h.materialService.Reject(c.Request.Context(), id, reviewer)
	})
}

// PublishMaterial godoc
// @Summary Publish an approved material
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Success 200 {object} domain.Material
// @Router /materials/{id}/publish [post]
func (h *MaterialHandler) PublishMaterial(c *gin.Context) {
	h.review(c, func(id int, _ domain.User) (*domain.Material, error) {
		return h.materialService.Publish(c.Request.Context(), id)
	})
}

// UpdateStatus godoc
// @Summary Set a material's status directly
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Param body body UpdateStatusRequest true "Target status"
// @Success 200 {object} domain.Material
// @Failure 409 {object} gin.H "Transition not permitted"
// @Router /materials/{id}/status [patch]
func (h *MaterialHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "status is required")
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	h.review(c, func(id int, reviewer domain.User) (*domain.Material, error) {
		return h.materialService.Transition(c.Request.Context(), id, status, reviewer)
	})
}

func (h *MaterialHandler) review(c *gin.Context, action func(id int, reviewer domain.User) (*domain.Material, error)) {
	id, ok := materialIDParam(c)
	if !ok {
		return
	}
	user := currentUser(c)
	if user == nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	m, err := action(id, *user)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func materialIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "Invalid material ID")
		return 0, false
	}
	return id, true
}

// writeError maps service and repository errors onto HTTP responses.
func (h *MaterialHandler) writeError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		abortWithError(c, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, service.ErrMaterialNotFound):
		abortWithError(c, http.StatusNotFound, "Material not found")
	case errors.Is(err, repository.ErrInvalidTransition):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error("material request failed")
		abortWithError(c, http.StatusInternalServerError, "Operation failed, please try again later")
	}
}
