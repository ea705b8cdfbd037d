package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docqa/internal/app"
	"docqa/internal/backend"
	"docqa/internal/model"
	"docqa/internal/transport/http/response"
)

const uploadField = "file"

type DocumentHandler struct {
	intake  *app.IntakeService
	catalog *app.CatalogService
}

func NewDocumentHandler(intake *app.IntakeService, catalog *app.CatalogService) *DocumentHandler {
	return &DocumentHandler{intake: intake, catalog: catalog}
}

// Upload takes the posted files as the new selection and starts the upload.
// A post without files uploads whatever is already selected, such as files
// picked up from the drop folder.
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid upload form")
		return
	}

	if !h.selectPosted(c, form) {
		return
	}

	if _, err := h.intake.Upload(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, app.ErrNoSelection), errors.Is(err, app.ErrUploadInProgress):
			_ = c.Error(err)
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
			return
		}
	}
	response.Back(c, "intake")
}

func (h *DocumentHandler) selectPosted(c *gin.Context, form *multipart.Form) bool {
	if form == nil || len(form.File[uploadField]) == 0 {
		return true
	}
	files, err := bufferFiles(form.File[uploadField])
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return false
	}
	h.intake.Select(files)
	return true
}

// UploadJSON is Upload for API clients: it answers with the intake state
// instead of redirecting.
func (h *DocumentHandler) UploadJSON(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid upload form")
		return
	}
	if !h.selectPosted(c, form) {
		return
	}

	if _, err := h.intake.Upload(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, app.ErrNoSelection):
			response.Error(c, http.StatusBadRequest, response.CodeNoSelection, "no files selected")
		case errors.Is(err, app.ErrUploadInProgress):
			response.Error(c, http.StatusConflict, response.CodeUploadInProgress, "an upload is already running")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		}
		return
	}
	c.JSON(http.StatusAccepted, response.APIResponse{
		Code:    response.CodeOK,
		Message: "accepted",
		Data:    h.intake.State(),
	})
}

// bufferFiles copies uploaded parts into memory; the request's temporary
// files are gone by the time the background upload reads them.
func bufferFiles(headers []*multipart.FileHeader) ([]model.UploadFile, error) {
	files := make([]model.UploadFile, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("read %s failed: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s failed: %w", fh.Filename, err)
		}
		files = append(files, model.UploadFile{
			Name: fh.Filename,
			Size: int64(len(data)),
			Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		})
	}
	return files, nil
}

func (h *DocumentHandler) Refresh(c *gin.Context) {
	if err := h.catalog.Refresh(c.Request.Context()); err != nil {
		_ = c.Error(err)
	}
	response.Back(c, "catalog")
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
	}
	response.Back(c, "catalog")
}

func (h *DocumentHandler) RefreshJSON(c *gin.Context) {
	if err := h.catalog.Refresh(c.Request.Context()); err != nil {
		backendFailure(c, err)
		return
	}
	response.OK(c, h.catalog.State())
}

func (h *DocumentHandler) DeleteJSON(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, app.ErrInvalidDocument) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
			return
		}
		backendFailure(c, err)
		return
	}
	response.OK(c, h.catalog.State())
}

// backendFailure maps a failed backend call. A 404 from the backend stays a
// 404; anything else is a bad gateway.
func backendFailure(c *gin.Context, err error) {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, statusErr.Detail())
		return
	}
	response.Error(c, http.StatusBadGateway, response.CodeBackendFailure, app.FailureText(err))
}

func (h *DocumentHandler) List(c *gin.Context) {
	response.OK(c, h.catalog.State())
}

func (h *DocumentHandler) IntakeState(c *gin.Context) {
	response.OK(c, h.intake.State())
}
