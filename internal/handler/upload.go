package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/logger"
	"github.com/iliyamo/car-rental-marketplace/internal/storage"
)

type UploadHandler struct {
	Store  storage.ImageStore
	Folder string // prefix for bare public ids on delete
}

func NewUploadHandler(store storage.ImageStore, folder string) *UploadHandler {
	return &UploadHandler{Store: store, Folder: folder}
}

// checkFile applies the type and size limits before anything is read.
func checkFile(fh *multipart.FileHeader) error {
	if _, err := storage.CheckImage(fh.Filename, fh.Header.Get(echo.HeaderContentType)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Only image files are allowed!")
	}
	if fh.Size > storage.MaxImageBytes {
		return echo.NewHTTPError(http.StatusBadRequest, "File too large")
	}
	return nil
}

func (h *UploadHandler) store(c echo.Context, fh *multipart.FileHeader) (storage.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Image{}, err
	}
	defer f.Close()
	return h.Store.Upload(c.Request().Context(), fh.Filename, fh.Header.Get(echo.HeaderContentType), f)
}

// Single stores the file in form field "image".
func (h *UploadHandler) Single(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return fail(c, http.StatusBadRequest, "No image file provided")
	}
	if err := checkFile(fh); err != nil {
		return err
	}
	img, err := h.store(c, fh)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return fail(c, http.StatusBadRequest, "Only image files are allowed!")
		}
		logger.Error("image upload failed", "error", err, "file", fh.Filename)
		return fail(c, http.StatusInternalServerError, "Failed to upload image")
	}
	return respond(c, http.StatusOK, echo.Map{"message": "Image uploaded successfully", "data": img})
}

// Multiple stores up to storage.MaxImagesPerReq files from form field
// "images". The batch is validated before the first upload.
func (h *UploadHandler) Multiple(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		return fail(c, http.StatusBadRequest, "No image files provided")
	}
	files := form.File["images"]
	if len(files) > storage.MaxImagesPerReq {
		return fail(c, http.StatusBadRequest, fmt.Sprintf("You can upload at most %d images at once", storage.MaxImagesPerReq))
	}
	for _, fh := range files {
		if err := checkFile(fh); err != nil {
			return err
		}
	}

	images := make([]storage.Image, 0, len(files))
	for _, fh := range files {
		img, err := h.store(c, fh)
		if err != nil {
			logger.Error("image upload failed", "error", err, "file", fh.Filename)
			return fail(c, http.StatusInternalServerError, "Failed to upload images")
		}
		images = append(images, img)
	}
	return respond(c, http.StatusOK, echo.Map{
		"message": fmt.Sprintf("%d image(s) uploaded successfully", len(images)),
		"data":    images,
	})
}

// Delete removes an image by public id.
func (h *UploadHandler) Delete(c echo.Context) error {
	id := storage.QualifyPublicID(h.Folder, c.Param("publicId"))
	err := h.Store.Delete(c.Request().Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fail(c, http.StatusNotFound, "Image not found")
	case err != nil:
		logger.Error("image delete failed", "error", err, "public_id", id)
		return fail(c, http.StatusInternalServerError, "Failed to delete image")
	}
	return respond(c, http.StatusOK, echo.Map{"message": "Image deleted successfully"})
}
