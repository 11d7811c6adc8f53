package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	app "photozone/src/app"
)

const imageFormField = "image"

// PostImage adds an uploaded photo to the front of the catalog. The bytes go
// to object storage when it is configured and into a data URI otherwise.
func (a *AppHandler) PostImage(c *gin.Context) {
	if a.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxBytes)
	}
	file, _, err := c.Request.FormFile(imageFormField)
	if err != nil {
		failure(c, http.StatusBadRequest, fmt.Errorf("can not find image in request: %w", err))
		return
	}
	defer file.Close()

	var meta app.UploadMeta
	if err := c.ShouldBind(&meta); err != nil {
		failure(c, http.StatusBadRequest, fmt.Errorf("%w: %v", app.ErrInvalidMetadata, err))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		failure(c, http.StatusBadRequest, fmt.Errorf("failed to read file: %w", err))
		return
	}
	encoded, err := app.EncodeUpload(data, a.maxEdge)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, app.ErrEmptyUpload) {
			code = http.StatusBadRequest
		}
		failure(c, code, err)
		return
	}

	now := a.now()
	id := a.ids.Next(now)
	source, key := "", ""
	if a.s3 != nil {
		key = app.ObjectKey(id)
		source, err = a.s3.UploadImage(c.Request.Context(), key, encoded)
		if err != nil {
			slog.Error("can not upload image to s3", "id", id, "error", err)
			failure(c, http.StatusInternalServerError, err)
			return
		}
	} else {
		source = encoded.DataURI()
	}

	record := app.NewImageRecord(id, a.property.ID, meta, source, now)
	record.ObjectKey = key
	if err := a.catalog.Create(record); err != nil {
		a.storeError(c, err)
		return
	}
	catalogMutations.WithLabelValues("create").Inc()
	slog.Info("image uploaded", "id", id, "complex", meta.Complex, "type", meta.Type, "bytes", len(encoded.Data))
	success(c, record)
}

// DeleteImage removes an image after explicit confirmation and drops it from
// every viewer's comparison selection.
func (a *AppHandler) DeleteImage(c *gin.Context) {
	id := c.Param("id")
	if c.Query("confirm") != "true" {
		failure(c, http.StatusPreconditionRequired, fmt.Errorf("deleting %s needs confirm=true", id))
		return
	}
	removed, err := a.catalog.Delete(id)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if removed.ObjectKey != "" && a.s3 != nil {
		if err := a.s3.DeleteImage(c.Request.Context(), removed.ObjectKey); err != nil {
			slog.Warn("image removed from catalog but object stays", "id", id, "error", err)
		}
	}
	dropped := 0
	a.sessions.Range(func(v *app.Viewer) {
		v.Do(func(tx *app.ViewerTx) {
			if tx.Selection().Drop(id) {
				dropped++
			}
		})
	})
	catalogMutations.WithLabelValues("delete").Inc()
	slog.Info("image deleted", "id", id, "selections", dropped)
	success(c, removed)
}
