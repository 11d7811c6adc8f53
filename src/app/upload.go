package app

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

const (
	uploadQuality = 85
	dateLayout    = "2006-01-02"
)

var (
	ErrEmptyUpload     = errors.New("empty upload")
	ErrInvalidMetadata = errors.New("invalid image metadata")
)

type (
	// UploadMeta is the metadata entered next to an uploaded photo.
	UploadMeta struct {
		Category    Category      `json:"category" form:"category" binding:"required,category"`
		Complex     Complex       `json:"complex" form:"complex" binding:"required,complex"`
		Type        ApartmentType `json:"type" form:"type" binding:"required,apttype"`
		Space       Space         `json:"space" form:"space" binding:"required,space"`
		FloorLevel  FloorLevel    `json:"floorLevel" form:"floorLevel" binding:"omitempty,floor"`
		Orientation Orientation   `json:"orientation" form:"orientation" binding:"omitempty,orientation"`
	}

	// IDSource hands out time based upload ids that never repeat within a process.
	IDSource struct {
		mu   sync.Mutex
		last int64
	}

	// EncodedImage is an upload after re-encoding.
	EncodedImage struct {
		Data        []byte
		ContentType string
	}
)

// Next returns "local-<unix millis>", bumped forward when two uploads land in
// the same millisecond.
func (s *IDSource) Next(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return "local-" + strconv.FormatInt(ms, 10)
}

// EncodeUpload decodes the uploaded bytes, shrinks the image to fit within
// maxEdge pixels and re-encodes it as JPEG. Bytes that do not decode as an
// image are kept as they are.
func EncodeUpload(data []byte, maxEdge int) (EncodedImage, error) {
	if len(data) == 0 {
		return EncodedImage{}, ErrEmptyUpload
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return EncodedImage{Data: data, ContentType: http.DetectContentType(data)}, nil
	}
	if maxEdge > 0 {
		b := img.Bounds()
		if b.Dx() > maxEdge || b.Dy() > maxEdge {
			img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: uploadQuality}); err != nil {
		return EncodedImage{}, fmt.Errorf("can not encode upload: %w", err)
	}
	return EncodedImage{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
}

// DataURI embeds the image so it can be used directly as an image source.
func (e EncodedImage) DataURI() string {
	return "data:" + e.ContentType + ";base64," + base64.StdEncoding.EncodeToString(e.Data)
}

// NewImageRecord builds the catalog record for an upload. Orientation and
// floor default to 남향 and 중층 when not given.
func NewImageRecord(id, propertyID string, meta UploadMeta, source string, now time.Time) ImageRecord {
	if meta.Orientation == "" {
		meta.Orientation = OrientationSouth
	}
	if meta.FloorLevel == "" {
		meta.FloorLevel = FloorMid
	}
	return ImageRecord{
		ID:          id,
		PropertyID:  propertyID,
		Category:    meta.Category,
		Complex:     meta.Complex,
		Type:        meta.Type,
		Space:       meta.Space,
		Orientation: meta.Orientation,
		FloorLevel:  meta.FloorLevel,
		ImageURL:    source,
		CreatedAt:   now.Format(dateLayout),
	}
}
