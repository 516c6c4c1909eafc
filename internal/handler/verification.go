package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/xenking/shiptrack/internal/artifact"
	"github.com/xenking/shiptrack/internal/domain/verification"
)

// maxPhotoSize bounds uploaded delivery photos.
const maxPhotoSize = 10 << 20

// Verification serves proof-of-delivery submissions.
type Verification struct {
	svc   *verification.Service
	files *Files
}

// NewVerification returns the verification handler.
func NewVerification(svc *verification.Service, artifacts artifact.Store) *Verification {
	return &Verification{svc: svc, files: NewFiles(artifacts)}
}

func (h *Verification) Register(r gin.IRouter) {
	r.POST("/verify", h.verify)
	r.GET("/verifications", h.list)
	h.files.Register(r)
}

func (h *Verification) verify(c *gin.Context) {
	sub := verification.Submission{OrderID: c.PostForm("orderId")}

	var problems []string
	var err error
	if sub.GPSLat, err = strconv.ParseFloat(c.PostForm("gpsLat"), 64); err != nil {
		problems = append(problems, "gpsLat must be a number")
	}
	if sub.GPSLong, err = strconv.ParseFloat(c.PostForm("gpsLong"), 64); err != nil {
		problems = append(problems, "gpsLong must be a number")
	}
	if len(problems) > 0 {
		writeError(c, &verification.ValidationError{Problems: problems})
		return
	}

	photo, err := readPhoto(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	sub.Photo = photo

	rec, err := h.svc.Verify(c.Request.Context(), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func readPhoto(c *gin.Context) (*verification.Photo, error) {
	fh, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read photo")
	}
	if fh.Size > maxPhotoSize {
		return nil, errors.Errorf("photo exceeds %d bytes", maxPhotoSize)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open photo")
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxPhotoSize))
	if err != nil {
		return nil, errors.Wrap(err, "read photo")
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &verification.Photo{FileName: fh.Filename, ContentType: ct, Data: data}, nil
}

func (h *Verification) list(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []verification.Record{}
	}
	c.JSON(http.StatusOK, records)
}
