package middlewares

import (
	"errors"
	"io"
	"net/http"

	"calorietrack/apperrors"
	"calorietrack/services"
	"calorietrack/utils"

	"github.com/gin-gonic/gin"
)

const contextUpload = "uploadedImage"

// multipart framing allowance on top of the file limit
const multipartOverhead = 64 << 10

// UploadedImage is an image file read from a multipart request.
type UploadedImage struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ImageUpload reads the multipart file in field into memory. It enforces the
// 5MB limit (413) and the allowed image types (400). When required is false
// a request without the field passes through untouched.
func ImageUpload(field string, required bool, r *utils.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxImageBytes+multipartOverhead)

		fh, err := c.FormFile(field)
		if err != nil {
			var tooBig *http.MaxBytesError
			switch {
			case errors.As(err, &tooBig):
				r.Fail(c, apperrors.TooLarge("upload", "File too large. Maximum size is 5MB."), "File too large")
			case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
				if !required {
					c.Next()
					return
				}
				r.Fail(c, apperrors.InvalidInput("upload", "No file uploaded. Please select an image."), "No file uploaded")
			default:
				r.Fail(c, apperrors.InvalidInput("upload", "Invalid upload request"), "Invalid upload request")
			}
			return
		}

		if fh.Size > services.MaxImageBytes {
			r.Fail(c, apperrors.TooLarge("upload", "File too large. Maximum size is 5MB."), "File too large")
			return
		}
		contentType, _, err := services.NormalizeImageType(fh.Header.Get("Content-Type"))
		if err != nil {
			r.Fail(c, err, "Invalid file type")
			return
		}

		f, err := fh.Open()
		if err != nil {
			r.Fail(c, apperrors.InvalidInput("upload", "Invalid upload request"), "Invalid upload request")
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, services.MaxImageBytes+1))
		if err != nil {
			r.Fail(c, apperrors.InvalidInput("upload", "Invalid upload request"), "Invalid upload request")
			return
		}
		if len(data) > services.MaxImageBytes {
			r.Fail(c, apperrors.TooLarge("upload", "File too large. Maximum size is 5MB."), "File too large")
			return
		}

		c.Set(contextUpload, &UploadedImage{Data: data, ContentType: contentType, Filename: fh.Filename})
		c.Next()
	}
}

// Upload returns the image read by ImageUpload, or nil.
func Upload(c *gin.Context) *UploadedImage {
	v, ok := c.Get(contextUpload)
	if !ok {
		return nil
	}
	img, _ := v.(*UploadedImage)
	return img
}
