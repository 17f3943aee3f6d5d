package controllers

import (
	"net/http"

	"calorietrack/apperrors"
	"calorietrack/middlewares"
	"calorietrack/services"
	"calorietrack/utils"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	images *services.ImageService
	resp   *utils.Responder
}

func NewUploadController(images *services.ImageService, resp *utils.Responder) *UploadController {
	return &UploadController{images: images, resp: resp}
}

// POST /api/upload/image (multipart field "image")
func (uc *UploadController) UploadImage(c *gin.Context) {
	img := middlewares.Upload(c)
	if img == nil {
		uc.resp.Fail(c, apperrors.InvalidInput("upload", "No file uploaded. Please select an image."), "No file uploaded")
		return
	}

	stored, err := uc.images.Upload(c.Request.Context(), middlewares.UserID(c), img.Data, img.ContentType)
	if err != nil {
		uc.resp.Fail(c, err, "Failed to upload image")
		return
	}
	uc.resp.OK(c, http.StatusOK, "Image uploaded successfully", stored)
}

// DELETE /api/upload/image/:publicId
func (uc *UploadController) DeleteImage(c *gin.Context) {
	if err := uc.images.Delete(c.Request.Context(), middlewares.UserID(c), c.Param("publicId")); err != nil {
		uc.resp.Fail(c, err, "Failed to delete image")
		return
	}
	uc.resp.OK(c, http.StatusOK, "Image deleted successfully", nil)
}
