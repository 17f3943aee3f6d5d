package controllers

import (
	"net/http"
	"strings"

	"calorietrack/apperrors"
	"calorietrack/middlewares"
	"calorietrack/services"
	"calorietrack/utils"

	"github.com/gin-gonic/gin"
)

type FoodController struct {
	identify *services.IdentifyService
	resp     *utils.Responder
}

func NewFoodController(identify *services.IdentifyService, resp *utils.Responder) *FoodController {
	return &FoodController{identify: identify, resp: resp}
}

// POST /api/food/identify
// Accepts either a multipart "image" file or JSON {"imageUrl": "..."}.
func (fc *FoodController) Identify(c *gin.Context) {
	var ref services.ImageRef
	if img := middlewares.Upload(c); img != nil {
		ref.Data = img.Data
		ref.ContentType = img.ContentType
		ref.URL = c.PostForm("imageUrl")
	} else {
		var req struct {
			ImageURL string `json:"imageUrl"`
		}
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			req.ImageURL = c.PostForm("imageUrl")
		} else if err := c.ShouldBindJSON(&req); err != nil {
			fc.resp.Fail(c, apperrors.InvalidInput("identify", "Image URL is required"), "Image URL is required")
			return
		}
		ref.URL = strings.TrimSpace(req.ImageURL)
	}

	out, err := fc.identify.Identify(c.Request.Context(), ref)
	if err != nil {
		fc.resp.Fail(c, err, "Error processing image. Please search manually.")
		return
	}
	fc.resp.OK(c, http.StatusOK, out.Message, out)
}
