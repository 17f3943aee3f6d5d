package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"calorietrack/apperrors"
	"calorietrack/services"
	"calorietrack/utils"

	"github.com/gin-gonic/gin"
)

type NutritionController struct {
	usda *services.USDAService
	resp *utils.Responder
}

func NewNutritionController(usda *services.USDAService, resp *utils.Responder) *NutritionController {
	return &NutritionController{usda: usda, resp: resp}
}

// GET /api/nutrition/search?query=pizza&pageSize=10
func (nc *NutritionController) Search(c *gin.Context) {
	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		nc.resp.Fail(c, apperrors.InvalidInput("nutrition.search", "Search query is required"), "Search query is required")
		return
	}

	pageSize := 0
	if ps := c.Query("pageSize"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil || n < 1 || n > services.MaxSearchPageSize {
			nc.resp.Fail(c, apperrors.InvalidInput("nutrition.search", "pageSize must be between 1 and 50"), "invalid pageSize")
			return
		}
		pageSize = n
	}

	foods, err := nc.usda.Search(c.Request.Context(), query, pageSize)
	if err != nil {
		nc.resp.Fail(c, err, "Failed to search for food")
		return
	}

	msg := "Foods found successfully"
	if len(foods) == 0 {
		msg = "No foods found. Try a different search term."
	}
	nc.resp.OK(c, http.StatusOK, msg, gin.H{"foods": foods, "query": query})
}

// GET /api/nutrition/details/:fdcId
func (nc *NutritionController) Details(c *gin.Context) {
	rec, err := nc.usda.Detail(c.Request.Context(), c.Param("fdcId"))
	if err != nil {
		nc.resp.Fail(c, err, "Failed to get nutrition data")
		return
	}
	nc.resp.OK(c, http.StatusOK, "Nutrition data retrieved successfully", rec)
}

type CalculateInput struct {
	// fdcId arrives as a number from most clients and as a string from some.
	FdcID        any     `json:"fdcId" binding:"required"`
	PortionGrams float64 `json:"portionGrams" binding:"required,gt=0"`
	Unit         string  `json:"unit"`
}

// POST /api/nutrition/calculate {fdcId, portionGrams, unit?}
func (nc *NutritionController) Calculate(c *gin.Context) {
	const op = "nutrition.calculate"

	var input CalculateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		nc.resp.Fail(c, utils.InputError(op, err), "invalid request body")
		return
	}

	id := fdcIDString(input.FdcID)
	if id == "" {
		nc.resp.Fail(c, apperrors.InvalidInput(op, "fdcId is required"), "fdcId is required")
		return
	}

	out, err := nc.usda.Calculate(c.Request.Context(), id, input.PortionGrams, input.Unit)
	if err != nil {
		nc.resp.Fail(c, err, "Failed to calculate nutrition")
		return
	}
	nc.resp.OK(c, http.StatusOK, "Nutrition calculated successfully", out)
}

func fdcIDString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		if id <= 0 || id != float64(int64(id)) {
			return "invalid"
		}
		return strconv.FormatInt(int64(id), 10)
	}
	return ""
}
