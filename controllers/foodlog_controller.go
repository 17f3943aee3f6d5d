package controllers

import (
	"net/http"
	"time"

	"calorietrack/apperrors"
	"calorietrack/middlewares"
	"calorietrack/services"
	"calorietrack/utils"

	"github.com/gin-gonic/gin"
)

type FoodLogController struct {
	logs *services.FoodLogService
	loc  *time.Location
	resp *utils.Responder
}

func NewFoodLogController(logs *services.FoodLogService, loc *time.Location, resp *utils.Responder) *FoodLogController {
	if loc == nil {
		loc = time.Local
	}
	return &FoodLogController{logs: logs, loc: loc, resp: resp}
}

// POST /api/foodlog
func (fc *FoodLogController) Create(c *gin.Context) {
	var input services.FoodLogInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fc.resp.Fail(c, utils.InputError("foodlog.create", err), "invalid request body")
		return
	}

	entry, err := fc.logs.Create(c.Request.Context(), middlewares.UserID(c), input)
	if err != nil {
		fc.resp.Fail(c, err, "Failed to create food log")
		return
	}
	fc.resp.OK(c, http.StatusCreated, "Food log created successfully", entry)
}

// GET /api/foodlog
func (fc *FoodLogController) List(c *gin.Context) {
	logs, err := fc.logs.ListAll(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fc.resp.Fail(c, err, "Failed to retrieve food logs")
		return
	}
	fc.resp.OK(c, http.StatusOK, "Food logs retrieved successfully", gin.H{"logs": logs, "count": len(logs)})
}

// GET /api/foodlog/today
func (fc *FoodLogController) Today(c *gin.Context) {
	day, err := fc.logs.ListToday(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fc.resp.Fail(c, err, "Failed to retrieve today's food logs")
		return
	}
	fc.resp.OK(c, http.StatusOK, "Today's food logs retrieved successfully", day)
}

// GET /api/foodlog/date/:date (YYYY-MM-DD)
func (fc *FoodLogController) ByDate(c *gin.Context) {
	day, err := services.ParseDay(c.Param("date"), fc.loc)
	if err != nil {
		fc.resp.Fail(c, apperrors.InvalidInput("foodlog.list_day", "date must be YYYY-MM-DD"), "invalid date")
		return
	}

	out, err := fc.logs.ListByDate(c.Request.Context(), middlewares.UserID(c), day)
	if err != nil {
		fc.resp.Fail(c, err, "Failed to retrieve food logs")
		return
	}
	fc.resp.OK(c, http.StatusOK, "Food logs retrieved successfully", out)
}

// GET /api/foodlog/:id
func (fc *FoodLogController) Get(c *gin.Context) {
	entry, err := fc.logs.Get(c.Request.Context(), c.Param("id"), middlewares.UserID(c))
	if err != nil {
		fc.resp.Fail(c, err, "Failed to retrieve food log")
		return
	}
	fc.resp.OK(c, http.StatusOK, "Food log retrieved successfully", entry)
}

// DELETE /api/foodlog/:id
func (fc *FoodLogController) Delete(c *gin.Context) {
	if err := fc.logs.Delete(c.Request.Context(), c.Param("id"), middlewares.UserID(c)); err != nil {
		fc.resp.Fail(c, err, "Failed to delete food log")
		return
	}
	fc.resp.OK(c, http.StatusOK, "Food log deleted successfully", nil)
}
