package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"calorietrack/controllers"
	"calorietrack/logger"
	"calorietrack/metrics"
	"calorietrack/middlewares"
	"calorietrack/services"
	"calorietrack/utils"

	"github.com/gin-gonic/gin"
)

// Deps are the constructed services the router wires into controllers.
type Deps struct {
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Resp     *utils.Responder
	Location *time.Location

	// Ping checks database connectivity for /healthz. Optional.
	Ping func(ctx context.Context) error

	Auth     *services.AuthService
	USDA     *services.USDAService
	FoodLogs *services.FoodLogService
	Images   *services.ImageService
	Identify *services.IdentifyService
	Realtime *services.RealtimeHub
}

func SetupRouter(d Deps) *gin.Engine {
	utils.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(d.Log), d.Metrics.GinMiddleware())

	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "hi"}) })
	r.GET("/healthz", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", d.Metrics.Handler())
	}

	requireAuth := middlewares.AuthMiddleware(d.Auth, d.Resp, false)
	api := r.Group("/api")

	authCtl := controllers.NewAuthController(d.Auth, d.Resp)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.GET("/me", requireAuth, authCtl.Me)
	}

	if d.Images != nil {
		uploadCtl := controllers.NewUploadController(d.Images, d.Resp)
		upload := api.Group("/upload", requireAuth)
		{
			upload.POST("/image", middlewares.ImageUpload("image", true, d.Resp), uploadCtl.UploadImage)
			upload.DELETE("/image/:publicId", uploadCtl.DeleteImage)
		}
	}

	foodCtl := controllers.NewFoodController(d.Identify, d.Resp)
	food := api.Group("/food", requireAuth)
	{
		food.POST("/identify", middlewares.ImageUpload("image", false, d.Resp), foodCtl.Identify)
	}

	nutritionCtl := controllers.NewNutritionController(d.USDA, d.Resp)
	nutrition := api.Group("/nutrition", requireAuth)
	{
		nutrition.GET("/search", nutritionCtl.Search)
		nutrition.GET("/details/:fdcId", nutritionCtl.Details)
		nutrition.POST("/calculate", nutritionCtl.Calculate)
	}

	logCtl := controllers.NewFoodLogController(d.FoodLogs, d.Location, d.Resp)
	foodlog := api.Group("/foodlog", requireAuth)
	{
		foodlog.POST("", logCtl.Create)
		foodlog.GET("", logCtl.List)
		foodlog.GET("/today", logCtl.Today)
		foodlog.GET("/date/:date", logCtl.ByDate)
		foodlog.GET("/:id", logCtl.Get)
		foodlog.DELETE("/:id", logCtl.Delete)
	}

	if d.Realtime != nil {
		rtCtl := controllers.NewRealtimeController(d.Realtime)
		api.GET("/realtime/ws", middlewares.AuthMiddleware(d.Auth, d.Resp, true), rtCtl.FoodLogWS)
	}

	return r
}
