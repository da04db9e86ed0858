package routes

import (
	"net/http"

	"SECUREATTEND/config"
	"SECUREATTEND/controllers/attendance"
	"SECUREATTEND/controllers/auth"
	"SECUREATTEND/controllers/face"
	"SECUREATTEND/logging"
	"SECUREATTEND/middlewares"
	"SECUREATTEND/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter wires every endpoint onto a new gin engine.
func SetupRouter(cfg *config.Config, svc *service.Service, log logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(log))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", middlewares.RequestIDHeader)
	if len(cfg.Web.CORSOrigins) == 0 || (len(cfg.Web.CORSOrigins) == 1 && cfg.Web.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.Web.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	authCtl := auth.NewController(cfg.Auth)
	faceCtl := face.NewController(svc)
	attendanceCtl := attendance.NewController(svc)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "matcher": cfg.Matching.Matcher})
	})

	// the browser client posts to the root paths
	r.POST("/register", faceCtl.Register)
	r.POST("/check-in", attendanceCtl.CheckIn)

	api := r.Group("/api")
	{
		api.POST("/login", authCtl.Login)
		api.POST("/register", faceCtl.Register)
		api.POST("/check-in", attendanceCtl.CheckIn)
	}

	protected := api.Group("")
	protected.Use(middlewares.JWTAuth(cfg.Auth.JWTKey))
	{
		protected.GET("/faces", faceCtl.List)
		protected.POST("/faces", faceCtl.RegisterEmbedding)
		protected.PUT("/faces/:name", faceCtl.Replace)
		protected.DELETE("/faces/:name", faceCtl.Remove)
		protected.POST("/add-student", faceCtl.AddStudent)
		protected.GET("/students", faceCtl.Students)
		protected.GET("/courses", faceCtl.Courses)

		protected.GET("/attendance", attendanceCtl.GetAttendance)
		protected.GET("/attendance/dates", attendanceCtl.Dates)
	}

	return r
}
