package router

import (
	"net/http"
	"time"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/catalog"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/config"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/handlers"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}
func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(429, gin.H{"error": "too many requests, try again later"})
}

func Setup(log *zap.Logger, cat *catalog.Catalog) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("efondamental_session", store))
	router.Use(UserLoaderMiddleware())

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	authHandler := handlers.NewAuthHandler(log)
	questionnaireHandler := handlers.NewQuestionnaireHandler(log, cat)
	normsHandler := handlers.NewNormsHandler(log, cat)
	resultsHandler := handlers.NewResultsHandler(log, cat)
	patientHandler := handlers.NewPatientHandler(log)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.POST("/api/login", limiter, authHandler.Login)
	router.POST("/api/logout", authHandler.Logout)
	router.POST("/api/register", limiter, authHandler.Register)

	authorized := router.Group("/api")
	authorized.Use(AuthRequired())
	{
		authorized.POST("/password", authHandler.ChangePassword)
		authorized.GET("/responses/:id", resultsHandler.GetResponse)

		questionnaireRoutes := authorized.Group("/questionnaires")
		{
			questionnaireRoutes.GET("", questionnaireHandler.List)
			questionnaireRoutes.GET("/:code", questionnaireHandler.Get)
			questionnaireRoutes.POST("/:code/state", questionnaireHandler.State)
			questionnaireRoutes.POST("/:code/submit", questionnaireHandler.Submit)
		}

		normRoutes := authorized.Group("/norms")
		{
			normRoutes.GET("", normsHandler.List)
			normRoutes.POST("/:instrument/convert", normsHandler.Convert)
			normRoutes.POST("/:instrument/composite", normsHandler.Composite)
		}

		patientRoutes := authorized.Group("/patients")
		{
			patientRoutes.GET("", patientHandler.List)
			patientRoutes.POST("", patientHandler.Create)
			patientRoutes.GET("/:id", patientHandler.Get)
			patientRoutes.GET("/:id/responses", resultsHandler.History)
			patientRoutes.GET("/:id/charts/:code", resultsHandler.TimelineChart)
		}
	}

	return router
}
