// Package api exposes the social and messaging services over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"instaclone/backend/internal/auth"
	"instaclone/backend/internal/messaging"
	"instaclone/backend/internal/monitoring"
	"instaclone/backend/internal/social"
	"instaclone/backend/pkg/logger"
)

// maxUploadBytes bounds multipart bodies unless Options overrides it
const maxUploadBytes = 10 << 20

// Options configures the router
type Options struct {
	ClientOrigin   string
	MediaDir       string // Served at /uploads when set
	SecureCookies  bool
	MaxUploadBytes int64
}

func (o Options) uploadLimit() int64 {
	if o.MaxUploadBytes > 0 {
		return o.MaxUploadBytes
	}
	return maxUploadBytes
}

// Server holds the dependencies shared by all handlers
type Server struct {
	social    *social.Service
	messaging *messaging.Service
	tokens    *auth.TokenIssuer
	opts      Options
	logger    *zap.Logger
}

// NewServer creates the handler set
func NewServer(socialSvc *social.Service, messagingSvc *messaging.Service, tokens *auth.TokenIssuer, opts Options) *Server {
	return &Server{
		social:    socialSvc,
		messaging: messagingSvc,
		tokens:    tokens,
		opts:      opts,
		logger:    logger.Get(),
	}
}

// Router builds the gin engine with middleware and every route
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	uploads := limitBody(s.opts.uploadLimit())
	router.MaxMultipartMemory = s.opts.uploadLimit()
	router.Use(ginLogger(s.logger))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("Panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		abort(c, http.StatusInternalServerError, "Something went wrong")
	}))
	router.Use(monitoring.Middleware())
	router.Use(cors(s.opts.ClientOrigin))

	router.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, "Route not found")
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.opts.MediaDir != "" {
		router.Static("/uploads", s.opts.MediaDir)
	}

	authed := requireAuth(s.tokens)
	v1 := router.Group("/api/v1")

	user := v1.Group("/user")
	{
		user.POST("/register", s.register)
		user.POST("/login", s.login)
		user.GET("/logout", s.logout)
		user.GET("/profile/:id", authed, s.getProfile)
		user.POST("/profile/edit", authed, uploads, s.editProfile)
		user.GET("/suggested", authed, s.suggestedUsers)
		user.POST("/followorunfollow/:id", authed, s.followOrUnfollow)
	}

	post := v1.Group("/post", authed)
	{
		post.POST("/addpost", uploads, s.addPost)
		post.GET("/all", s.listPosts)
		post.GET("/userpost/all", s.listUserPosts)
		post.GET("/:id/like", s.likePost)
		post.POST("/:id/like", s.likePost)
		post.GET("/:id/dislike", s.dislikePost)
		post.POST("/:id/dislike", s.dislikePost)
		post.POST("/:id/comment", s.addComment)
		post.POST("/:id/comment/all", s.listComments)
		post.DELETE("/delete/:id", s.deletePost)
		post.GET("/:id/bookmark", s.toggleBookmark)
		post.POST("/:id/bookmark", s.toggleBookmark)
	}

	message := v1.Group("/message", authed)
	{
		message.POST("/send/:id", s.sendMessage)
		message.GET("/all/:id", s.getMessages)
	}

	return router
}
