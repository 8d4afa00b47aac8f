package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quiz-feed-service/internal/app"
	"quiz-feed-service/internal/domain"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Users     *app.UserService
	Catalog   *app.CatalogService
	Analytics *app.AnalyticsService
	Play      *app.PlayService
	Tokens    TokenParser
	SyncKey   string
	// Sessions, when set, reports open attempts on /healthz.
	Sessions LiveCounter
}

// LiveCounter counts open attempt sessions.
type LiveCounter interface {
	Live(ctx context.Context) (int, error)
}

// NewRouter registers the REST routes and the play websocket.
func NewRouter(s Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Sync-Key"},
	}))

	h := &handlers{s: s}
	ws := NewWSHandler(s.Play, s.Tokens)

	r.GET("/healthz", h.healthz)
	r.GET("/ws/play", gin.WrapF(ws.ServeWS))

	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", h.register)
	v1.POST("/auth/login", h.login)
	v1.POST("/auth/sync", syncKeyAuth(s.SyncKey), h.sync)
	v1.GET("/play/:username/:slug", h.publicQuiz)

	authed := v1.Group("", jwtAuth(s.Tokens, s.Users))
	authed.GET("/quizzes", h.listQuizzes)
	authed.POST("/quizzes", h.createQuiz)
	authed.PUT("/quizzes/:id", h.updateQuiz)
	authed.DELETE("/quizzes/:id", h.deleteQuiz)
	authed.GET("/quizzes/:id/analytics", h.quizAnalytics)
	authed.GET("/me", h.me)
	authed.PATCH("/me", h.updateProfile)
	authed.GET("/me/stats", h.creatorStats)
	authed.GET("/me/taken", h.takenQuizzes)
	authed.GET("/me/attempts", h.userAttempts)
	return r
}

type handlers struct {
	s Services
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type healthResponse struct {
	Status       string `json:"status"`
	LiveSessions int    `json:"liveSessions"`
}

func (h *handlers) healthz(c *gin.Context) {
	resp := healthResponse{Status: "ok"}
	if h.s.Sessions != nil {
		live, err := h.s.Sessions.Live(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
			return
		}
		resp.LiveSessions = live
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) register(c *gin.Context) {
	var req app.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	user, token, err := h.s.Users.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse{User: user, Token: token})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	user, token, err := h.s.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{User: user, Token: token})
}

func (h *handlers) sync(c *gin.Context) {
	var req domain.ExternalIdentity
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	user, token, err := h.s.Users.Sync(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{User: user, Token: token})
}

func (h *handlers) publicQuiz(c *gin.Context) {
	quiz, err := h.s.Catalog.GetPublic(c.Request.Context(), c.Param("username"), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *handlers) updateProfile(c *gin.Context) {
	var req app.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	user, err := h.s.Users.UpdateProfile(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) listQuizzes(c *gin.Context) {
	quizzes, err := h.s.Catalog.ListByCreator(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *handlers) createQuiz(c *gin.Context) {
	var req app.QuizDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	quiz, err := h.s.Catalog.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

func (h *handlers) updateQuiz(c *gin.Context) {
	var req app.QuizDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	quiz, err := h.s.Catalog.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *handlers) deleteQuiz(c *gin.Context) {
	if err := h.s.Catalog.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) quizAnalytics(c *gin.Context) {
	report, err := h.s.Analytics.QuizAnalytics(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) creatorStats(c *gin.Context) {
	stats, err := h.s.Analytics.CreatorStats(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handlers) takenQuizzes(c *gin.Context) {
	taken, err := h.s.Analytics.TakenQuizzes(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, taken)
}

func (h *handlers) userAttempts(c *gin.Context) {
	attempts, err := h.s.Analytics.UserAttempts(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}
