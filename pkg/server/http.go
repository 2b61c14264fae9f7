package server

import (
	"net/http"
	"strconv"

	"github.com/bastiangx/pathserve/internal/logger"
	"github.com/bastiangx/pathserve/pkg/config"
	"github.com/bastiangx/pathserve/pkg/matcher"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request ID on every HTTP response.
const RequestIDHeader = "X-Request-ID"

// MatchesResponse is the JSON body of GET /v1/matches.
type MatchesResponse struct {
	Paths     []string `json:"paths"`
	Count     int      `json:"count"`
	TimeTaken int64    `json:"time_us"`
	RequestID string   `json:"request_id"`
}

// ErrorResponse is the JSON body of any failed HTTP request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// API serves the matcher over HTTP.
type API struct {
	querier
	log *log.Logger
}

// NewAPI creates the HTTP handlers for m.
func NewAPI(m *matcher.Matcher, cfg *config.Config) *API {
	return &API{querier: newQuerier(m, cfg), log: logger.New("http")}
}

// NewRouter returns a gin engine with every route registered.
func NewRouter(m *matcher.Matcher, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, NewAPI(m, cfg))
	return router
}

// SetupRoutes registers the API on router.
func SetupRoutes(router *gin.Engine, api *API) {
	router.Use(RequestIDMiddleware())
	router.GET("/health", api.HealthCheckHandler)

	v1 := router.Group("/v1")
	{
		v1.GET("/matches", api.MatchesHandler)
		v1.POST("/flush", api.FlushHandler)
		v1.GET("/stats", api.StatsHandler)
	}
}

// RequestIDMiddleware reuses an incoming X-Request-ID or assigns a new UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// HealthCheckHandler reports liveness.
func (a *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MatchesHandler answers GET /v1/matches?q=&limit=.
// An absent q is a bad request; q= (empty) lists candidates alphabetically.
func (a *API) MatchesHandler(c *gin.Context) {
	var query *string
	if q, ok := c.GetQuery("q"); ok {
		query = &q
	}

	var limit *int
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			a.sendError(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = &n
	}

	paths, elapsed, err := a.match(query, limit)
	if err != nil {
		a.log.Debugf("Request %s failed: %v", requestID(c), err)
		a.sendError(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, MatchesResponse{
		Paths:     paths,
		Count:     len(paths),
		TimeTaken: elapsed.Microseconds(),
		RequestID: requestID(c),
	})
}

// FlushHandler drops the cached candidate set.
func (a *API) FlushHandler(c *gin.Context) {
	if err := a.matcher.Flush(); err != nil {
		a.log.Errorf("Flush failed: %v", err)
		a.sendError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StatsHandler reports scanner statistics.
func (a *API) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "stats": a.matcher.Stats()})
}

func (a *API) sendError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		Error:     message,
		Status:    status,
		RequestID: requestID(c),
	})
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}
