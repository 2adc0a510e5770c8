package advisehttp

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"finch/internal/agent"
	"finch/internal/render"
	"finch/internal/store/verdictlog"
)

// AdviseHandler 由 agent.Service 实现。
type AdviseHandler interface {
	Advise(ctx context.Context, req agent.Request) (render.Report, error)
}

// HistoryStore 暴露历史建议查询，可为 nil（未启用持久化）。
type HistoryStore interface {
	List(ctx context.Context, q verdictlog.Query) ([]verdictlog.Record, error)
	GetByTraceID(ctx context.Context, traceID string) (*verdictlog.Record, error)
}

// Router 暴露建议相关的接口。
type Router struct {
	advisor AdviseHandler
	history HistoryStore
}

// NewRouter 构造 API router。
func NewRouter(advisor AdviseHandler, history HistoryStore) *Router {
	return &Router{advisor: advisor, history: history}
}

// Register 将 /api 路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/advise", r.handleAdvise)
	if r.history != nil {
		group.GET("/verdicts", r.handleVerdicts)
		group.GET("/verdicts/:trace_id", r.handleVerdictByTrace)
	}
}

type adviseRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	UserText string `json:"user_text"`
}

type adviseResponse struct {
	Report render.Report `json:"report"`
	Text   string        `json:"text"`
}

func (r *Router) handleAdvise(c *gin.Context) {
	var req adviseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := r.advisor.Advise(c.Request.Context(), agent.Request{
		Symbol:   req.Symbol,
		UserText: req.UserText,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, adviseResponse{Report: report, Text: render.Text(report)})
}

func (r *Router) handleVerdicts(c *gin.Context) {
	q := verdictlog.Query{Symbol: c.Query("symbol")}
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		q.Limit = n
	}
	if v := strings.TrimSpace(c.Query("since")); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a unix timestamp"})
			return
		}
		q.Since = ts
	}
	recs, err := r.history.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verdicts": recs})
}

func (r *Router) handleVerdictByTrace(c *gin.Context) {
	rec, err := r.history.GetByTraceID(c.Request.Context(), c.Param("trace_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "verdict not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
