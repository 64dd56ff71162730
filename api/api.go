// Package api exposes the schedule session over HTTP as JSON.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/robertmeta/tvfixtures/extract"
	"github.com/robertmeta/tvfixtures/filter"
	"github.com/robertmeta/tvfixtures/model"
	"github.com/robertmeta/tvfixtures/scrape"
	"github.com/robertmeta/tvfixtures/session"
)

const requestIDHeader = "X-Request-ID"

// selectionBody is the wire form of a selection; empty fields are unset.
type selectionBody struct {
	Date        string `json:"date" form:"date"`
	Competition string `json:"competition" form:"competition"`
	Team        string `json:"team" form:"team"`
	TV          string `json:"tv" form:"tv"`
}

func (b selectionBody) empty() bool {
	return b == selectionBody{}
}

func toBody(sel model.Selection) selectionBody {
	var b selectionBody
	if sel.Date != nil {
		b.Date = sel.Date.Format(model.DateLayout)
	}
	if sel.Competition != nil {
		b.Competition = *sel.Competition
	}
	if sel.Team != nil {
		b.Team = *sel.Team
	}
	if sel.TV != nil {
		b.TV = *sel.TV
	}
	return b
}

type handler struct {
	sess   *session.Session
	loc    *time.Location
	logger *slog.Logger
}

// NewRouter builds the gin engine serving sess.
func NewRouter(sess *session.Session, loc *time.Location, logger *slog.Logger) *gin.Engine {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{sess: sess, loc: loc, logger: logger}

	r := gin.New()
	r.Use(requestID(), accessLog(logger), gin.Recovery())

	g := r.Group("/api")
	g.GET("/status", h.status)
	g.GET("/matchdays", h.matchdays)
	g.GET("/matchdays/filtered", h.filtered)
	g.GET("/filters", h.filters)
	g.GET("/selection", h.getSelection)
	g.PUT("/selection", h.putSelection)
	g.POST("/refresh", h.refresh)
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func (h *handler) status(c *gin.Context) {
	st, err := h.sess.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// matchdays returns the full snapshot, or a stateless filtered copy when
// any selection query parameter is present.
func (h *handler) matchdays(c *gin.Context) {
	var q selectionBody
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, err := h.sess.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if q.empty() {
		c.JSON(http.StatusOK, days)
		return
	}
	sel, err := filter.BuildSelection(q.Date, q.Competition, q.Team, q.TV, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, filter.Apply(days, sel))
}

func (h *handler) filtered(c *gin.Context) {
	c.JSON(http.StatusOK, h.sess.Filtered())
}

func (h *handler) filters(c *gin.Context) {
	c.JSON(http.StatusOK, h.sess.Vocabulary())
}

func (h *handler) getSelection(c *gin.Context) {
	c.JSON(http.StatusOK, toBody(h.sess.Selection()))
}

func (h *handler) putSelection(c *gin.Context) {
	var body selectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sel, err := filter.BuildSelection(body.Date, body.Competition, body.Team, body.TV, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.sess.SetSelection(sel)
	c.JSON(http.StatusAccepted, toBody(sel))
}

func (h *handler) refresh(c *gin.Context) {
	err := h.sess.Load(c.Request.Context())
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, scrape.ErrTransport), errors.Is(err, scrape.ErrEmptyPayload),
		errors.Is(err, extract.ErrNoFixtureContainer):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	st, err := h.sess.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}
