package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mindforks/tangent/internal/config"
	"github.com/mindforks/tangent/internal/core/explorer"
	"github.com/mindforks/tangent/internal/core/gesture"
	"github.com/mindforks/tangent/internal/core/graph"
	"github.com/mindforks/tangent/internal/llm"
	"github.com/mindforks/tangent/internal/oracle"
)

// Server exposes one exploration session to a browser-side renderer.
// The renderer owns layout and drawing; this API owns graph state and
// gesture resolution.
type Server struct {
	Explorer *explorer.Explorer
	Gestures *gesture.Disambiguator
	Log      *zap.SugaredLogger

	requestTimeout time.Duration
}

func NewServer(cfg *config.Config, log *zap.SugaredLogger) (*Server, error) {
	client, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		return nil, err
	}
	o := oracle.New(client, cfg.Oracle, log)
	return newServer(o, cfg, log), nil
}

// newServer wires the session with any oracle; tests inject mocks and
// gesture options (short hold delays, fake timers) here.
func newServer(o oracle.Oracle, cfg *config.Config, log *zap.SugaredLogger, gestureOpts ...gesture.Option) *Server {
	timeout := time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s := &Server{
		Explorer:       explorer.New(o, log),
		Log:            log,
		requestTimeout: timeout,
	}

	// Click shows an explanation, long press expands. Both run off the
	// request goroutine the way UI event handlers do; the snapshot's
	// loading flags track progress.
	s.Gestures = gesture.New(gesture.Callbacks{
		OnClick: func(nodeID string) {
			go s.withTimeout(func(ctx context.Context) {
				if _, err := s.Explorer.Explain(ctx, nodeID); err != nil {
					log.Warnw("click explanation failed", "node_id", nodeID, "error", err)
				}
			})
		},
		OnLongPress: func(nodeID string) {
			go s.withTimeout(func(ctx context.Context) {
				if _, err := s.Explorer.Expand(ctx, nodeID); err != nil {
					log.Warnw("long-press expansion failed", "node_id", nodeID, "error", err)
				}
			})
		},
		OnPin:   s.Explorer.Pin,
		OnUnpin: s.Explorer.Unpin,
		OnDrag: func(nodeID string, x, y float64) {
			s.Explorer.Pin(nodeID, x, y)
		},
	}, gestureOpts...)

	return s
}

func (s *Server) withTimeout(fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()
	fn(ctx)
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/search", s.Search)
	r.GET("/graph", s.Graph)
	r.POST("/mode", s.SetMode)
	r.POST("/nodes/:id/expand", s.Expand)
	r.GET("/nodes/:id/explanation", s.Explanation)
	r.POST("/nodes/:id/position", s.SetPosition)
	r.POST("/nodes/:id/pointer", s.Pointer)

	return r
}

type SearchRequest struct {
	Term string `json:"term" binding:"required"`
}

func (s *Server) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	snap, err := s.Explorer.Search(c.Request.Context(), req.Term)
	if err != nil {
		s.Log.Errorw("search failed", "term", req.Term, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) Graph(c *gin.Context) {
	c.JSON(http.StatusOK, s.Explorer.Snapshot())
}

type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

func (s *Server) SetMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	mode, err := oracle.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.Explorer.SetMode(mode)
	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

func (s *Server) Expand(c *gin.Context) {
	snap, err := s.Explorer.Expand(c.Request.Context(), c.Param("id"))
	if errors.Is(err, explorer.ErrNodeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
		return
	}
	if err != nil {
		s.Log.Errorw("expand failed", "node_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Expansion failed"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) Explanation(c *gin.Context) {
	nodeID := c.Param("id")
	text, err := s.Explorer.Explain(c.Request.Context(), nodeID)
	if errors.Is(err, explorer.ErrNodeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
		return
	}
	if err != nil {
		s.Log.Errorw("explanation failed", "node_id", nodeID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Explanation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"node_id": nodeID, "explanation": text})
}

type PositionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) SetPosition(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := s.Explorer.SetPosition(c.Param("id"), graph.Position{X: req.X, Y: req.Y}); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

type PointerRequest struct {
	Type string  `json:"type" binding:"required"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Pointer feeds raw press/move/release events into the gesture engine
// for renderers that delegate gesture resolution. The response names
// the semantic action the event resolved synchronously; a long press
// fires on the timer edge and shows up in the next snapshot instead.
func (s *Server) Pointer(c *gin.Context) {
	nodeID := c.Param("id")
	if !s.Explorer.HasNode(nodeID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
		return
	}

	var req PointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	action := gesture.ActionNone
	switch req.Type {
	case "press":
		s.Gestures.Press(nodeID, req.X, req.Y)
	case "move":
		s.Gestures.Move(nodeID, req.X, req.Y)
	case "release":
		action = s.Gestures.Release(nodeID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown pointer event type"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": action})
}
