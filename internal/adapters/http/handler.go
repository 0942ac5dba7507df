package httpadapter

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PabloGalante/yvi-assistant/internal/app/analytics"
	"github.com/PabloGalante/yvi-assistant/internal/app/share"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
	"github.com/PabloGalante/yvi-assistant/internal/observability"
)

const (
	defaultLogsLimit = 50
	maxLogsLimit     = 500
)

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	Message   string           `json:"message"`
	SessionID domain.SessionID `json:"sessionId,omitempty"`
	Settings  *domain.Settings `json:"settings,omitempty"`
}

type chatResponse struct {
	Reply  string `json:"reply"`
	Source string `json:"source,omitempty"`
}

type deleteSessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type feedbackRequest struct {
	Feedback domain.Feedback `json:"feedback"`
}

type createShareRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type createShareResponse struct {
	Code string `json:"code"`
	Link string `json:"link"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	// chat text is plain text; markup is stripped and entities restored
	req.Message = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(req.Message)))
	if req.Message == "" {
		badRequest(c, "Message is required")
		return
	}

	resp, err := s.replies.Reply(c.Request.Context(), domain.ReplyRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
		Settings:  req.Settings,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			badRequest(c, "Message is required")
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{Reply: resp.Reply, Source: resp.Source})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	observability.LoggerFromContext(c.Request.Context()).Info().
		Str("session_id", c.Param("id")).
		Msg("chat session deleted")

	c.JSON(http.StatusOK, deleteSessionResponse{
		Success: true,
		Message: "Chat session deleted successfully",
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.analytics.Stats(c.Request.Context(), s.now())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleLogs(c *gin.Context) {
	limit := defaultLogsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogsLimit)
	}

	logs, err := s.analytics.Logs(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	err := s.analytics.SetFeedback(c.Request.Context(), c.Param("id"), req.Feedback)
	switch {
	case errors.Is(err, analytics.ErrInvalidFeedback):
		badRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		notFound(c, "chat log not found")
	case err != nil:
		internalError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) handleCreateShare(c *gin.Context) {
	var req createShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	kind, ok := share.ParseKind(req.Type)
	if !ok {
		badRequest(c, "type must be conversation, favorites or template")
		return
	}

	payload, err := decodeSharePayload(kind, req.Data)
	if err != nil {
		badRequest(c, "invalid "+string(kind)+" data")
		return
	}

	code, err := s.codec.Encode(kind, payload)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	s.countShare("encode", kind)

	c.JSON(http.StatusCreated, createShareResponse{
		Code: code,
		Link: share.BuildShareableLink(s.publicOrigin, code),
	})
}

func (s *Server) handleGetShare(c *gin.Context) {
	env, ok := s.codec.Decode(c.Param("code"))
	if !ok {
		badRequest(c, "invalid share code")
		return
	}
	s.countShare("decode", env.Type)
	c.JSON(http.StatusOK, env)
}

// ─────────────────────────────────────────────
// Share Helpers
// ─────────────────────────────────────────────

// decodeSharePayload checks data against the shape of kind.
func decodeSharePayload(kind share.Kind, data json.RawMessage) (any, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, errors.New("missing data")
	}

	var (
		payload any
		err     error
	)
	switch kind {
	case share.KindConversation:
		var v share.ConversationData
		err = json.Unmarshal(data, &v)
		if v.Messages == nil {
			v.Messages = []domain.Message{}
		}
		if v.MessageCount == 0 {
			v.MessageCount = len(v.Messages)
		}
		payload = v
	case share.KindFavorites:
		var v []share.FavoriteData
		err = json.Unmarshal(data, &v)
		payload = v
	case share.KindTemplate:
		var v share.TemplateData
		err = json.Unmarshal(data, &v)
		payload = v
	}
	return payload, err
}

func (s *Server) countShare(op string, kind share.Kind) {
	if s.metrics != nil {
		s.metrics.SharesTotal.WithLabelValues(op, string(kind)).Inc()
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"error": msg})
}

func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "internal server error",
	})
}
