package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
)

var errMissingSocketToken = errors.New("token query parameter is required")

type TokenParser interface {
	Parse(token string) (domain.Principal, error)
}

type SocketServer interface {
	Serve(conn *websocket.Conn, principal domain.Principal)
}

// ChatHandler upgrades authenticated requests to the realtime websocket that
// carries forum and attendance rooms.
type ChatHandler struct {
	tokens   TokenParser
	hub      SocketServer
	upgrader websocket.Upgrader
}

func NewChatHandler(tokens TokenParser, hub SocketServer, allowedOrigins []string) *ChatHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &ChatHandler{
		tokens: tokens,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// HandleWebSocket godoc
// @Summary      Realtime connection
// @Description  Client frames: join_forum, leave_forum, join_attendance, send_message, typing.
// @Description  Server frames: new_message, message_updated, user_typing, new_checkin, checkin_reverted, error.
// @Tags         realtime
// @Param        token   query     string  true  "bearer token"
// @Success      101
// @Failure      401  {object}  response.Err
// @Router       /ws [get]
func (h *ChatHandler) HandleWebSocket(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		response.RenderErr(ctx, response.ErrUnauthorized(errMissingSocketToken))
		return
	}

	principal, err := h.tokens.Parse(token)
	if err != nil {
		response.RenderErr(ctx, response.ErrUnauthorized(err))
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// the upgrader already wrote the error response
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Serve(conn, principal)
}
