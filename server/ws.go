package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is one frame on the query socket.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// handleWebSocket streams chat answers token by token. Each inbound frame is
// a JSON object with a "question" field; the answer arrives as a sequence of
// "stream" frames followed by a "done" frame.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var req queryRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		question := strings.TrimSpace(req.Question)
		if question == "" {
			conn.WriteJSON(Message{Type: "error", Content: "Empty question provided"})
			continue
		}

		if err := s.streamAnswer(c.Request.Context(), conn, question); err != nil {
			conn.WriteJSON(Message{Type: "error", Content: err.Error()})
			continue
		}
		conn.WriteJSON(Message{Type: "done"})
	}
}

func (s *Server) streamAnswer(ctx context.Context, conn *websocket.Conn, question string) error {
	if s.store == nil {
		return fmt.Errorf("document index is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	count, err := s.store.Count(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count chunks")
		return fmt.Errorf("internal server error")
	}
	if count == 0 {
		return fmt.Errorf("no documents indexed, upload a file first")
	}

	embedded, err := s.model.EmbedTexts(ctx, []string{question})
	if err != nil || len(embedded) == 0 {
		return fmt.Errorf("failed to create question embedding")
	}

	k := s.config.QueryTopK
	if count < k {
		k = count
	}
	results, err := s.store.Search(ctx, embedded[0], k)
	if err != nil {
		s.log.Error().Err(err).Msg("chunk search failed")
		return fmt.Errorf("internal server error")
	}

	chunks := make([]string, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, r.Text)
	}

	prompt := fmt.Sprintf(queryPromptFormat, strings.Join(chunks, "\n\n"), question)
	return s.model.GenerateStream(ctx, prompt, func(chunk string) error {
		return conn.WriteJSON(Message{Type: "stream", Content: chunk})
	})
}
