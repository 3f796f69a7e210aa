package handlers

import (
	"delivery-quote-service/internal/api/dto"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/services"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *SessionHandler) search(c *gin.Context) (*services.SuggestionSearch, bool) {
	s, ok := h.session(c)
	if !ok {
		return nil, false
	}
	search := s.Suggestions()
	if search == nil {
		writeError(c, http.StatusServiceUnavailable, "address suggestions are not configured")
		return nil, false
	}
	return search, true
}

func (h *SessionHandler) Suggestions(c *gin.Context) {
	search, ok := h.search(c)
	if !ok {
		return
	}
	field := c.Query("field")
	if field == "" {
		writeError(c, http.StatusBadRequest, "field is required")
		return
	}

	c.JSON(http.StatusOK, dto.SuggestionsResponse{
		Field:       field,
		Loading:     search.Loading(field),
		Suggestions: dto.NewSuggestions(search.Suggestions(field)),
	})
}

// SearchSuggestions schedules a debounced lookup; results are read back with GET.
func (h *SessionHandler) SearchSuggestions(c *gin.Context) {
	search, ok := h.search(c)
	if !ok {
		return
	}
	var req dto.SuggestionQuery
	if !bind(c, &req) {
		return
	}

	if err := search.Search(req.Field, req.Query, nil); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.SuggestionsResponse{
		Field:       req.Field,
		Query:       req.Query,
		Loading:     search.Loading(req.Field),
		Suggestions: dto.NewSuggestions(search.Suggestions(req.Field)),
	})
}

func (h *SessionHandler) ClearSuggestions(c *gin.Context) {
	search, ok := h.search(c)
	if !ok {
		return
	}
	field := c.DefaultQuery("field", services.AllFields)

	search.Clear(field)
	c.Status(http.StatusNoContent)
}

// SuggestionStream upgrades to a WebSocket. The client sends SuggestionQuery
// messages; the server pushes a SuggestionsResponse for the latest query of
// each field once its debounce window has passed.
func (h *SessionHandler) SuggestionStream(c *gin.Context) {
	search, ok := h.search(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var (
		writeMu sync.Mutex
		closed  atomic.Bool
	)
	notify := func(field, query string, list []domain.AddressSuggestion) {
		if closed.Load() {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		err := conn.WriteJSON(dto.SuggestionsResponse{
			Field:       field,
			Query:       query,
			Suggestions: dto.NewSuggestions(list),
		})
		if err != nil {
			h.Log.WithError(err).Debug("websocket write failed")
		}
	}

	for {
		var msg dto.SuggestionQuery
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Log.WithError(err).Warn("websocket closed unexpectedly")
			}
			break
		}
		if msg.Field == "" {
			continue
		}
		if err := search.Search(msg.Field, msg.Query, notify); err != nil {
			h.Log.WithError(err).WithField("field", msg.Field).Debug("suggestion query rejected")
		}
	}
	closed.Store(true)
}
