package rest

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
	"github.com/totegamma/tubesage/internal/logger"
	"github.com/totegamma/tubesage/internal/present/rest/middleware"
	"github.com/totegamma/tubesage/internal/present/rest/presenter"
	"github.com/totegamma/tubesage/internal/usecase"
	"github.com/totegamma/tubesage/platform"
)

const linkCacheControl = "public, max-age=300, stale-while-revalidate=60"

// SessionStore binds chat session cookies to rooms.
type SessionStore interface {
	Bind(ctx context.Context, roomID string) (string, error)
	Room(ctx context.Context, token string) (string, error)
	TTL() time.Duration
}

// RoomFeed streams newly stored messages of a room.
type RoomFeed interface {
	Realtime(ctx context.Context, roomID string, output chan<- domain.ChatMessage)
}

type Handler struct {
	link       *usecase.LinkUsecase
	content    *usecase.ContentUsecase
	chat       *usecase.ChatUsecase
	results    *usecase.QuizResultUsecase
	sessions   SessionStore
	feed       RoomFeed
	cookieName string
	log        *logger.Logger
}

func NewHandler(
	link *usecase.LinkUsecase,
	content *usecase.ContentUsecase,
	chat *usecase.ChatUsecase,
	results *usecase.QuizResultUsecase,
	sessions SessionStore,
	feed RoomFeed,
	cookieName string,
	log *logger.Logger,
) *Handler {
	return &Handler{
		link:       link,
		content:    content,
		chat:       chat,
		results:    results,
		sessions:   sessions,
		feed:       feed,
		cookieName: cookieName,
		log:        log.With("module", "rest"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.handleHealth)

	api := e.Group("/api/v1")
	api.GET("/link", h.handleLink)
	api.GET("/summary", h.handleSummary)
	api.POST("/summary", h.handleSummary)
	api.GET("/quiz", h.handleQuiz)
	api.POST("/quiz", h.handleQuiz)
	api.POST("/quiz/results", h.handleRecordResult, middleware.RequireIdentity)
	api.GET("/teachers/results", h.handleTeacherResults, middleware.RequireIdentity, middleware.RequireRole(domain.RoleTeacher))
	api.POST("/chat/rooms", h.handleResolveRoom)
	api.GET("/chat/rooms", h.handleListRooms, middleware.RequireIdentity)
	api.PATCH("/chat/rooms/:id", h.handlePinRoom, middleware.RequireIdentity)
	api.GET("/chat/rooms/:id/realtime", h.handleRealtime)
	api.POST("/chat", h.handleChat)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type keyRequest struct {
	URL      string `json:"url" query:"url"`
	Platform string `json:"platform" query:"platform"`
	VideoID  string `json:"videoId" query:"videoId"`
	ID       string `json:"id" query:"id"`
}

func (r keyRequest) query() platform.Query {
	id := r.VideoID
	if id == "" {
		id = r.ID
	}
	return platform.Query{URL: r.URL, Platform: r.Platform, ID: id}
}

// bindKey reads a key from the query string or, for bodies, from JSON and
// resolves it to its canonical form.
func (h *Handler) bindKey(c echo.Context) (tubesage.ResourceKey, error) {
	var req keyRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return tubesage.ResourceKey{}, domain.NewInputError(domain.CodeInvalidParams, "")
	}
	if c.Request().Method != http.MethodGet && c.Request().ContentLength != 0 {
		if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
			return tubesage.ResourceKey{}, domain.NewInputError(domain.CodeInvalidBody, "Request body must be JSON.")
		}
	}
	return h.link.Resolve(c.Request().Context(), req.query())
}

func (h *Handler) handleLink(c echo.Context) error {
	key, err := h.link.Resolve(c.Request().Context(), platform.Query{
		URL:      c.QueryParam("url"),
		Platform: c.QueryParam("platform"),
		ID:       c.QueryParam("id"),
	})
	if err != nil {
		return presenter.Error(c, h.log, err)
	}

	c.Response().Header().Set("Cache-Control", linkCacheControl)
	return presenter.OK(c, key)
}

type contentResponse struct {
	Status    string               `json:"status"`
	Key       tubesage.ResourceKey `json:"key"`
	Content   tubesage.Content     `json:"content"`
	Persisted bool                 `json:"persisted"`
}

func (h *Handler) handleSummary(c echo.Context) error {
	return h.serveContent(c, tubesage.KindSummary)
}

func (h *Handler) handleQuiz(c echo.Context) error {
	return h.serveContent(c, tubesage.KindQuiz)
}

func (h *Handler) serveContent(c echo.Context, kind tubesage.ContentKind) error {
	key, err := h.bindKey(c)
	if err != nil {
		return presenter.Error(c, h.log, err)
	}

	content, err := h.content.Get(c.Request().Context(), key, kind)
	persisted := true
	if err != nil {
		var storageErr *domain.StorageError
		if !errors.As(err, &storageErr) || storageErr.Op != "persist" {
			return presenter.Error(c, h.log, err)
		}
		h.log.Warn("Serving generated content that could not be stored",
			"key", key.String(),
			"kind", kind,
			"error", err,
		)
		persisted = false
	}

	return presenter.OK(c, contentResponse{
		Status:    "success",
		Key:       key,
		Content:   content,
		Persisted: persisted,
	})
}

type recordResultRequest struct {
	keyRequest
	Score int `json:"score"`
	Total int `json:"total"`
}

func (h *Handler) handleRecordResult(c echo.Context) error {
	ctx := c.Request().Context()

	var req recordResultRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "Request body must be JSON.")
	}
	key, err := h.link.Resolve(ctx, req.query())
	if err != nil {
		return presenter.Error(c, h.log, err)
	}

	result, err := h.results.Record(ctx, domain.RequesterID(ctx), key, req.Score, req.Total)
	if err != nil {
		return presenter.Error(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": "success", "result": result})
}

func (h *Handler) handleTeacherResults(c echo.Context) error {
	ctx := c.Request().Context()

	key, err := h.link.Resolve(ctx, platform.Query{
		URL:      c.QueryParam("url"),
		Platform: c.QueryParam("platform"),
		ID:       c.QueryParam("id"),
	})
	if err != nil {
		return presenter.Error(c, h.log, err)
	}

	var since time.Time
	if s := c.QueryParam("since"); s != "" {
		since, err = parseSince(s)
		if err != nil {
			return presenter.BadRequestMessage(c, "since must be an RFC3339 time or unix seconds")
		}
	}

	report, err := h.results.Report(ctx, key, since)
	if err != nil {
		return presenter.Error(c, h.log, err)
	}

	if c.QueryParam("format") == "csv" {
		return writeResultsCSV(c, report)
	}
	return presenter.OK(c, echo.Map{"status": "success", "report": report})
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}

func writeResultsCSV(c echo.Context, report usecase.QuizReport) error {
	filename := "quiz-results-" + report.Key.Platform + "-" + report.Key.VideoID + ".csv"
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	w.Write([]string{"User", "Score", "Total", "Timestamp"})
	for _, r := range report.Results {
		w.Write([]string{
			r.User,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Total),
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	return w.Error()
}

type roomResponse struct {
	Room     domain.ChatRoom      `json:"room"`
	Messages []domain.ChatMessage `json:"messages"`
}

func (h *Handler) handleResolveRoom(c echo.Context) error {
	ctx := c.Request().Context()

	key, err := h.bindKey(c)
	if err != nil {
		return presenter.Error(c, h.log, err)
	}

	room, messages, err := h.chat.ResolveRoom(ctx, key, domain.RequesterID(ctx))
	if err != nil {
		return presenter.Error(c, h.log, err)
	}

	token, err := h.sessions.Bind(ctx, room.ID)
	if err != nil {
		return presenter.Error(c, h.log, &domain.StorageError{Op: "bind session", Err: err})
	}
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})

	return presenter.OK(c, roomResponse{Room: room, Messages: messages})
}

func (h *Handler) handleListRooms(c echo.Context) error {
	ctx := c.Request().Context()

	rooms, err := h.chat.ListRooms(ctx, domain.RequesterID(ctx))
	if err != nil {
		return presenter.Error(c, h.log, err)
	}
	return presenter.OK(c, echo.Map{"rooms": rooms})
}

type pinRequest struct {
	Pinned *bool `json:"pinned"`
}

func (h *Handler) handlePinRoom(c echo.Context) error {
	ctx := c.Request().Context()

	var req pinRequest
	if err := c.Bind(&req); err != nil || req.Pinned == nil {
		return presenter.BadRequestMessage(c, "pinned must be a boolean")
	}

	room, err := h.chat.SetPinned(ctx, c.Param("id"), domain.RequesterID(ctx), *req.Pinned)
	if err != nil {
		return presenter.Error(c, h.log, err)
	}
	return presenter.OK(c, echo.Map{"room": room})
}

type chatRequest struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
}

type chatResponse struct {
	Message string          `json:"message"`
	Sender  tubesage.Sender `json:"sender"`
}

// roomFromRequest picks the room named in the body, or the one bound to the
// session cookie.
func (h *Handler) roomFromRequest(c echo.Context, roomID string) (domain.ChatRoom, error) {
	ctx := c.Request().Context()

	if roomID == "" {
		cookie, err := c.Cookie(h.cookieName)
		if err != nil || cookie.Value == "" {
			return domain.ChatRoom{}, domain.NewInputError(domain.CodeNoSession, "No chat session found. Open a chat room first.")
		}
		roomID, err = h.sessions.Room(ctx, cookie.Value)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ChatRoom{}, domain.NewInputError(domain.CodeNoSession, "Chat session expired. Open the chat room again.")
			}
			return domain.ChatRoom{}, &domain.StorageError{Op: "load session", Err: err}
		}
	}

	room, err := h.chat.Room(ctx, roomID, domain.RequesterID(ctx))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ChatRoom{}, domain.NewInputError(domain.CodeNoSession, "Chat room not found.")
	}
	return room, err
}

func (h *Handler) handleChat(c echo.Context) error {
	ctx := c.Request().Context()

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "Request body must be JSON.")
	}
	if strings.TrimSpace(req.Message) == "" {
		return presenter.Error(c, h.log, domain.NewInputError(domain.CodeInvalidBody, "Message is required."))
	}

	room, err := h.roomFromRequest(c, req.RoomID)
	if err != nil {
		return presenter.Error(c, h.log, err)
	}

	reply, err := h.chat.Ask(ctx, room, req.Message)
	if err != nil {
		return presenter.Error(c, h.log, err)
	}
	return presenter.OK(c, chatResponse{Message: reply.Text, Sender: reply.Sender})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// realtimeRoom authorizes a feed subscription. Browsers cannot attach an
// Authorization header to a websocket handshake, so a session cookie bound to
// the room is accepted in place of the owner identity.
func (h *Handler) realtimeRoom(c echo.Context) (domain.ChatRoom, error) {
	ctx := c.Request().Context()
	roomID := c.Param("id")

	if cookie, err := c.Cookie(h.cookieName); err == nil && cookie.Value != "" {
		bound, err := h.sessions.Room(ctx, cookie.Value)
		if err == nil && bound == roomID {
			room, err := h.chat.SessionRoom(ctx, roomID)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ChatRoom{}, domain.NewInputError(domain.CodeNoSession, "Chat room not found.")
			}
			return room, err
		}
	}
	return h.roomFromRequest(c, roomID)
}

func (h *Handler) handleRealtime(c echo.Context) error {
	room, err := h.realtimeRoom(c)
	if err != nil {
		return presenter.Error(c, h.log, err)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade WebSocket", "error", err)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan domain.ChatMessage)
	go h.feed.Realtime(ctx, room.ID, output)

	// the client only sends heartbeats; reading detects the close
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				var closeErr *websocket.CloseError
				if !errors.As(err, &closeErr) {
					h.log.Debug("Error reading message", "room", room.ID, "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-output:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(msg); err != nil {
				h.log.Error("Error writing message", "room", room.ID, "error", err)
				return nil
			}
		}
	}
}
