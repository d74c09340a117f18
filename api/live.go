package api

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/x-clone-service/internal/dataloader"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// livePosts отдает живую выборку постов по WebSocket: первый снимок сразу,
// затем полный снимок на каждое изменение.
func (h *Handler) livePosts(w http.ResponseWriter, r *http.Request) {
	q, err := parsePostQuery(r)
	if err != nil {
		h.respondError(w, r, "post", err)
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger().Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := h.Hub.Subscribe(ctx, q)
	if err != nil {
		h.logger().Error("live subscribe", "err", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return
	}
	defer sub.Cancel()
	h.logger().Debug("live subscription opened", "subscription", sub.ID, "author", q.AuthorID)

	// Клиент ничего не присылает; чтение нужно, чтобы заметить закрытие
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := h.PingInterval
	if interval <= 0 {
		interval = defaultPingInterval
	}
	ping := time.NewTicker(interval)
	defer ping.Stop()

	loaders := dataloader.NewLoaders(h.Store)
	for {
		select {
		case <-ctx.Done():
			return
		case posts, ok := <-sub.C():
			if !ok {
				return
			}
			loaders.Reset()
			if err := loaders.EnrichAuthors(ctx, posts); err != nil {
				h.logger().Warn("enrich live snapshot", "err", err)
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Snapshot{Type: MessageSnapshot, Posts: posts}); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
