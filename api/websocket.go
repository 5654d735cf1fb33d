/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/luckygas/luckygas"
)

// wsWriteTimeout bounds each outbound frame so one dead dashboard cannot
// hold a subscription open forever.
const wsWriteTimeout = 5 * time.Second

// Hub bridges the server event bus to websocket dashboard clients. Each
// connection gets its own bus subscription; slow clients lose events rather
// than slowing publishers down.
type Hub struct {
	events *luckygas.EventBus
}

func NewHub(events *luckygas.EventBus) *Hub {
	return &Hub{events: events}
}

// DashboardWS upgrades the request and streams {type, data, timestamp}
// events until the client goes away.
func (a Api) DashboardWS(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("websocket accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	a.hub.serve(c.Request.Context(), conn)
}

func (h *Hub) serve(ctx context.Context, conn *websocket.Conn) {
	events, cancel := h.events.Subscribe()
	defer cancel()

	ctx = conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, wsWriteTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancelWrite()
			if err != nil {
				return
			}
		}
	}
}
