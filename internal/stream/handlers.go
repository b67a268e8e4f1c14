package stream

import (
	"bufio"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/valyala/fasthttp"
)

func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		sub := hub.Register(
			splitParam(c.Query("trips")),
			splitParam(c.Query("types")),
			filtersFromQuery(c.Query("min_confidence"), c.Query("alerts_only")),
		)
		defer hub.Unregister(sub)

		done := make(chan struct{})
		go func() {
			for msg := range sub.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		// Inbound messages adjust the subscription in place.
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			var adj Adjustment
			if err := json.Unmarshal(msg, &adj); err != nil {
				continue
			}
			hub.Adjust(sub.ID, adj)
		}
		<-done
	}))

	r.Get("/sse", func(c *fiber.Ctx) error {
		sub := hub.Register(
			splitParam(c.Query("trips")),
			splitParam(c.Query("types")),
			filtersFromQuery(c.Query("min_confidence"), c.Query("alerts_only")),
		)

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Subscriber-Id", sub.ID)

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer hub.Unregister(sub)
			for msg := range sub.Send {
				if _, err := w.WriteString("data: " + string(msg) + "\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}))
		return nil
	})

	r.Patch("/subscriptions/:id", func(c *fiber.Ctx) error {
		var adj Adjustment
		if err := c.BodyParser(&adj); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !hub.Adjust(c.Params("id"), adj) {
			return fiber.NewError(fiber.StatusNotFound, "subscriber not found")
		}
		return c.JSON(fiber.Map{"updated": true})
	})
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func filtersFromQuery(minConfidence, alertsOnly string) Filters {
	var f Filters
	if n, err := strconv.Atoi(minConfidence); err == nil {
		f.MinConfidence = n
	}
	f.AlertsOnly = alertsOnly == "true" || alertsOnly == "1"
	return f
}
