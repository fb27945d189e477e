package hosting

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/orinfm/pipeline/src/features/eventbus"
)

const keepaliveInterval = 30 * time.Second

// RegisterEventsRoute mounts the SSE endpoint that multiplexes both
// runners' events onto one stream.
func RegisterEventsRoute(app *fiber.App, bus *eventbus.Bus) {
	app.Get("/api/v1/pipeline/events", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")

		ch := bus.Subscribe()

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer bus.Unsubscribe(ch)

			for {
				select {
				case event, ok := <-ch:
					if !ok {
						return
					}
					data, err := json.Marshal(event.Data)
					if err != nil {
						slog.Error("failed to marshal event data", "error", err)
						continue
					}
					fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
					if err := w.Flush(); err != nil {
						return
					}
				case <-time.After(keepaliveInterval):
					fmt.Fprint(w, "event: keepalive\ndata: {}\n\n")
					if err := w.Flush(); err != nil {
						return
					}
				}
			}
		})

		return nil
	})
}
