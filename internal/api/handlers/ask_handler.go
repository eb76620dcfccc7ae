package handlers

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/contractintel/backend/internal/rag"
	"github.com/contractintel/backend/internal/storage/memory"
)

type AskHandler struct {
	store   *memory.Store
	service *rag.Service
}

func NewAskHandler(store *memory.Store, service *rag.Service) *AskHandler {
	return &AskHandler{
		store:   store,
		service: service,
	}
}

// Ask answers a question over the selected documents in one response.
func (h *AskHandler) Ask(c *fiber.Ctx) error {
	question := c.Query("question")
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is required",
		})
	}

	h.store.Increment(memory.MetricQuestions)

	response := h.service.Answer(c.Context(), question, documentIDParams(c))

	return c.JSON(response)
}

// AskStream answers over server-sent events: one data event per provider
// fragment, then a literal [DONE] sentinel so consumers get an explicit
// end-of-stream marker.
func (h *AskHandler) AskStream(c *fiber.Ctx) error {
	question := c.Query("question")
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is required",
		})
	}

	documentIDs := documentIDParams(c)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// Once the provider call is issued there is no cancellation path, so the
	// stream runs against a background context rather than the request's.
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for fragment := range h.service.AnswerStream(context.Background(), question, documentIDs) {
			fmt.Fprintf(w, "data: %s\n\n", fragment)
			w.Flush()
			time.Sleep(10 * time.Millisecond)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		w.Flush()
	}))

	return nil
}

// documentIDParams collects document_ids from repeated query params and
// comma-joined values.
func documentIDParams(c *fiber.Ctx) []string {
	var ids []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("document_ids") {
		for _, id := range strings.Split(string(raw), ",") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				ids = append(ids, trimmed)
			}
		}
	}
	return ids
}
