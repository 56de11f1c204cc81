package devplane

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rudderlabs/analytics-go/internal/devplane/store"
)

var messageTypes = map[string]bool{
	"track":    true,
	"identify": true,
	"group":    true,
	"page":     true,
	"screen":   true,
	"alias":    true,
}

// registerBatchRoutes wires the ingestion path.
//
// POST /v1/batch
// - Requires write key auth (source context)
// - Durable: responds only after every message is stored
// - Idempotent: duplicates detected via (source, message_id) uniqueness
func registerBatchRoutes(r gin.IRoutes, st store.Store, logger logrus.FieldLogger) {
	r.POST("/v1/batch", func(c *gin.Context) {
		source := Source(c)
		if source == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var body io.Reader = c.Request.Body
		if strings.EqualFold(c.GetHeader("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(c.Request.Body)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gzip payload"})
				return
			}
			defer zr.Close()
			body = zr
		}

		var req batchRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		if len(req.Batch) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "batch must not be empty"})
			return
		}

		// Validate the whole batch before storing anything, so a 400
		// never leaves partial effects behind.
		type prepared struct {
			messageID string
			msg       batchMessage
			raw       json.RawMessage
		}
		items := make([]prepared, 0, len(req.Batch))
		for i, raw := range req.Batch {
			var msg batchMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("message %d is not an object", i)})
				return
			}
			if msg.Type == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("message %d has no type", i)})
				return
			}
			if !messageTypes[msg.Type] {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("message %d has unknown type %q", i, msg.Type)})
				return
			}
			id := msg.MessageID
			if id == "" {
				id = uuid.New().String()
			}
			items = append(items, prepared{messageID: id, msg: msg, raw: raw})
		}

		now := time.Now().UTC()
		var resp batchResponse
		for _, it := range items {
			name := it.msg.Event
			if name == "" {
				name = it.msg.Name
			}
			inserted, err := st.InsertEvent(c.Request.Context(), store.Event{
				Source:      source,
				MessageID:   it.messageID,
				Type:        it.msg.Type,
				UserID:      it.msg.UserID,
				AnonymousID: it.msg.AnonymousID,
				Name:        name,
				ReceivedAt:  now,
				Payload:     []byte(it.raw),
			})
			if err != nil {
				logger.WithError(err).Error("failed to store batch message")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failed"})
				return
			}
			if inserted {
				resp.Received++
			} else {
				resp.Duplicates++
			}
		}

		c.JSON(http.StatusOK, resp)
	})
}

// registerMetricRoutes wires the serving path.
//
// GET /v1/metrics?event=...&from=...&to=...
// - Requires write key auth (source context)
// - Returns the event count for the window [from,to) on receive time
func registerMetricRoutes(r gin.IRoutes, st store.Store) {
	r.GET("/v1/metrics", func(c *gin.Context) {
		source := Source(c)
		if source == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		eventName := c.Query("event")
		fromStr := c.Query("from")
		toStr := c.Query("to")
		if eventName == "" || fromStr == "" || toStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event, from, to are required"})
			return
		}

		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}

		from = from.UTC()
		to = to.UTC()
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be < to"})
			return
		}

		count, err := st.CountEvents(c.Request.Context(), source, eventName, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"event": eventName,
			"count": count,
		})
	})
}

// registerEventRoutes wires the inspection path used during development.
//
// GET /v1/events?type=...&limit=...
// - Requires write key auth (source context)
// - Returns the most recently received events, newest first
func registerEventRoutes(r gin.IRoutes, st store.Store) {
	r.GET("/v1/events", func(c *gin.Context) {
		source := Source(c)
		if source == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit := 50
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}
		if limit > 200 {
			limit = 200
		}

		eventType := c.Query("type")
		if eventType != "" && !messageTypes[eventType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown type %q", eventType)})
			return
		}

		events, err := st.RecentEvents(c.Request.Context(), source, eventType, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}

		out := make([]eventView, 0, len(events))
		for _, ev := range events {
			out = append(out, eventView{
				MessageID:   ev.MessageID,
				Type:        ev.Type,
				UserID:      ev.UserID,
				AnonymousID: ev.AnonymousID,
				Name:        ev.Name,
				ReceivedAt:  ev.ReceivedAt.UTC().Format(time.RFC3339Nano),
				Message:     json.RawMessage(ev.Payload),
			})
		}

		c.JSON(http.StatusOK, gin.H{"events": out})
	})
}
