package relay

import (
	"io"
	"net/http"

	"call-relay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler is the inbound webhook endpoint. It stays thin: read the body,
// unwrap the envelope, hand off to the dispatcher, acknowledge.
type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// HandleWebhook processes one provider delivery. Only an unreadable or
// unparseable body produces a 500; every processable event is acknowledged
// with 200 regardless of internal sub-step failures.
func (h *Handler) HandleWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Error("webhook body read failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read request body"})
		return
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		log.Error("webhook envelope parse failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse webhook payload"})
		return
	}

	res := h.dispatcher.Handle(c.Request.Context(), env)

	if env.Type == typeAssistantRequest {
		if len(res.VariableValues) == 0 {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, gin.H{"variableValues": res.VariableValues})
		return
	}

	ack := gin.H{"received": true}
	if res.Fanned {
		ack["forwarded"] = res.Forwarded
		ack["total"] = res.Total
	}
	c.JSON(http.StatusOK, ack)
}
