package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docqa/internal/app"
	"docqa/internal/render"
	"docqa/internal/transcript"
	"docqa/internal/transport/http/response"
)

type ConversationHandler struct {
	exchange *app.ExchangeService
	view     *transcript.View
}

type AskRequest struct {
	Question string `form:"question" json:"question" binding:"max=8000"`
}

type blockResponse struct {
	ID         transcript.BlockID `json:"id"`
	Kind       string             `json:"kind"`
	Text       string             `json:"text"`
	Summary    string             `json:"summary,omitempty"`
	Label      string             `json:"label,omitempty"`
	Expanded   bool               `json:"expanded,omitempty"`
	References []referenceItem    `json:"references,omitempty"`
}

type referenceItem struct {
	Header string `json:"header"`
	Text   string `json:"text"`
}

func NewConversationHandler(exchange *app.ExchangeService, view *transcript.View) *ConversationHandler {
	return &ConversationHandler{exchange: exchange, view: view}
}

// Ask records the question and returns to the page right away; the answer
// shows up on a later render.
func (h *ConversationHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if _, err := h.exchange.Submit(c.Request.Context(), req.Question); err != nil {
		switch {
		case errors.Is(err, app.ErrEmptyInput):
			response.Back(c, "")
		case errors.Is(err, app.ErrExchangeInFlight):
			response.Back(c, render.Anchor(h.view.Latest()))
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "submit question failed")
		}
		return
	}
	response.Back(c, render.Anchor(h.view.Latest()))
}

// AskJSON submits a question and reports the block to poll for; the answer
// lands in the transcript once the backend replies.
func (h *ConversationHandler) AskJSON(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if _, err := h.exchange.Submit(c.Request.Context(), req.Question); err != nil {
		switch {
		case errors.Is(err, app.ErrEmptyInput):
			response.Error(c, http.StatusBadRequest, response.CodeEmptyQuestion, "question is empty")
		case errors.Is(err, app.ErrExchangeInFlight):
			response.Error(c, http.StatusConflict, response.CodeExchangeInFlight, app.InFlightNotice)
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "submit question failed")
		}
		return
	}
	c.JSON(http.StatusAccepted, response.APIResponse{
		Code:    response.CodeOK,
		Message: "accepted",
		Data: gin.H{
			"latest":    h.view.Latest(),
			"in_flight": h.exchange.InFlight(),
		},
	})
}

func (h *ConversationHandler) Toggle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid turn id")
		return
	}

	if _, err := h.view.Toggle(transcript.BlockID(id)); err != nil {
		switch {
		case errors.Is(err, transcript.ErrBlockNotFound):
			response.Error(c, http.StatusNotFound, response.CodeBlockNotFound, err.Error())
		case errors.Is(err, transcript.ErrNoDisclosure):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "toggle failed")
		}
		return
	}
	response.Back(c, render.Anchor(transcript.BlockID(id)))
}

func (h *ConversationHandler) Transcript(c *gin.Context) {
	blocks := h.view.Blocks()
	out := make([]blockResponse, 0, len(blocks))
	for _, b := range blocks {
		item := blockResponse{ID: b.ID, Kind: b.Kind.String(), Text: b.Text}
		if d := b.Disclosure; d != nil {
			item.Summary = d.Summary()
			item.Label = d.Label()
			item.Expanded = d.Expanded
			for _, r := range b.References {
				item.References = append(item.References, referenceItem{Header: r.Header(), Text: r.Text})
			}
		}
		out = append(out, item)
	}
	response.OK(c, gin.H{
		"blocks":  out,
		"latest":  h.view.Latest(),
		"pending": h.view.PendingCount(),
	})
}
