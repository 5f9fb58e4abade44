package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/plasma-umass/llm-utils/chat"
	apperrors "github.com/plasma-umass/llm-utils/errors"
	"github.com/plasma-umass/llm-utils/llm"
	"github.com/plasma-umass/llm-utils/logger"
	"github.com/plasma-umass/llm-utils/parse"
	"github.com/plasma-umass/llm-utils/textutil"
	"github.com/plasma-umass/llm-utils/tokens"
)

const defaultTokenModel = "gpt-4"

type handlers struct {
	pricing *tokens.PriceTable
	chat    chat.ChatAPI
	log     *logger.Logger
}

func notFound(path string) *apperrors.AppError {
	return apperrors.NotFound("route", path)
}

type countTokensRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

type countTokensResponse struct {
	Model  string `json:"model"`
	Tokens int    `json:"tokens"`
}

func (h *handlers) countTokens(c *gin.Context) {
	var req countTokensRequest
	if !bind(c, &req) {
		return
	}
	if req.Model == "" {
		req.Model = defaultTokenModel
	}
	RespondOK(c, countTokensResponse{Model: req.Model, Tokens: tokens.CountTokens(req.Model, req.Text)})
}

type costRequest struct {
	Model        string `json:"model" validate:"required"`
	InputTokens  int    `json:"input_tokens" validate:"gte=0"`
	OutputTokens int    `json:"output_tokens" validate:"gte=0"`
}

type costResponse struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

func (h *handlers) cost(c *gin.Context) {
	var req costRequest
	if !bind(c, &req) {
		return
	}
	usd, err := h.pricing.Cost(req.InputTokens, req.OutputTokens, req.Model)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, costResponse{
		Model:        req.Model,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		CostUSD:      usd,
	})
}

func (h *handlers) pricingTable(c *gin.Context) {
	RespondOK(c, h.pricing.Entries())
}

type wrapRequest struct {
	Text  string `json:"text"`
	Width int    `json:"width" validate:"gte=0,lte=1000"`
}

type textResponse struct {
	Text string `json:"text"`
}

func (h *handlers) wrapText(c *gin.Context) {
	var req wrapRequest
	if !bind(c, &req) {
		return
	}
	if req.Width == 0 {
		req.Width = textutil.DefaultWrapWidth
	}
	RespondOK(c, textResponse{Text: textutil.WordWrapExceptCodeBlocks(req.Text, req.Width)})
}

type numberRequest struct {
	Lines []string `json:"lines" validate:"required"`
	First int      `json:"first" validate:"gte=0"`
	Strip bool     `json:"strip"`
}

func (h *handlers) numberLines(c *gin.Context) {
	var req numberRequest
	if !bind(c, &req) {
		return
	}
	if req.First == 0 {
		req.First = 1
	}
	RespondOK(c, textResponse{Text: textutil.NumberGroupOfLines(req.Lines, req.First, req.Strip)})
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractJSONResponse struct {
	Found bool            `json:"found"`
	JSON  json.RawMessage `json:"json"`
}

func (h *handlers) extractJSON(c *gin.Context) {
	var req extractRequest
	if !bind(c, &req) {
		return
	}
	obj, ok := parse.ExtractJSON(req.Text)
	if !ok {
		obj = json.RawMessage("null")
	}
	RespondOK(c, extractJSONResponse{Found: ok, JSON: obj})
}

type extractCodeResponse struct {
	Blocks []string `json:"blocks"`
}

func (h *handlers) extractCode(c *gin.Context) {
	var req extractRequest
	if !bind(c, &req) {
		return
	}
	RespondOK(c, extractCodeResponse{Blocks: parse.ExtractCodeBlocks(req.Text)})
}

type parseChatlogRequest struct {
	Chatlog string `json:"chatlog"`
}

type messagesResponse struct {
	Messages []llm.Message `json:"messages"`
}

func (h *handlers) parseChatlog(c *gin.Context) {
	var req parseChatlogRequest
	if !bind(c, &req) {
		return
	}
	RespondOK(c, messagesResponse{Messages: parse.ParseChatlog(req.Chatlog)})
}

type generateChatlogRequest struct {
	Messages        []llm.Message `json:"messages" validate:"required,dive"`
	AssistantPrefix string        `json:"assistant_prefix"`
}

type chatlogResponse struct {
	Chatlog string `json:"chatlog"`
}

func (h *handlers) generateChatlog(c *gin.Context) {
	var req generateChatlogRequest
	if !bind(c, &req) {
		return
	}
	if req.AssistantPrefix == "" {
		req.AssistantPrefix = "Assistant"
	}
	RespondOK(c, chatlogResponse{Chatlog: parse.GenerateChatlog(req.Messages, req.AssistantPrefix)})
}

type chatRequest struct {
	Conversation []llm.Message `json:"conversation" validate:"required,min=1,dive"`
	N            int           `json:"n" validate:"gte=0,lte=16"`
}

type chatResponse struct {
	Provider string    `json:"provider"`
	Replies  []string  `json:"replies"`
	Usage    llm.Usage `json:"usage"`
}

func (h *handlers) chatHandler(c *gin.Context) {
	if h.chat == nil {
		RespondWithError(c, apperrors.ServiceUnavailable("chat").
			WithDetail("reason", "no chat provider configured"))
		return
	}
	var req chatRequest
	if !bind(c, &req) {
		return
	}
	if req.N == 0 {
		req.N = 1
	}

	replies, err := h.chat.SendMessage(c.Request.Context(), req.Conversation, req.N)
	if err != nil {
		h.log.WithContext(c.Request.Context()).WithError(err).Warn("chat request failed",
			logger.Fields(logger.FieldProvider, h.chat.Name()))
		RespondWithError(c, err)
		return
	}
	RespondOK(c, chatResponse{Provider: h.chat.Name(), Replies: replies, Usage: h.chat.Usage()})
}
