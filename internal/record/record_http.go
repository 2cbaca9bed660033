package record

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gltp/captrack/pkg/log"
	"github.com/gltp/captrack/pkg/replay"
)

type recordHandler struct {
	records Records
}

// NewHandler attaches the record API routes. The parse endpoint mutates
// state and sits behind the auth middleware; the read endpoints are public.
func NewHandler(engine *gin.Engine, records Records, auth gin.HandlerFunc) {
	handler := recordHandler{records: records}

	engine.GET("/api/records", handler.onAPIGetRecords())
	engine.GET("/api/records/incomplete", handler.onAPIGetIncomplete())
	engine.GET("/api/records/noplayers", handler.onAPIGetNoPlayers())
	engine.POST("/api/records/check", handler.onAPICheckRecords())
	engine.POST("/api/errors/check", handler.onAPICheckErrors())

	authed := engine.Group("/")
	{
		submit := authed.Use(auth)
		submit.POST("/api/parse", handler.onAPIPostParse())
	}
}

type parseRequest struct {
	Input  string `json:"input"`
	Origin string `json:"origin"`
}

func (h recordHandler) onAPIPostParse() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req parseRequest
		if errBind := ctx.ShouldBindJSON(&req); errBind != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

			return
		}

		if req.Input == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": ErrMissingInput.Error()})

			return
		}

		result, errProcess := h.records.Process(ctx, req.Input, req.Origin)
		if errProcess != nil {
			slog.Error("Failed to process submission", log.ErrAttr(errProcess))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

			return
		}

		if !result.Ok {
			ctx.JSON(http.StatusBadRequest, result)

			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func (h recordHandler) onAPIGetRecords() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		h.respondList(ctx, h.records.Completed)
	}
}

func (h recordHandler) onAPIGetIncomplete() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		h.respondList(ctx, h.records.Incomplete)
	}
}

func (h recordHandler) onAPIGetNoPlayers() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		h.respondList(ctx, h.records.NoPlayers)
	}
}

func (h recordHandler) respondList(ctx *gin.Context, list func(ctx context.Context) ([]replay.CaptureRecord, error)) {
	records, errList := list(ctx)
	if errList != nil {
		slog.Error("Failed to load records", log.ErrAttr(errList))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

		return
	}

	ctx.JSON(http.StatusOK, records)
}

func (h recordHandler) onAPICheckRecords() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		uuids, valid := bindUUIDs(ctx)
		if !valid {
			return
		}

		result, errCheck := h.records.CheckKnown(ctx, uuids)
		if errCheck != nil {
			h.respondCheckError(ctx, errCheck)

			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func (h recordHandler) onAPICheckErrors() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		uuids, valid := bindUUIDs(ctx)
		if !valid {
			return
		}

		result, errCheck := h.records.CheckErrors(ctx, uuids)
		if errCheck != nil {
			h.respondCheckError(ctx, errCheck)

			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func (h recordHandler) respondCheckError(ctx *gin.Context, errCheck error) {
	if errors.Is(errCheck, ErrBatchSize) {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ErrBatchSize.Error()})

		return
	}

	slog.Error("Failed to check uuids", log.ErrAttr(errCheck))
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func bindUUIDs(ctx *gin.Context) ([]string, bool) {
	var uuids []string
	if errBind := ctx.ShouldBindJSON(&uuids); errBind != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid json array"})

		return nil, false
	}

	return uuids, true
}
