package analyze

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
	"github.com/zhouzirui/scam-shield/backend/internal/render"
	"github.com/zhouzirui/scam-shield/backend/internal/service/imagerisk"
	"github.com/zhouzirui/scam-shield/backend/pkg/utils"
)

// multipart framing and JSON wrapping on top of the image itself
const envelopeSlack = 64 * 1024

// Handler 截图分析的HTTP处理器
type Handler struct {
	svc    *imagerisk.Service
	logger zerolog.Logger
}

// New 创建截图分析处理器
func New(svc *imagerisk.Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes 注册截图分析路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
}

type analyzeRequest struct {
	Image string `json:"image"`
}

// Response is the analysis result.
type Response struct {
	imagerisk.Verdict
	HTML string `json:"html,omitempty"`
}

// handleAnalyze accepts either a multipart upload in field "image" or a JSON
// body {"image": "<data URI or base64>"}.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.svc.Guard().MaxBytes()
	// base64 inflates the payload by a third
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes*4/3+envelopeSlack)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		verdict imagerisk.Verdict
		err     error
	)
	switch mediaType {
	case "multipart/form-data":
		verdict, err = h.analyzeMultipart(r)
	case "application/json":
		var payload analyzeRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&payload); decodeErr != nil {
			err = decodeErr
			break
		}
		verdict, err = h.svc.AnalyzeDataURI(r.Context(), payload.Image)
	default:
		utils.RespondError(w, http.StatusUnsupportedMediaType, "content-type must be multipart/form-data or application/json")
		return
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := Response{Verdict: verdict}
	if r.URL.Query().Get("format") == "html" {
		if resp.HTML, err = render.HTML(verdict.Markdown); err != nil {
			h.logger.Warn().Err(err).Msg("render verdict")
		}
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) analyzeMultipart(r *http.Request) (imagerisk.Verdict, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return imagerisk.Verdict{}, err
	}
	defer file.Close()

	// reject on the declared size before reading anything
	if err := h.svc.Guard().CheckSize(header.Size); err != nil {
		return imagerisk.Verdict{}, err
	}

	data, err := io.ReadAll(io.LimitReader(file, h.svc.Guard().MaxBytes()+1))
	if err != nil {
		return imagerisk.Verdict{}, err
	}
	return h.svc.Analyze(r.Context(), data, header.Header.Get("Content-Type"))
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, fault.ErrImageTooLarge), errors.As(err, &maxErr):
		utils.RespondAlert(w, http.StatusRequestEntityTooLarge, "image_too_large", imagerisk.OversizeMessage)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, fault.ErrEmptyImage):
		utils.RespondError(w, http.StatusBadRequest, "image is required")
	case errors.Is(err, fault.ErrNotAnImage):
		utils.RespondError(w, http.StatusBadRequest, "payload is not an image")
	case errors.Is(err, fault.ErrBadEncoding):
		utils.RespondError(w, http.StatusBadRequest, "image is not valid base64")
	case fault.IsTransport(err):
		utils.RespondAlert(w, http.StatusBadGateway, "analysis_failed", imagerisk.FailureMessage)
	default:
		h.logger.Debug().Err(err).Msg("invalid analyze request")
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
	}
}
