package knowledge

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/scam-shield/backend/internal/model/fraud"
	"github.com/zhouzirui/scam-shield/backend/internal/render"
	"github.com/zhouzirui/scam-shield/backend/pkg/utils"
)

// Handler 知识库的HTTP处理器
type Handler struct {
	store fraud.Store
}

// New 创建知识库处理器
func New(store fraud.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册知识库相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.handleListCategories)
	r.Get("/categories/{categoryID}", h.handleGetCategory)
	r.Get("/advice", h.handleListAdvice)
}

// handleListCategories 列出所有诈骗类型
func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.List())
}

type categoryDetail struct {
	fraud.Category
	DetailsHTML string `json:"detailsHtml,omitempty"`
}

// handleGetCategory 返回单个诈骗类型的完整说明
func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := h.store.FindByID(chi.URLParam(r, "categoryID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "category not found")
		return
	}

	detail := categoryDetail{Category: category}
	if r.URL.Query().Get("format") == "html" {
		html, err := render.HTML(category.LongDescription)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		detail.DetailsHTML = html
	}
	utils.RespondJSON(w, http.StatusOK, detail)
}

// handleListAdvice 返回受骗后的处理步骤
func (h *Handler) handleListAdvice(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.Advice())
}
