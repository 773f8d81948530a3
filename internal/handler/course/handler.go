package course

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/komekarch/site/backend/internal/model/course"
	"github.com/komekarch/site/backend/pkg/utils"
)

// ComingSoon is the label of the disabled "open module" button.
const ComingSoon = "Открыть модуль (скоро)"

// Handler 课程目录的HTTP处理器
type Handler struct {
	modules course.Store
}

// New 创建课程目录处理器。
func New(modules course.Store) *Handler {
	return &Handler{modules: modules}
}

// RegisterRoutes 在 r 上注册课程路由。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/courses", h.handleList)
	r.Get("/courses/{id}", h.handleGet)
	r.Post("/courses/{id}/open", h.handleOpen)
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.modules.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	module, ok := h.modules.FindByID(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "course module not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, module)
}

// handleOpen answers 501 for known modules: module pages are not published yet.
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.modules.FindByID(chi.URLParam(r, "id")); !ok {
		utils.RespondError(w, http.StatusNotFound, "course module not found")
		return
	}
	utils.RespondError(w, http.StatusNotImplemented, ComingSoon)
}
