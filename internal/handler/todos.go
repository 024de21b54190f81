package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fady17/task/internal/middleware"
	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/internal/service"
	"github.com/fady17/task/pkg/logger"
)

// TodoHandler serves the list and item CRUD API.
type TodoHandler struct {
	service *service.TodoService
	logger  *logger.Logger
}

// NewTodoHandler creates a new todo handler.
func NewTodoHandler(svc *service.TodoService, log *logger.Logger) *TodoHandler {
	return &TodoHandler{service: svc, logger: log}
}

// Routes mounts the CRUD endpoints at the root of r.
func (h *TodoHandler) Routes(r chi.Router) {
	r.Route("/lists", func(r chi.Router) {
		r.Post("/", h.CreateList)
		r.Get("/", h.ListLists)
		r.Get("/{list_id}", h.GetList)
		r.Put("/{list_id}", h.UpdateList)
		r.Delete("/{list_id}", h.DeleteList)
	})
	r.Route("/{list_id}/items", func(r chi.Router) {
		r.Post("/", h.CreateItem)
		r.Put("/{item_id}", h.UpdateItem)
		r.Delete("/{item_id}", h.DeleteItem)
	})
}

// ListLists handles GET /lists/
func (h *TodoHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.service.ListLists(r.Context())
	if err != nil {
		h.fail(w, "failed to list todo lists", err)
		return
	}
	if lists == nil {
		lists = []model.TodoList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

// CreateList handles POST /lists/
func (h *TodoHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var in model.ListInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(in.Title); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	list, err := h.service.CreateList(r.Context(), in)
	if err != nil {
		h.fail(w, "failed to create todo list", err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// GetList handles GET /lists/{list_id}
func (h *TodoHandler) GetList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "list_id")
	if !ok {
		return
	}

	list, err := h.service.GetList(r.Context(), id)
	if errors.Is(err, service.ErrTodoNotFound) {
		writeDetail(w, http.StatusNotFound, "Todo list not found")
		return
	}
	if err != nil {
		h.fail(w, "failed to get todo list", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateList handles PUT /lists/{list_id}
func (h *TodoHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "list_id")
	if !ok {
		return
	}

	var in model.ListInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(in.Title); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	list, err := h.service.UpdateList(r.Context(), id, in)
	if errors.Is(err, service.ErrTodoNotFound) {
		writeDetail(w, http.StatusNotFound, "Todo list not found")
		return
	}
	if err != nil {
		h.fail(w, "failed to update todo list", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteList handles DELETE /lists/{list_id}
func (h *TodoHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "list_id")
	if !ok {
		return
	}

	err := h.service.DeleteList(r.Context(), id)
	if errors.Is(err, service.ErrTodoNotFound) {
		writeDetail(w, http.StatusNotFound, "Todo list not found")
		return
	}
	if err != nil {
		h.fail(w, "failed to delete todo list", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateItem handles POST /{list_id}/items/
func (h *TodoHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "list_id")
	if !ok {
		return
	}

	var in model.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(in.Title); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	item, err := h.service.CreateItem(r.Context(), listID, in)
	if errors.Is(err, service.ErrTodoNotFound) {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Todo list with id %d not found", listID))
		return
	}
	if err != nil {
		h.fail(w, "failed to create todo item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /{list_id}/items/{item_id}. Only the fields present
// in the body change.
func (h *TodoHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "list_id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}

	var patch model.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if patch.Title == nil && patch.Completed == nil {
		writeDetail(w, http.StatusBadRequest, "No update data provided")
		return
	}
	if patch.Title != nil {
		if err := middleware.ValidateTitle(*patch.Title); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	item, err := h.service.UpdateItem(r.Context(), listID, itemID, patch)
	if errors.Is(err, service.ErrTodoNotFound) {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Item with id %d not found in list %d", itemID, listID))
		return
	}
	if err != nil {
		h.fail(w, "failed to update todo item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /{list_id}/items/{item_id}
func (h *TodoHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "list_id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}

	err := h.service.DeleteItem(r.Context(), listID, itemID)
	if errors.Is(err, service.ErrTodoNotFound) {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Item with id %d not found in list %d", itemID, listID))
		return
	}
	if err != nil {
		h.fail(w, "failed to delete todo item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	writeDetail(w, http.StatusInternalServerError, msg)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := middleware.ParseID(name, chi.URLParam(r, name))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return 0, false
	}
	return id, true
}
