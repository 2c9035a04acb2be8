package api

import (
	"fmt"
	"net/http"

	"github.com/HendryAvila/taskchat/internal/store"
	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "user_id")
	filter := store.ParseStatusFilter(r.URL.Query().Get("status"))

	tasks, err := s.tasks.ListTasks(r.Context(), owner, filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "user_id")

	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	task, err := s.tasks.AddTask(r.Context(), owner, req.Title, req.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, task)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "user_id")
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	task, err := s.tasks.ToggleTask(r.Context(), owner, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "user_id")
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	task, err := s.tasks.UpdateTask(r.Context(), owner, id, req.Title, req.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "user_id")
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	if err := s.tasks.DeleteTask(r.Context(), owner, id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// taskID parses {task_id}. Anything that is not a positive integer is
// answered as a missing task.
func (s *Server) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "task_id")
	id, ok := pathID(raw)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("Task id %s not found", raw))
	}
	return id, ok
}
