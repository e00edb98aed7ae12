package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nkovalenko/tutorchat"
	"github.com/nkovalenko/tutorchat/internal/prompt"
	"github.com/nkovalenko/tutorchat/internal/storage"
)

// handleEstimation assesses submitted student work: it renders the
// estimation prompt, asks the model, extracts the score, and logs the
// full exchange.
func (s *Server) handleEstimation(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.Get()
	if cfg.Prompts.Estimation == "" {
		jsonError(w, "Estimation template is not configured.", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	estimationID := storage.NewID()
	task := r.FormValue("task")
	studentWork := r.FormValue("student_work")

	var taskImage, studentImage string
	if hasUpload(r, "task_image") || hasUpload(r, "student_work_image") {
		dir, err := s.store.EstimationDir(estimationID)
		if err != nil {
			s.log.Error("creating estimation dir", "error", err)
			jsonError(w, "failed to store uploads", http.StatusInternalServerError)
			return
		}
		taskImage, _, err = saveUploadedFile(r, "task_image", dir, "task")
		if err != nil {
			s.log.Error("saving task image", "error", err)
			jsonError(w, "failed to store uploads", http.StatusInternalServerError)
			return
		}
		studentImage, _, err = saveUploadedFile(r, "student_work_image", dir, "student")
		if err != nil {
			s.log.Error("saving student work image", "error", err)
			jsonError(w, "failed to store uploads", http.StatusInternalServerError)
			return
		}
	}

	rendered, err := prompt.Render(cfg.Prompts.Estimation, map[string]string{
		"task":               task,
		"task_image":         taskImage,
		"student_work":       studentWork,
		"student_work_image": studentImage,
	})
	if err != nil {
		s.log.Error("rendering estimation prompt", "error", err)
		jsonError(w, "failed to render estimation template", http.StatusInternalServerError)
		return
	}

	var images []string
	for _, path := range []string{taskImage, studentImage} {
		if path != "" {
			images = append(images, path)
		}
	}

	client := s.llmClient()
	defer client.Close()
	reply := client.GenerateReply(r.Context(), rendered, images)
	score := prompt.ExtractScore(reply)

	s.store.LogEstimation(estimationID, storage.EstimationRecord{
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		PromptTemplate:   cfg.Prompts.Estimation,
		Prompt:           rendered,
		Task:             task,
		TaskImage:        taskImage,
		StudentWork:      studentWork,
		StudentWorkImage: studentImage,
		Response:         reply,
		Score:            score,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"estimation_id": estimationID,
		"score":         score,
		"feedback":      reply,
	})
}

// handleEstimationExport renders assessment feedback into a PDF download.
func (s *Server) handleEstimationExport(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Feedback string `json:"feedback"`
		Score    string `json:"score"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(payload.Feedback) == "" {
		jsonError(w, "Feedback is empty", http.StatusBadRequest)
		return
	}

	svc, err := s.pool.Acquire()
	if err != nil {
		s.log.Error("acquiring export service", "error", err)
		jsonError(w, "export service unavailable", http.StatusServiceUnavailable)
		return
	}
	defer s.pool.Release(svc)

	now := time.Now().UTC()
	pdf, err := svc.Export(r.Context(), tutorchat.Input{
		Feedback:    payload.Feedback,
		Score:       strings.TrimSpace(payload.Score),
		GeneratedAt: now,
	})
	if err != nil {
		if errors.Is(err, tutorchat.ErrEmptyFeedback) {
			jsonError(w, "Feedback is empty", http.StatusBadRequest)
			return
		}
		s.log.Error("exporting estimation PDF", "error", err)
		jsonError(w, "failed to generate PDF", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+tutorchat.ExportFilename(now)+`"`)
	w.Write(pdf)
}
