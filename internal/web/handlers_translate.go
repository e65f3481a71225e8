package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type startTranslateRequest struct {
	Target string `json:"target"`
}

// handleStartTranslate starts whole-grid translation. The body is optional;
// without a target each column uses the language of its file name.
func (s *Server) handleStartTranslate(w http.ResponseWriter, r *http.Request) {
	var req startTranslateRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, err)
		return
	}

	target := strings.ToLower(strings.TrimSpace(req.Target))
	jobID, err := s.service.StartAutoTranslate(r.Context(), chi.URLParam(r, "sessionID"), target)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusAccepted, map[string]string{
		"job_id":       jobID,
		"progress_url": "/api/translate/" + jobID + "/progress",
		"result_url":   "/api/translate/" + jobID + "/result",
	})
}

// handleTranslateProgress streams job progress via Server-Sent Events.
//
// Each update is a "progress" event whose ID is the number of cells done.
// A reconnecting client passes lastEventId (or Last-Event-ID) and only
// receives updates past it. A "complete" event carrying the final progress
// ends the stream.
func (s *Server) handleTranslateProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(jobID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var last []byte
	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				if last == nil {
					last = []byte("{}")
				}
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", last)
				flusher.Flush()
				return
			}

			data, _ := json.Marshal(progress)
			last = data

			if !progress.Phase.Finished() && progress.Done <= lastEventID {
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Done, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleTranslateStatus returns the current progress without waiting.
func (s *Server) handleTranslateStatus(w http.ResponseWriter, r *http.Request) {
	progress, err := s.service.JobProgress(chi.URLParam(r, "jobID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, progress)
}

// handleTranslateResult returns the final result of a job, or 202 with the
// current progress while it is still running. With ?wait=true it blocks
// until the job ends or the request times out.
func (s *Server) handleTranslateResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	if r.URL.Query().Get("wait") != "true" {
		progress, err := s.service.JobProgress(jobID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if !progress.Phase.Finished() {
			writeJSONStatus(w, http.StatusAccepted, progress)
			return
		}
	}

	res, err := s.service.AutoTranslateResult(r.Context(), jobID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleCancelTranslate stops a job after its current batch.
func (s *Server) handleCancelTranslate(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelAutoTranslate(chi.URLParam(r, "jobID")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "cancelling"})
}
