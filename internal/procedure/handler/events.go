package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	dErrors "engageflow/pkg/domain-errors"
	"engageflow/pkg/platform/httputil"
)

const keepAliveInterval = 25 * time.Second

// HandleEvents handles GET /procedures/{procedureID}/events as a server-sent event
// stream of change notifications for one procedure. Clients resume by reconnecting
// and re-reading the procedure.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	if h.events == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "change stream is not enabled"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}
	// Authorizes the caller and confirms the procedure exists before streaming.
	if _, err := h.service.GetProcedure(ctx, procedureID); err != nil {
		h.fail(w, r, "open change stream failed", err)
		return
	}

	sub, err := h.events.Subscribe(ctx)
	if err != nil {
		h.fail(w, r, "subscribe to changes failed", dErrors.Wrap(err, dErrors.CodeInternal, "failed to open change stream"))
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if event.ProcedureID != procedureID {
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: procedure.changed\ndata: %s\n\n", event.Version, payload)
			flusher.Flush()
		}
	}
}
