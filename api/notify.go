package api

import (
	"net/http"

	"github.com/xraph/vexsync/notify"
	"github.com/xraph/vexsync/team"
)

type notifyRequest struct {
	Content   string     `json:"content"`
	Payload   any        `json:"payload,omitempty"`
	Teams     []team.Ref `json:"teams"`
	Reactions []string   `json:"reactions,omitempty"`
}

type matchRequest struct {
	Content string    `json:"content"`
	Payload any       `json:"payload,omitempty"`
	Match   matchBody `json:"match"`
}

type matchBody struct {
	Program   int      `json:"program"`
	Round     int      `json:"round"`
	Instance  int      `json:"instance"`
	Number    int      `json:"number"`
	Red       []string `json:"red"`
	Blue      []string `json:"blue"`
	RedSit    string   `json:"red_sit,omitempty"`
	BlueSit   string   `json:"blue_sit,omitempty"`
	Teams     []string `json:"teams,omitempty"`
	RedScore  *int     `json:"red_score,omitempty"`
	BlueScore *int     `json:"blue_score,omitempty"`
}

type outcomeResponse struct {
	Channel   string   `json:"channel"`
	MessageID string   `json:"message_id,omitempty"`
	Mentions  []string `json:"mentions,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type reportResponse struct {
	ID       string            `json:"id"`
	Failed   int               `json:"failed"`
	Outcomes []outcomeResponse `json:"outcomes"`
}

func toReportResponse(r *notify.Report) reportResponse {
	resp := reportResponse{
		ID:       r.ID.String(),
		Failed:   r.Failed(),
		Outcomes: make([]outcomeResponse, len(r.Outcomes)),
	}
	for i, o := range r.Outcomes {
		resp.Outcomes[i] = outcomeResponse{Channel: o.Channel, MessageID: o.MessageID, Mentions: o.Mentions}
		if o.Err != nil {
			resp.Outcomes[i].Error = o.Err.Error()
		}
	}
	return resp
}

// reportStatus is 200 when every channel delivered and 502 otherwise.
func reportStatus(r *notify.Report) int {
	if r.Failed() > 0 {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" && req.Payload == nil {
		writeError(w, http.StatusBadRequest, "content or payload is required")
		return
	}

	report := h.notifier.Notify(r.Context(), notify.Message{Content: req.Content, Payload: req.Payload}, req.Teams, req.Reactions)
	writeJSON(w, reportStatus(report), toReportResponse(report))
}

func (h *Handler) notifyMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m := notify.Match{
		Program:   req.Match.Program,
		Round:     req.Match.Round,
		Instance:  req.Match.Instance,
		Number:    req.Match.Number,
		Red:       req.Match.Red,
		Blue:      req.Match.Blue,
		RedSit:    req.Match.RedSit,
		BlueSit:   req.Match.BlueSit,
		Teams:     req.Match.Teams,
		RedScore:  req.Match.RedScore,
		BlueScore: req.Match.BlueScore,
	}
	if len(notify.MatchTeams(m)) == 0 {
		writeError(w, http.StatusBadRequest, "match has no teams")
		return
	}

	report := h.notifier.NotifyMatch(r.Context(), req.Content, m, req.Payload)
	writeJSON(w, reportStatus(report), toReportResponse(report))
}
