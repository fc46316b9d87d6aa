package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/usecase"
)

// defaultEmployeeSearchLimit caps /employees when no limit is given
const defaultEmployeeSearchLimit = 20

type handler struct {
	uc *usecase.UseCases
}

// Studies

type studyRequest struct {
	Title      string             `json:"title"`
	Site       string             `json:"site"`
	Department string             `json:"department"`
	Team       []types.EmployeeID `json:"team"`
}

func (h *handler) createStudy(w http.ResponseWriter, r *http.Request) {
	var req studyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	study, err := h.uc.Hazop.CreateStudy(r.Context(), usecase.StudyInput{
		Title:      req.Title,
		Site:       req.Site,
		Department: req.Department,
		Team:       req.Team,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toStudyResponse(study))
}

func (h *handler) listStudies(w http.ResponseWriter, r *http.Request) {
	includeRetired, _ := strconv.ParseBool(r.URL.Query().Get("includeRetired"))
	studies, err := h.uc.Hazop.ListStudies(r.Context(), includeRetired)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mapSlice(studies, toStudyResponse))
}

func (h *handler) getStudy(w http.ResponseWriter, r *http.Request) {
	study, err := h.uc.Hazop.GetStudy(r.Context(), studyID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStudyResponse(study))
}

func (h *handler) setTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Team []types.EmployeeID `json:"team"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	study, err := h.uc.Hazop.SetTeam(r.Context(), studyID(r), req.Team)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStudyResponse(study))
}

func (h *handler) retireStudy(w http.ResponseWriter, r *http.Request) {
	study, err := h.uc.Hazop.RetireStudy(r.Context(), studyID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStudyResponse(study))
}

func (h *handler) progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.Hazop.Progress(r.Context(), studyID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

type otpRequest struct {
	ChallengeID types.ChallengeID `json:"challengeId"`
	Code        string            `json:"code"`
}

func (h *handler) sendStudyForVerification(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	study, err := h.uc.Hazop.SendForVerification(r.Context(), studyID(r), req.ChallengeID, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStudyResponse(study))
}

func (h *handler) finalSignOff(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	study, err := h.uc.Hazop.FinalSignOff(r.Context(), studyID(r), req.ChallengeID, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStudyResponse(study))
}

// Nodes

type nodeRequest struct {
	Title             string   `json:"title"`
	DesignIntent      string   `json:"designIntent"`
	Drawing           string   `json:"drawing"`
	DrawingRevision   string   `json:"drawingRevision"`
	ProcessParameters []string `json:"processParameters"`
}

func (h *handler) createNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	node, err := h.uc.Hazop.CreateNode(r.Context(), studyID(r), usecase.NodeInput{
		Title:             req.Title,
		DesignIntent:      req.DesignIntent,
		Drawing:           req.Drawing,
		DrawingRevision:   req.DrawingRevision,
		ProcessParameters: req.ProcessParameters,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toNodeResponse(node))
}

func (h *handler) listNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.uc.Hazop.ListNodes(r.Context(), studyID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mapSlice(nodes, toNodeResponse))
}

func (h *handler) getNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.uc.Hazop.GetNode(r.Context(), nodeID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toNodeResponse(node))
}

func (h *handler) completeNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.uc.Hazop.CompleteNode(r.Context(), nodeID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toNodeResponse(node))
}

func (h *handler) reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviationIDs []types.DeviationID `json:"deviationIds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	deviations, err := h.uc.Sequence.Reorder(r.Context(), nodeID(r), req.DeviationIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mapSlice(deviations, toDeviationResponse))
}

// Deviations

type deviationRequest struct {
	NodeID                types.NodeID      `json:"nodeId,omitempty"`
	Version               int64             `json:"version,omitempty"`
	Draft                 bool              `json:"draft"`
	GeneralParameter      string            `json:"generalParameter"`
	SpecificParameter     string            `json:"specificParameter"`
	GuideWord             string            `json:"guideWord"`
	Deviation             string            `json:"deviation"`
	Causes                string            `json:"causes"`
	Consequences          string            `json:"consequences"`
	ExistingControl       string            `json:"existingControl"`
	ExistingProbability   types.Probability `json:"existingProbability"`
	ExistingSeverity      types.Severity    `json:"existingSeverity"`
	AdditionalControl     string            `json:"additionalControl"`
	AdditionalProbability types.Probability `json:"additionalProbability"`
	AdditionalSeverity    types.Severity    `json:"additionalSeverity"`
}

func (req *deviationRequest) input() model.DeviationInput {
	return model.DeviationInput{
		GeneralParameter:      req.GeneralParameter,
		SpecificParameter:     req.SpecificParameter,
		GuideWord:             req.GuideWord,
		Deviation:             req.Deviation,
		Causes:                req.Causes,
		Consequences:          req.Consequences,
		ExistingControl:       req.ExistingControl,
		ExistingProbability:   req.ExistingProbability,
		ExistingSeverity:      req.ExistingSeverity,
		AdditionalControl:     req.AdditionalControl,
		AdditionalProbability: req.AdditionalProbability,
		AdditionalSeverity:    req.AdditionalSeverity,
	}
}

func (h *handler) createDeviation(w http.ResponseWriter, r *http.Request) {
	var req deviationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.NodeID == "" {
		writeError(w, r, model.NewValidationError("nodeId"))
		return
	}

	d, err := h.uc.Deviation.Create(r.Context(), req.NodeID, req.input(), req.Draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toDeviationResponse(d))
}

func (h *handler) updateDeviation(w http.ResponseWriter, r *http.Request) {
	var req deviationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	d, err := h.uc.Deviation.Update(r.Context(), deviationID(r), req.Version, req.input(), req.Draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toDeviationResponse(d))
}

func (h *handler) getDeviation(w http.ResponseWriter, r *http.Request) {
	d, err := h.uc.Deviation.Get(r.Context(), deviationID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toDeviationResponse(d))
}

func (h *handler) deleteDeviation(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Deviation.Delete(r.Context(), deviationID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listDeviations(w http.ResponseWriter, r *http.Request) {
	deviations, err := h.uc.Deviation.List(r.Context(), nodeID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mapSlice(deviations, toDeviationResponse))
}

func (h *handler) listRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.uc.Deviation.Recommendations(r.Context(), deviationID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mapSlice(recs, toRecommendationResponse))
}

// Misc

func (h *handler) riskMatrix(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.uc.Risk.Matrix())
}

func (h *handler) searchEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultEmployeeSearchLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, r, model.NewValidationError("limit"))
			return
		}
		limit = n
	}

	employees, err := h.uc.Employee.Search(r.Context(), q.Get("q"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mapSlice(employees, toEmployeeResponse))
}

func studyID(r *http.Request) types.StudyID {
	return types.StudyID(chi.URLParam(r, "studyID"))
}

func nodeID(r *http.Request) types.NodeID {
	return types.NodeID(chi.URLParam(r, "nodeID"))
}

func deviationID(r *http.Request) types.DeviationID {
	return types.DeviationID(chi.URLParam(r, "deviationID"))
}

func recommendationID(r *http.Request) types.RecommendationID {
	return types.RecommendationID(chi.URLParam(r, "recommendationID"))
}

func assignmentID(r *http.Request) types.AssignmentID {
	return types.AssignmentID(chi.URLParam(r, "assignmentID"))
}
