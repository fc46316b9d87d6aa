package http

import (
	"net/http"

	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/usecase"
)

func (h *handler) getRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.uc.Recommendation.Get(r.Context(), recommendationID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecommendationResponse(rec))
}

func (h *handler) deleteRecommendation(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Deviation.DeleteRecommendation(r.Context(), recommendationID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) recommendationHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.uc.Recommendation.History(r.Context(), recommendationID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, mapSlice(history, func(e *model.AssignmentHistory) *historyResponse {
		return &historyResponse{
			Assignment:  toAssignmentResponse(e.Assignment),
			TargetDates: mapSlice(e.TargetDates, toTargetDateResponse),
		}
	}))
}

func (h *handler) assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssigneeID types.EmployeeID `json:"assigneeId"`
		WorkDate   string           `json:"workDate"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	workDate, err := parseDate("workDate", req.WorkDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.uc.Recommendation.Assign(r.Context(), recommendationID(r), req.AssigneeID, workDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAssignmentResponse(a))
}

func (h *handler) reassign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssigneeID types.EmployeeID `json:"assigneeId"`
		Comment    string           `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.uc.Recommendation.Reassign(r.Context(), recommendationID(r), req.AssigneeID, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAssignmentResponse(a))
}

type acceptRejectRequest struct {
	Accept *bool `json:"accept"`
}

func (req *acceptRejectRequest) validate() error {
	if req.Accept == nil {
		return model.NewValidationError("accept")
	}
	return nil
}

func (h *handler) acceptOrReject(w http.ResponseWriter, r *http.Request) {
	var req acceptRejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.uc.Recommendation.AcceptOrReject(r.Context(), assignmentID(r), *req.Accept)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAssignmentResponse(a))
}

func (h *handler) acceptOrRejectActive(w http.ResponseWriter, r *http.Request) {
	var req acceptRejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.uc.Recommendation.AcceptOrRejectActive(r.Context(), recommendationID(r), *req.Accept)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAssignmentResponse(a))
}

type dateRequest struct {
	Date string `json:"date"`
}

func (h *handler) setTargetDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate("targetDate", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.uc.Recommendation.SetTargetDate(r.Context(), assignmentID(r), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTargetDateResponse(rec))
}

func (h *handler) complete(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate("completionDate", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.uc.Recommendation.Complete(r.Context(), assignmentID(r), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecommendationResponse(rec))
}

func (h *handler) completeActive(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate("completionDate", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.uc.Recommendation.CompleteActive(r.Context(), recommendationID(r), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecommendationResponse(rec))
}

func (h *handler) sendRecommendationForVerification(w http.ResponseWriter, r *http.Request) {
	rec, err := h.uc.Recommendation.SendForVerification(r.Context(), recommendationID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecommendationResponse(rec))
}

func (h *handler) verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Approve     bool              `json:"approve"`
		Remark      string            `json:"remark"`
		ChallengeID types.ChallengeID `json:"challengeId"`
		Code        string            `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.uc.Recommendation.Verify(r.Context(), recommendationID(r), usecase.VerifyInput{
		Approve:     req.Approve,
		Remark:      req.Remark,
		ChallengeID: req.ChallengeID,
		Code:        req.Code,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecommendationResponse(rec))
}

func (h *handler) dismiss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Remark string `json:"remark"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.uc.Recommendation.Dismiss(r.Context(), recommendationID(r), req.Remark)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecommendationResponse(rec))
}

func (h *handler) setDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Department string `json:"department"`
		Remark     string `json:"remark"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.uc.Recommendation.SetDetails(r.Context(), recommendationID(r), req.Department, req.Remark)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecommendationResponse(rec))
}

// OTP

type actionRequest struct {
	Action    types.ApprovalActionKind `json:"action"`
	SubjectID string                   `json:"subjectId"`
}

func (req actionRequest) ref() model.ActionRef {
	return model.ActionRef{Kind: req.Action, SubjectID: req.SubjectID}
}

func (h *handler) issueOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		actionRequest
		RecipientID types.EmployeeID `json:"recipientId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	// The code goes to the caller unless another recipient is named
	recipient := req.RecipientID
	if recipient == "" {
		recipient = auth.ActorID(r.Context())
	}

	c, err := h.uc.Approval.Issue(r.Context(), req.ref(), recipient)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toChallengeResponse(c))
}

func (h *handler) redeemOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		actionRequest
		otpRequest
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.uc.Approval.Redeem(r.Context(), req.ChallengeID, req.Code, req.ref()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"redeemed": true})
}
