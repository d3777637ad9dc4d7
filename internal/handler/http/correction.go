package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CorrectionHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
}

type correctionHandlerImpl struct {
	correctionService correction.CorrectionService
}

func NewCorrectionHandler(correctionService correction.CorrectionService) CorrectionHandler {
	return &correctionHandlerImpl{correctionService: correctionService}
}

func (h *correctionHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req correction.CreateCorrectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.correctionService.RequestCorrection(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Correction request submitted", correction.ToResponse(result))
}

func (h *correctionHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	filter := correction.ListFilter{
		EmployeeID: optionalQueryParam(r, "employee_id"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := correction.Status(status)
		filter.Status = &s
	}

	requests, total, err := h.correctionService.List(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	data := make([]correction.RequestResponse, len(requests))
	for i := range requests {
		data[i] = correction.ToResponse(&requests[i])
	}
	response.SuccessWithMeta(w, data, response.NewMeta(filter.Page, filter.Limit, total))
}

func (h *correctionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	result, err := h.correctionService.GetByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, correction.ToResponse(result))
}

// Review approves or rejects a pending request. Only the first reviewer succeeds.
func (h *correctionHandlerImpl) Review(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req correction.ReviewCorrectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.correctionService.ReviewCorrection(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction request "+string(result.Status), correction.ToResponse(result))
}

func (h *correctionHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	result, err := h.correctionService.CancelCorrection(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction request cancelled", correction.ToResponse(result))
}
