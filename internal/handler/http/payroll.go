package http

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/export"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Salary records
	CreateSalary(w http.ResponseWriter, r *http.Request)
	GetSalary(w http.ResponseWriter, r *http.Request)
	ListSalaries(w http.ResponseWriter, r *http.Request)
	UpdateSalary(w http.ResponseWriter, r *http.Request)
	DeleteSalary(w http.ResponseWriter, r *http.Request)
	LockSalary(w http.ResponseWriter, r *http.Request)
	AcknowledgeSalary(w http.ResponseWriter, r *http.Request)

	// Generation
	GenerateMonthly(w http.ResponseWriter, r *http.Request)

	// Summary
	GetSalarySummary(w http.ResponseWriter, r *http.Request)
	GetSalaryStatistics(w http.ResponseWriter, r *http.Request)
	ExportSalaries(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== SALARY RECORDS ==========

func (h *payrollHandlerImpl) CreateSalary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req payroll.CreateSalaryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.payrollService.CreateSalaryEntry(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary record created", payroll.ToSalaryResponse(result))
}

func (h *payrollHandlerImpl) GetSalary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.GetSalary(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.ToSalaryResponse(result))
}

// salaryFilterFrom parses the list query. ok is false after a 400 has been written.
func salaryFilterFrom(w http.ResponseWriter, r *http.Request) (payroll.ListFilter, bool) {
	filter := payroll.ListFilter{
		EmployeeID: optionalQueryParam(r, "employee_id"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}

	var ok bool
	if filter.Month, ok = optionalIntQueryParam(r, "month"); !ok {
		response.BadRequest(w, "month must be a number", nil)
		return filter, false
	}
	if filter.Year, ok = optionalIntQueryParam(r, "year"); !ok {
		response.BadRequest(w, "year must be a number", nil)
		return filter, false
	}
	if status := r.URL.Query().Get("payment_status"); status != "" {
		s := payroll.PaymentStatus(status)
		filter.PaymentStatus = &s
	}
	return filter, true
}

func (h *payrollHandlerImpl) ListSalaries(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	filter, ok := salaryFilterFrom(w, r)
	if !ok {
		return
	}

	records, total, err := h.payrollService.ListSalaries(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	data := make([]payroll.SalaryResponse, len(records))
	for i := range records {
		data[i] = payroll.ToSalaryResponse(&records[i])
	}
	response.SuccessWithMeta(w, data, response.NewMeta(filter.Page, filter.Limit, total))
}

func (h *payrollHandlerImpl) UpdateSalary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req payroll.UpdateSalaryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.payrollService.UpdateSalaryEntry(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary record updated", payroll.ToSalaryResponse(result))
}

func (h *payrollHandlerImpl) DeleteSalary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.payrollService.DeleteSalaryEntry(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary record deleted", nil)
}

func (h *payrollHandlerImpl) LockSalary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.LockSalaryEntry(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary record locked", payroll.ToSalaryResponse(result))
}

func (h *payrollHandlerImpl) AcknowledgeSalary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.AcknowledgeSalary(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary acknowledged", payroll.ToSalaryResponse(result))
}

// ========== GENERATION ==========

// GenerateMonthly reports per-employee failures in the body; it only fails as a whole when the
// run could not start.
func (h *payrollHandlerImpl) GenerateMonthly(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req payroll.GenerateMonthlyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.payrollService.GenerateMonthly(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := fmt.Sprintf("Generated %d of %d salary records", result.SuccessCount, result.TotalEmployees)
	response.SuccessWithMessage(w, message, result)
}

// ========== SUMMARY ==========

func (h *payrollHandlerImpl) GetSalarySummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	year := getIntQueryParam(r, "year", 0)
	result, err := h.payrollService.GetSalarySummary(r.Context(), actor, r.URL.Query().Get("employee_id"), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetSalaryStatistics(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	month, ok := optionalIntQueryParam(r, "month")
	if !ok {
		response.BadRequest(w, "month must be a number", nil)
		return
	}

	result, err := h.payrollService.GetSalaryStatistics(r.Context(), actor, getIntQueryParam(r, "year", 0), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ExportSalaries(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter, ok := salaryFilterFrom(w, r)
	if !ok {
		return
	}

	body, err := h.payrollService.ExportSalaries(r.Context(), actor, filter, format)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, format.ContentType(), "salaries"+format.Extension(), body)
}
