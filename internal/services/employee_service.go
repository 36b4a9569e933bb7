package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mohit065/bankbase/internal/audit"
	"github.com/mohit065/bankbase/internal/middleware"
	"github.com/mohit065/bankbase/internal/models"
)

type EmployeeService struct {
	db        *sql.DB
	audit     *audit.Logger
	validator *ValidationHelper
}

// CreateEmployeeRequest represents the new employee payload
// @Description New employee request structure
type CreateEmployeeRequest struct {
	Name     string  `json:"name" validate:"required,min=2" example:"Jane Doe"`
	Email    string  `json:"email" validate:"required,email" example:"jane@bankbase.io"`
	Phone    *string `json:"phone" validate:"omitempty,min=7" example:"+15550123"`
	Password string  `json:"password" validate:"required,min=6" example:"password123"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin clerk" example:"clerk"`
}

// UpdateEmployeeRequest represents a partial employee update
// @Description Employee update request structure; absent fields are untouched
type UpdateEmployeeRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone"`
	Role  *string `json:"role" validate:"omitempty,oneof=admin clerk"`
}

func NewEmployeeService(db *sql.DB, auditLogger *audit.Logger) *EmployeeService {
	return &EmployeeService{
		db:        db,
		audit:     auditLogger,
		validator: NewValidationHelper(),
	}
}

// CreateEmployee handles admin creation of a staff member
// @Summary Create employee
// @Description Create a new employee record (admin only)
// @Tags employees
// @Accept json
// @Produce json
// @Param request body CreateEmployeeRequest true "New employee"
// @Success 200 {object} models.Employee "Employee created"
// @Failure 400 {string} string "Email or phone already exists"
// @Failure 403 {string} string "Admin access required"
// @Router /employees [post]
func (s *EmployeeService) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var exists bool
	if err := s.db.QueryRow("SELECT EXISTS (SELECT 1 FROM employees WHERE email = $1)",
		strings.ToLower(req.Email)).Scan(&exists); err == nil && exists {
		SendErrorResponse(w, "Email already exists", http.StatusBadRequest, nil)
		return
	}
	if req.Phone != nil {
		if err := s.db.QueryRow("SELECT EXISTS (SELECT 1 FROM employees WHERE phone = $1)",
			*req.Phone).Scan(&exists); err == nil && exists {
			SendErrorResponse(w, "Phone already exists", http.StatusBadRequest, nil)
			return
		}
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[EMPLOYEE] Password hashing failed: %v", err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleClerk
	}

	var employee models.Employee
	err = s.db.QueryRow(
		`INSERT INTO employees (name, email, phone, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, email, phone, role, joined_on`,
		req.Name, strings.ToLower(req.Email), req.Phone, hashed, role).
		Scan(&employee.ID, &employee.Name, &employee.Email, &employee.Phone,
			&employee.Role, &employee.JoinedOn)
	if err != nil {
		log.Printf("[EMPLOYEE] Creation failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Failed to create employee", http.StatusInternalServerError, nil)
		return
	}

	s.audit.LogEmployeeChange(actor.ID, employee.ID, "CREATED")
	log.Printf("[EMPLOYEE] Created employee %d (%s)", employee.ID, employee.Email)
	SendJSON(w, http.StatusOK, employee)
}

// UpdateEmployee applies a partial update to an employee record
// @Summary Update employee
// @Description Partially update an employee record (admin only)
// @Tags employees
// @Accept json
// @Produce json
// @Param id path int true "Employee ID"
// @Param request body UpdateEmployeeRequest true "Fields to update"
// @Success 200 {object} models.Employee "Updated employee"
// @Failure 404 {string} string "Employee not found"
// @Router /employees/{id} [patch]
func (s *EmployeeService) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid employee id", http.StatusBadRequest, nil)
		return
	}

	var req UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var employee models.Employee
	err = s.db.QueryRow(
		`UPDATE employees SET
			name = COALESCE($1, name),
			email = COALESCE($2, email),
			phone = COALESCE($3, phone),
			role = COALESCE($4, role)
		 WHERE id = $5
		 RETURNING id, name, email, phone, role, joined_on`,
		req.Name, req.Email, req.Phone, req.Role, id).
		Scan(&employee.ID, &employee.Name, &employee.Email, &employee.Phone,
			&employee.Role, &employee.JoinedOn)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Employee not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[EMPLOYEE] Update failed for %d: %v", id, err)
		SendErrorResponse(w, "Failed to update employee", http.StatusInternalServerError, nil)
		return
	}

	s.audit.LogEmployeeChange(actor.ID, employee.ID, "UPDATED")
	SendJSON(w, http.StatusOK, employee)
}

// ListEmployees returns all staff members
// @Summary List employees
// @Description List all employee records
// @Tags employees
// @Produce json
// @Success 200 {array} models.Employee "Employees"
// @Router /employees [get]
func (s *EmployeeService) ListEmployees(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(
		"SELECT id, name, email, phone, role, joined_on FROM employees ORDER BY id ASC")
	if err != nil {
		log.Printf("[EMPLOYEE] List failed: %v", err)
		SendErrorResponse(w, "Failed to list employees", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	employees := []models.Employee{}
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Role, &e.JoinedOn); err != nil {
			log.Printf("[EMPLOYEE] Scan failed: %v", err)
			SendErrorResponse(w, "Failed to list employees", http.StatusInternalServerError, nil)
			return
		}
		employees = append(employees, e)
	}

	SendJSON(w, http.StatusOK, employees)
}

// GetEmployee returns a single staff member
// @Summary Get employee
// @Description Fetch one employee record by id
// @Tags employees
// @Produce json
// @Param id path int true "Employee ID"
// @Success 200 {object} models.Employee "Employee"
// @Failure 404 {string} string "Employee not found"
// @Router /employees/{id} [get]
func (s *EmployeeService) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid employee id", http.StatusBadRequest, nil)
		return
	}

	var e models.Employee
	err = s.db.QueryRow(
		"SELECT id, name, email, phone, role, joined_on FROM employees WHERE id = $1", id).
		Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Role, &e.JoinedOn)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Employee not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[EMPLOYEE] Fetch failed for %d: %v", id, err)
		SendErrorResponse(w, "Failed to fetch employee", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, e)
}

// DeleteEmployee removes a staff member
// @Summary Delete employee
// @Description Delete an employee record (admin only; self-deletion refused)
// @Tags employees
// @Param id path int true "Employee ID"
// @Success 204 "Deleted"
// @Failure 400 {string} string "You cannot delete your own account"
// @Failure 404 {string} string "Employee not found"
// @Router /employees/{id} [delete]
func (s *EmployeeService) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid employee id", http.StatusBadRequest, nil)
		return
	}

	if actor.ID == id {
		SendErrorResponse(w, "You cannot delete your own account", http.StatusBadRequest, nil)
		return
	}

	result, err := s.db.Exec("DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		log.Printf("[EMPLOYEE] Delete failed for %d: %v", id, err)
		SendErrorResponse(w, "Failed to delete employee", http.StatusInternalServerError, nil)
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		SendErrorResponse(w, "Employee not found", http.StatusNotFound, nil)
		return
	}

	s.audit.LogEmployeeChange(actor.ID, id, "DELETED")
	log.Printf("[EMPLOYEE] Deleted employee %d", id)
	w.WriteHeader(http.StatusNoContent)
}
