package audit

import (
	"encoding/json"
	"log"
	"time"
)

// Event is one audit record. Events are emitted as single-line JSON so the
// back-office log can be shipped as-is.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	EmployeeID    int64     `json:"employee_id"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	AccountID     int64     `json:"account_id,omitempty"`
	Amount        float64   `json:"amount,omitempty"`
	Details       any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

// LogReversal records an admin reversing a transaction, with the id of the
// paired reversal record.
func (a *Logger) LogReversal(employeeID, originalID, reversalID int64, amount float64) {
	event := Event{
		Timestamp:     time.Now(),
		EventType:     "REVERSAL",
		EmployeeID:    employeeID,
		TransactionID: originalID,
		Amount:        amount,
		Details: map[string]int64{
			"reversal_id": reversalID,
		},
	}
	a.log(event)
}

// LogAccountChange records a lifecycle change on an account (created,
// toggled, deleted).
func (a *Logger) LogAccountChange(employeeID, accountID int64, change string) {
	event := Event{
		Timestamp:  time.Now(),
		EventType:  "ACCOUNT_" + change,
		EmployeeID: employeeID,
		AccountID:  accountID,
	}
	a.log(event)
}

// LogEmployeeChange records an admin mutating an employee record.
func (a *Logger) LogEmployeeChange(employeeID, targetID int64, change string) {
	event := Event{
		Timestamp:  time.Now(),
		EventType:  "EMPLOYEE_" + change,
		EmployeeID: employeeID,
		Details:    map[string]int64{"target_id": targetID},
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
