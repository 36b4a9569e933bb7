package services

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/mock"

	"github.com/mohit065/bankbase/internal/ledger"
	mW "github.com/mohit065/bankbase/internal/middleware"
	"github.com/mohit065/bankbase/internal/models"
)

// MockDirectory is a mock implementation of ledger.AccountDirectory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Lookup(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func testAccount(id int64) *models.Account {
	return &models.Account{
		ID:       id,
		PID:      "PID-001",
		Name:     "Test Account",
		Email:    "account@example.com",
		IsActive: true,
	}
}

func adminActor() ledger.Actor {
	return ledger.Actor{ID: 1, Role: models.RoleAdmin}
}

func clerkActor() ledger.Actor {
	return ledger.Actor{ID: 2, Role: models.RoleClerk}
}

// doRequest runs a request through the handler with the actor installed the
// way AuthMiddleware would install it.
func doRequest(handler http.Handler, req *http.Request, actor ledger.Actor) *httptest.ResponseRecorder {
	req = req.WithContext(mW.ContextWithActor(req.Context(), actor))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
