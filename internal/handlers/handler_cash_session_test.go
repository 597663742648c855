package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/onda_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/onda_backoffice/internal/core/ports/services"
	"github.com/SscSPs/onda_backoffice/internal/dto"
	"github.com/SscSPs/onda_backoffice/internal/handlers"
	"github.com/SscSPs/onda_backoffice/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	testJWTSecret = "test-secret-key-that-is-long-enough"
	testIssuer    = "onda-test"
)

// --- Mock CashSessionService ---
type MockCashSessionService struct {
	mock.Mock
}

func (m *MockCashSessionService) GetSession(ctx context.Context, id string) (*domain.CashSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}
func (m *MockCashSessionService) GetClosure(ctx context.Context, id string) (*domain.Closure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Closure), args.Error(1)
}
func (m *MockCashSessionService) Open(ctx context.Context, operatorID, description string) (*domain.CashSession, *domain.Closure, error) {
	args := m.Called(ctx, operatorID, description)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.CashSession), args.Get(1).(*domain.Closure), args.Error(2)
}
func (m *MockCashSessionService) AttachInvoice(ctx context.Context, sessionID, invoiceID, actor string) (*domain.Invoice, error) {
	args := m.Called(ctx, sessionID, invoiceID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockCashSessionService) Close(ctx context.Context, sessionID string, declared decimal.Decimal, notes, actor string) (*domain.SessionSettlement, error) {
	args := m.Called(ctx, sessionID, declared, notes, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionSettlement), args.Error(1)
}
func (m *MockCashSessionService) OpenSessionOf(ctx context.Context, tx portsrepo.Tx, operatorID string) (*domain.CashSession, error) {
	args := m.Called(ctx, tx, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSession), args.Error(1)
}
func (m *MockCashSessionService) Collect(ctx context.Context, tx portsrepo.Tx, session *domain.CashSession, amount decimal.Decimal, actor string) error {
	args := m.Called(ctx, tx, session, amount, actor)
	return args.Error(0)
}

// Ensure mock implements the interface
var _ portssvc.CashSessionSvcFacade = (*MockCashSessionService)(nil)

// generateTestToken creates a signed operator token accepted by the auth middleware.
func generateTestToken(operatorID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   operatorID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: testJWTSecret, JWTIssuer: testIssuer, IsProduction: true}
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// --- Test Suite ---
type CashSessionHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockCashService *MockCashSessionService
	operatorID      string
	token           string
}

func TestCashSessionHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(CashSessionHandlerTestSuite))
}

func (suite *CashSessionHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(handlers.RegisterValidators())

	suite.router = gin.New()
	suite.mockCashService = new(MockCashSessionService)
	handlers.RegisterRoutes(suite.router, testConfig(), &portssvc.ServiceContainer{Cash: suite.mockCashService}, nil)

	suite.operatorID = uuid.NewString()
	token, err := generateTestToken(suite.operatorID)
	suite.Require().NoError(err)
	suite.token = token
}

func (suite *CashSessionHandlerTestSuite) do(method, url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Authorization", "Bearer "+suite.token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *CashSessionHandlerTestSuite) TestOpenSession_Success() {
	session := &domain.CashSession{
		ID:        uuid.NewString(),
		Code:      "CAJA-20260301-0001",
		OpenedBy:  suite.operatorID,
		ClosureID: uuid.NewString(),
		Lifecycle: domain.NewLifecycle(domain.CashSessionOpen, time.Now()),
	}
	closure := &domain.Closure{ID: session.ClosureID, CashSessionID: session.ID, Lifecycle: domain.NewLifecycle(domain.ClosureOpen, time.Now())}

	suite.mockCashService.On("Open", mock.Anything, suite.operatorID, "morning shift").Return(session, closure, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/cash-sessions/open", dto.OpenCashSessionRequest{Description: "morning shift"})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.OpenCashSessionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("CAJA-20260301-0001", resp.Session.Code)
	suite.Equal(domain.CashSessionOpen, resp.Session.State)
	suite.Equal(session.ClosureID, resp.Closure.ID)
	suite.mockCashService.AssertExpectations(suite.T())
}

func (suite *CashSessionHandlerTestSuite) TestOpenSession_AlreadyOpenIsConflict() {
	suite.mockCashService.On("Open", mock.Anything, suite.operatorID, "").
		Return(nil, nil, fmt.Errorf("%w: operator already has an open session", apperrors.ErrConflict)).Once()

	w := suite.do(http.MethodPost, "/api/v1/cash-sessions/open", nil)

	suite.Equal(http.StatusConflict, w.Code)
	var resp dto.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("CONFLICT", resp.Kind)
	suite.mockCashService.AssertExpectations(suite.T())
}

func (suite *CashSessionHandlerTestSuite) TestOpenSession_MissingToken() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/cash-sessions/open", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockCashService.AssertNotCalled(suite.T(), "Open", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CashSessionHandlerTestSuite) TestCloseSession_Success() {
	sessionID := uuid.NewString()
	declared := decimal.RequireFromString("1180.00")
	now := time.Now()
	settlement := &domain.SessionSettlement{
		Session: domain.CashSession{ID: sessionID, Code: "CAJA-20260301-0001", DeclaredAmount: decimalPtr(declared), Lifecycle: domain.NewLifecycle(domain.CashSessionClosed, now)},
		Closure: domain.Closure{
			ID: uuid.NewString(), CashSessionID: sessionID,
			Expected: decimalPtr(declared), Declared: decimalPtr(declared), Variance: decimalPtr(decimal.Zero),
			ClosedAt: &now, Lifecycle: domain.NewLifecycle(domain.ClosureClosed, now),
		},
		ReconciledCount: 1,
	}

	suite.mockCashService.On("Close", mock.Anything, sessionID,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(declared) }),
		"all good", suite.operatorID).Return(settlement, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/cash-sessions/"+sessionID+"/close", map[string]any{
		"declaredAmount": "1180.00",
		"notes":          "all good",
	})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.CloseCashSessionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(1, resp.ReconciledCount)
	suite.Equal(domain.ClosureClosed, resp.Closure.State)
	suite.True(resp.Closure.Variance.IsZero())
	suite.mockCashService.AssertExpectations(suite.T())
}

func (suite *CashSessionHandlerTestSuite) TestCloseSession_NegativeDeclaredAmountRejected() {
	w := suite.do(http.MethodPost, "/api/v1/cash-sessions/"+uuid.NewString()+"/close", map[string]any{
		"declaredAmount": "-5.00",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockCashService.AssertNotCalled(suite.T(), "Close", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CashSessionHandlerTestSuite) TestCloseSession_OpenInvoicesIsPreconditionFailed() {
	sessionID := uuid.NewString()
	suite.mockCashService.On("Close", mock.Anything, sessionID, mock.Anything, "", suite.operatorID).
		Return(nil, fmt.Errorf("%w: session has no active closure", apperrors.ErrPreconditionFailed)).Once()

	w := suite.do(http.MethodPost, "/api/v1/cash-sessions/"+sessionID+"/close", map[string]any{"declaredAmount": "0"})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	var resp dto.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("PRECONDITION_FAILED", resp.Kind)
}

func (suite *CashSessionHandlerTestSuite) TestAttachInvoice_InvalidInvoiceID() {
	w := suite.do(http.MethodPost, "/api/v1/cash-sessions/"+uuid.NewString()+"/invoices", dto.AttachInvoiceRequest{InvoiceID: "nope"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockCashService.AssertNotCalled(suite.T(), "AttachInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CashSessionHandlerTestSuite) TestGetClosure_NotFound() {
	closureID := uuid.NewString()
	suite.mockCashService.On("GetClosure", mock.Anything, closureID).
		Return(nil, fmt.Errorf("closure %s: %w", closureID, apperrors.ErrNotFound)).Once()

	w := suite.do(http.MethodGet, "/api/v1/closures/"+closureID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockCashService.AssertExpectations(suite.T())
}

func (suite *CashSessionHandlerTestSuite) TestGetSession_InternalErrorIsNotLeaked() {
	sessionID := uuid.NewString()
	suite.mockCashService.On("GetSession", mock.Anything, sessionID).
		Return(nil, fmt.Errorf("pq: connection reset by peer")).Once()

	w := suite.do(http.MethodGet, "/api/v1/cash-sessions/"+sessionID, nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "connection reset")
}
