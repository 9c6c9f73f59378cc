package subscription

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newMarkPaidRouter(svc Service, tenantID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("tenant_id", tenantID)
	})
	router.POST("/admin/subscriptions/:subscriptionID/mark-paid", NewHandler(svc).MarkPaid)
	return router
}

func TestMarkPaidHandler(t *testing.T) {
	svc, m := newServiceWithMocks()

	m.repo.On("GetByID", mock.Anything, 7).Return(&PackageSubscription{
		ID: 7, TenantID: 1, CustomerID: 5, PaymentStatus: PaymentStatusPending,
	}, nil)
	m.repo.On("MarkPaid", mock.Anything, 7).Return(nil)

	router := newMarkPaidRouter(svc, 1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/admin/subscriptions/7/mark-paid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marked as paid")
	m.repo.AssertExpectations(t)
}

func TestMarkPaidHandler_ForeignTenantIsNotFound(t *testing.T) {
	svc, m := newServiceWithMocks()

	m.repo.On("GetByID", mock.Anything, 7).Return(&PackageSubscription{
		ID: 7, TenantID: 42, CustomerID: 5, PaymentStatus: PaymentStatusPending,
	}, nil)

	router := newMarkPaidRouter(svc, 1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/admin/subscriptions/7/mark-paid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	m.repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
}

func TestMarkPaidHandler_BadID(t *testing.T) {
	svc, _ := newServiceWithMocks()

	router := newMarkPaidRouter(svc, 1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/admin/subscriptions/abc/mark-paid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
