package tests

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quickbite/api-gateway/internal/gateway"
	"quickbite/api-gateway/internal/mocks"
)

var testConfig = gateway.Config{
	MarketURL:    "http://market-svc",
	AnalyticsURL: "http://analytics-svc",
}

func okResponse(body string) *http.Response {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

func TestGateway_HealthCheck(t *testing.T) {
	gw := gateway.NewGateway(gateway.Config{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	gw.SetupRoutes().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "api-gateway", body["service"])
}

func TestGateway_Target(t *testing.T) {
	gw := gateway.NewGateway(testConfig, nil, nil)

	tests := []struct {
		path string
		want string
	}{
		{path: "/api/stats", want: testConfig.AnalyticsURL},
		{path: "/api/homepage/top-restaurants", want: testConfig.AnalyticsURL},
		{path: "/api/admin/reports/revenue", want: testConfig.AnalyticsURL},
		{path: "/api/restaurant/reports/summary", want: testConfig.AnalyticsURL},
		{path: "/api/admin/restaurants", want: testConfig.MarketURL},
		{path: "/api/restaurant/menu", want: testConfig.MarketURL},
		{path: "/api/statsx", want: testConfig.MarketURL},
		{path: "/api/payments/mpesa/callback/secret", want: testConfig.MarketURL},
		{path: "/uploads/item-1-abc.png", want: testConfig.MarketURL},
		{path: "/index.html", want: ""},
	}

	for _, testCase := range tests {
		t.Run(testCase.path, func(t *testing.T) {
			assert.Equal(t, testCase.want, gw.Target(testCase.path))
		})
	}
}

func TestGateway_RouteHandler_ForwardsRequest(t *testing.T) {
	mockClient := mocks.NewHTTPClient(t)
	gw := gateway.NewGateway(testConfig, mockClient, nil)

	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		cookie, err := req.Cookie("qb_session")
		return req.URL.String() == "http://analytics-svc/api/admin/reports/top-customers?limit=3" &&
			err == nil && cookie.Value == "tok"
	})).Return(okResponse(`[{"id":3,"name":"Achieng","orders":6}]`), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports/top-customers?limit=3", nil)
	req.AddCookie(&http.Cookie{Name: "qb_session", Value: "tok"})
	rr := httptest.NewRecorder()

	gw.RouteHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Achieng")
}

func TestGateway_RouteHandler_UnknownPath(t *testing.T) {
	gw := gateway.NewGateway(testConfig, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
	rr := httptest.NewRecorder()

	gw.RouteHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGateway_RouteHandler_ProxyError(t *testing.T) {
	mockClient := mocks.NewHTTPClient(t)
	gw := gateway.NewGateway(testConfig, mockClient, nil)

	mockClient.On("Do", mock.Anything).Return(nil, errors.New("dial tcp: connection refused")).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
	rr := httptest.NewRecorder()

	gw.RouteHandler(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.NotContains(t, rr.Body.String(), "dial tcp")
}

func TestGateway_ProxyRequest_Upstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Set-Cookie", "qb_session=new; Path=/; HttpOnly")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(r.Method + " " + r.URL.Path + " " + string(body)))
	}))
	t.Cleanup(upstream.Close)

	gw := gateway.NewGateway(gateway.Config{MarketURL: upstream.URL}, upstream.Client(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@example.com"}`))
	rr := httptest.NewRecorder()

	gw.SetupRoutes().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, `POST /api/login {"email":"a@example.com"}`, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "qb_session=new")
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"), "upstream CORS headers are dropped")
}
