package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homehub/auth"
	"homehub/internal/engine"
	"homehub/internal/models"
	"homehub/internal/web/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type fakeDeviceLookup struct {
	devices map[string]*models.Device
}

func (f *fakeDeviceLookup) GetDeviceByID(ctx context.Context, deviceID string) (*models.Device, error) {
	d, ok := f.devices[deviceID]
	if !ok {
		return nil, errors.New("device not found")
	}
	return d, nil
}

type fakeEvaluator struct {
	result engine.Result
}

func (f *fakeEvaluator) EvaluateRules(ctx context.Context, ownerID int64) (engine.Result, error) {
	return f.result, nil
}

const testSecret = "unit-test-secret"

func signedToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

// automationRouter wires the routes against fakes; the rejection paths under
// test return before the database pool is ever touched.
func automationRouter(eval RuleEvaluator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	authModule := auth.NewAuthModule(nil, nil, testSecret)
	mw := middleware.NewMiddlewareManager(nil, nil, authModule)
	lookup := &fakeDeviceLookup{devices: map[string]*models.Device{
		"Relay01":  {DeviceID: "Relay01", Relay: true, Accepted: true},
		"Sensor01": {DeviceID: "Sensor01", Relay: false, Accepted: true},
	}}
	RegisterAutomationRoutes(router, mw, nil, lookup, eval)
	return router
}

func postRule(t *testing.T, router *gin.Engine, token string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/automations/rules", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func ruleBody() map[string]interface{} {
	return map[string]interface{}{
		"sensor_id":       1,
		"sensor_type_id":  1,
		"condition":       "GREATER_THAN",
		"threshold":       "25",
		"relay_device_id": "Relay01",
		"action":          "ON",
	}
}

func TestAddRuleRequiresAuth(t *testing.T) {
	router := automationRouter(&fakeEvaluator{})
	if w := postRule(t, router, "", ruleBody()); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAddRuleRejectsBadCondition(t *testing.T) {
	router := automationRouter(&fakeEvaluator{})
	body := ruleBody()
	body["condition"] = "BETWEEN"
	if w := postRule(t, router, signedToken(t), body); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAddRuleRejectsBadAction(t *testing.T) {
	router := automationRouter(&fakeEvaluator{})
	body := ruleBody()
	body["action"] = "toggle"
	if w := postRule(t, router, signedToken(t), body); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAddRuleRejectsUnknownRelayDevice(t *testing.T) {
	router := automationRouter(&fakeEvaluator{})
	body := ruleBody()
	body["relay_device_id"] = "NoSuchDevice"
	if w := postRule(t, router, signedToken(t), body); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAddRuleRejectsNonRelayTarget(t *testing.T) {
	router := automationRouter(&fakeEvaluator{})
	body := ruleBody()
	body["relay_device_id"] = "Sensor01"
	if w := postRule(t, router, signedToken(t), body); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEvaluateReturnsEngineResult(t *testing.T) {
	router := automationRouter(&fakeEvaluator{result: engine.Result{Evaluated: 3, Matches: 2, Dispatches: 1}})
	req := httptest.NewRequest(http.MethodPost, "/automations/evaluate", nil)
	req.Header.Set("Authorization", signedToken(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var result engine.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Evaluated != 3 || result.Matches != 2 || result.Dispatches != 1 {
		t.Errorf("result = %+v", result)
	}
}
