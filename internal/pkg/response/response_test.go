package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func record(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return w
}

func TestOKWrapsSlices(t *testing.T) {
	w := record(func(c *gin.Context) {
		OK(c, []string{"a", "b"})
	})

	var body map[string][]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body["data"]) != 2 {
		t.Errorf("body = %v, slices must be wrapped in data", body)
	}
}

func TestOKPassesObjects(t *testing.T) {
	w := record(func(c *gin.Context) {
		OK(c, gin.H{"ok": true})
	})

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if _, wrapped := body["data"]; wrapped {
		t.Errorf("body = %v, objects must not be wrapped", body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	w := record(func(c *gin.Context) {
		BadRequest(c, "bad input")
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		OK      int    `json:"ok"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.OK != 0 || body.Code != http.StatusBadRequest || body.Message != "bad input" {
		t.Errorf("body = %+v", body)
	}
}
