package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/learning-intel-api/internal/dto"
	"github.com/noah-isme/learning-intel-api/internal/models"
	"github.com/noah-isme/learning-intel-api/internal/service"
	"github.com/noah-isme/learning-intel-api/pkg/classifier"
)

const sampleCSV = "student_id,course_id,time_spent_min,score_percent,chapter_order\n" +
	"S1,C1,60,100,1\n" +
	"S2,C1,5,10,1\n" +
	"S3,C1,abc,50,2\n"

func newPredictionRouter(t *testing.T, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	model, err := classifier.NewDefault()
	require.NoError(t, err)
	svc := service.NewPredictionService(service.NewDataProcessor(), service.NewPredictor(model), nil, nil, nil, zap.NewNop())
	h := NewPredictionHandler(svc, maxUpload)

	router := gin.New()
	router.POST("/api/v1/predict", h.Predict)
	router.POST("/api/v1/predict-single", h.PredictSingle)
	return router
}

func uploadRequest(t *testing.T, target, field, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPredictionHandlerPredictBatch(t *testing.T) {
	router := newPredictionRouter(t, 0)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/predict", "file", "learners.csv", []byte(sampleCSV)))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])

	preds := body["predictions"].([]interface{})
	require.Len(t, preds, 3)
	assert.Equal(t, "LOW", preds[0].(map[string]interface{})["risk_level"])
	assert.Equal(t, "HIGH", preds[1].(map[string]interface{})["risk_level"])
	assert.Contains(t, preds[2].(map[string]interface{}), "error")

	insights := body["insights"].(map[string]interface{})
	assert.Equal(t, float64(3), insights["total_students"])
	assert.Equal(t, []interface{}{"S2"}, insights["high_risk_students"])
}

func TestPredictionHandlerPredictCSVReport(t *testing.T) {
	router := newPredictionRouter(t, 0)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/predict?format=csv", "file", "learners.csv", []byte(sampleCSV)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"predictions-")
	assert.True(t, strings.HasPrefix(w.Body.String(), "student_id,completion_probability"))
}

func TestPredictionHandlerPredictErrors(t *testing.T) {
	router := newPredictionRouter(t, 64)

	cases := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{
			name:   "missing column",
			req:    uploadRequest(t, "/api/v1/predict", "file", "a.csv", []byte("student_id,course_id,time_spent_min\nS1,C1,5\n")),
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "empty batch",
			req:    uploadRequest(t, "/api/v1/predict", "file", "a.csv", []byte("student_id,course_id,time_spent_min,score_percent\n")),
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "no file",
			req:    uploadRequest(t, "/api/v1/predict", "other", "a.csv", []byte("x")),
			status: http.StatusBadRequest,
			code:   "INVALID_UPLOAD",
		},
		{
			name:   "binary upload",
			req:    uploadRequest(t, "/api/v1/predict", "file", "a.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")),
			status: http.StatusUnsupportedMediaType,
			code:   "UNSUPPORTED_MEDIA_TYPE",
		},
		{
			name:   "too large",
			req:    uploadRequest(t, "/api/v1/predict", "file", "a.csv", []byte(strings.Repeat("a,b\n", 40))),
			status: http.StatusRequestEntityTooLarge,
			code:   "PAYLOAD_TOO_LARGE",
		},
		{
			name:   "bad format",
			req:    uploadRequest(t, "/api/v1/predict?format=xml", "file", "a.csv", []byte("a\n")),
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.req)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			body := decodeBody(t, w)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tc.code, body["error"].(map[string]interface{})["code"])
		})
	}
}

func TestPredictionHandlerMissingColumnMessage(t *testing.T) {
	router := newPredictionRouter(t, 0)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/predict", "file", "a.csv", []byte("student_id,course_id,time_spent_min\nS1,C1,5\n")))

	body := decodeBody(t, w)
	assert.Contains(t, body["error"].(map[string]interface{})["message"], "score_percent")
}

func TestPredictionHandlerPredictSingle(t *testing.T) {
	router := newPredictionRouter(t, 0)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict-single", strings.NewReader(`{"student_id":"S1","course_id":"C1","time_spent_min":60,"score_percent":100}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	prediction := body["prediction"].(map[string]interface{})
	assert.Equal(t, "S1", prediction["student_id"])
	assert.Equal(t, "LOW", prediction["risk_level"])
	assert.Equal(t, float64(1), prediction["predicted_completion"])
}

func TestPredictionHandlerPredictSingleInvalid(t *testing.T) {
	router := newPredictionRouter(t, 0)

	for _, payload := range []string{
		`{"student_id":"S1","course_id":"C1","time_spent_min":60}`,
		`{"student_id":"S1","course_id":"C1","time_spent_min":"sixty","score_percent":10}`,
		`not json`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict-single", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
	}
}

type renderFailService struct{}

func (renderFailService) PredictBatch(context.Context, string, models.Batch) (*dto.BatchPredictionResponse, error) {
	return &dto.BatchPredictionResponse{Status: "success"}, nil
}

func (renderFailService) PredictSingle(context.Context, dto.SinglePredictionRequest) (*dto.SinglePredictionResponse, error) {
	return &dto.SinglePredictionResponse{Status: "success"}, nil
}

func (renderFailService) Render(*dto.BatchPredictionResponse, models.ReportFormat) ([]byte, string, error) {
	return nil, "", assert.AnError
}

func TestPredictionHandlerRenderFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewPredictionHandler(renderFailService{}, 0)
	router := gin.New()
	router.POST("/predict", h.Predict)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/predict?format=pdf", "file", "a.csv", []byte(sampleCSV)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
