package record_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gltp/captrack/internal/record"
	"github.com/stretchr/testify/require"
)

func testRouter() (*gin.Engine, *fakeRepository) {
	gin.SetMode(gin.TestMode)

	fake := newFakeRepository()
	records := record.NewRecords(fake, fakeFetcher{events: captureEvents()}, testObjectives())

	auth := func(ctx *gin.Context) {
		if ctx.GetHeader("X-Auth-Key") != "test-key" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		}
	}

	engine := gin.New()
	record.NewHandler(engine, records, auth)

	return engine, fake
}

func doJSON(t *testing.T, engine *gin.Engine, method string, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, errMarshal := json.Marshal(body)
	require.NoError(t, errMarshal)

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	return recorder
}

func TestParseEndpointRequiresAuth(t *testing.T) {
	engine, _ := testRouter()

	resp := doJSON(t, engine, http.MethodPost, "/api/parse", gin.H{"input": testUUID}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestParseEndpoint(t *testing.T) {
	engine, repo := testRouter()

	resp := doJSON(t, engine, http.MethodPost, "/api/parse",
		gin.H{"input": testUUID, "origin": "web"},
		map[string]string{"X-Auth-Key": "test-key"})
	require.Equal(t, http.StatusOK, resp.Code)

	var result record.Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.True(t, result.Ok)
	require.Equal(t, 201, result.Upload.Status)
	require.Len(t, repo.completed, 1)
}

func TestParseEndpointMissingInput(t *testing.T) {
	engine, _ := testRouter()

	resp := doJSON(t, engine, http.MethodPost, "/api/parse", gin.H{"origin": "web"},
		map[string]string{"X-Auth-Key": "test-key"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCheckEndpointBatchLimit(t *testing.T) {
	engine, _ := testRouter()

	uuids := make([]string, record.MaxBatchSize+1)
	for index := range uuids {
		uuids[index] = testUUID
	}

	resp := doJSON(t, engine, http.MethodPost, "/api/records/check", uuids, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestCheckEndpoint(t *testing.T) {
	engine, repo := testRouter()
	repo.known = []record.Known{{UUID: testUUID, Source: "records"}}

	resp := doJSON(t, engine, http.MethodPost, "/api/records/check", []string{testUUID}, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var result record.CheckResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, 1, result.FoundCount)
	require.Empty(t, result.Missing)
}
