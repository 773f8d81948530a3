package course

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komekarch/site/backend/internal/model/course"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(course.NewMemoryStore(course.Seed())).RegisterRoutes(r)
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(method, path, nil))
	return resp
}

func TestListCourses(t *testing.T) {
	resp := serve(setupRouter(), http.MethodGet, "/courses")
	require.Equal(t, http.StatusOK, resp.Code)

	var modules []course.Module
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&modules))
	require.Len(t, modules, 4)
	assert.Equal(t, "cpu-arch", modules[0].ID)
	assert.Equal(t, course.LevelAdvanced, modules[3].Level)
}

func TestGetCourse(t *testing.T) {
	r := setupRouter()

	resp := serve(r, http.MethodGet, "/courses/cache")
	require.Equal(t, http.StatusOK, resp.Code)
	var module course.Module
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&module))
	assert.Equal(t, "Кэш‑память", module.Title)
	assert.Len(t, module.Topics, 4)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/courses/gpu").Code)
}

func TestOpenCourseIsComingSoon(t *testing.T) {
	r := setupRouter()

	resp := serve(r, http.MethodPost, "/courses/memory/open")
	assert.Equal(t, http.StatusNotImplemented, resp.Code)
	assert.Contains(t, resp.Body.String(), "скоро")

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/courses/gpu/open").Code)
}
