package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deathnote/deathnote/internal/api/handler"
	"github.com/deathnote/deathnote/internal/victim"
)

var baseTime = time.Date(2024, 2, 21, 15, 30, 0, 0, time.UTC)

// mockRepo implements victim.Repository with overridable functions.
type mockRepo struct {
	createFn           func(ctx context.Context, v *victim.Victim) error
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*victim.Victim, error)
	getByNameFn        func(ctx context.Context, name string) (*victim.Victim, error)
	listFn             func(ctx context.Context, filter victim.ListFilter) (*victim.ListResult, error)
	compareAndUpdateFn func(ctx context.Context, id uuid.UUID, expectedVersion int, p victim.Patch) (*victim.Victim, error)
	deleteFn           func(ctx context.Context, id uuid.UUID) error
	deleteAllFn        func(ctx context.Context) (int64, error)
}

func (m *mockRepo) Create(ctx context.Context, v *victim.Victim) error {
	if m.createFn != nil {
		return m.createFn(ctx, v)
	}
	v.ID = uuid.New()
	v.Version = 1
	v.CreatedAt = baseTime
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*victim.Victim, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, victim.ErrNotFound
}

func (m *mockRepo) GetByName(ctx context.Context, name string) (*victim.Victim, error) {
	if m.getByNameFn != nil {
		return m.getByNameFn(ctx, name)
	}
	return nil, victim.ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, filter victim.ListFilter) (*victim.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &victim.ListResult{Victims: []victim.Victim{}, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (m *mockRepo) ListAlive(_ context.Context, _, _ int) ([]victim.Victim, error) {
	return []victim.Victim{}, nil
}

func (m *mockRepo) CompareAndUpdate(ctx context.Context, id uuid.UUID, expectedVersion int, p victim.Patch) (*victim.Victim, error) {
	if m.compareAndUpdateFn != nil {
		return m.compareAndUpdateFn(ctx, id, expectedVersion, p)
	}
	return nil, victim.ErrNotFound
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRepo) DeleteAll(ctx context.Context) (int64, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx)
	}
	return 0, nil
}

func newRouter(repo victim.Repository) *chi.Mux {
	h := handler.NewVictimHandler(victim.NewService(repo))
	r := chi.NewRouter()
	r.Post("/victims", h.Create)
	r.Get("/victims", h.List)
	r.Delete("/victims", h.DeleteAll)
	r.Get("/victims/{term}", h.Find)
	r.Patch("/victims/deathtype/{id}", h.UpdateDeathType)
	r.Patch("/victims/deathdetails/{id}", h.UpdateDetails)
	r.Delete("/victims/{id}", h.Delete)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestCreateVictim(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodPost, "/victims",
		`{"name":"John","lastName":"Doe"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "JOHN", data["name"])
	assert.Equal(t, "DOE", data["lastName"])
	assert.Equal(t, "Heart Attack", data["deathType"])
	assert.Equal(t, true, data["isAlive"])
	assert.Equal(t, []any{}, data["images"])
	assert.Nil(t, data["editedAt"])
}

func TestCreateVictim_WithCauseAndImages(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodPost, "/victims",
		`{"name":"Jane","lastName":"Smith","deathType":"Poison","images":["u1"]}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "Poison", data["deathType"])
	assert.Equal(t, []any{"u1"}, data["images"])
}

func TestCreateVictim_InvalidJSON(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodPost, "/victims", `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "INVALID_JSON", env["error"].(map[string]any)["code"])
}

func TestCreateVictim_ValidationErrors(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodPost, "/victims", `{"name":"J","lastName":""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errObj := decodeEnvelope(t, w)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	details := errObj["details"].([]any)
	require.Len(t, details, 2)
}

func TestFindVictim_ByID(t *testing.T) {
	id := uuid.New()
	repo := &mockRepo{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*victim.Victim, error) {
			return &victim.Victim{
				ID: id, Name: "JOHN", LastName: "DOE",
				DeathType: "Heart Attack", IsAlive: true,
				CreatedAt: baseTime, Images: []string{"u1"},
			}, nil
		},
	}
	router := newRouter(repo)

	w := doJSON(t, router, http.MethodGet, "/victims/"+id.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, id.String(), data["id"])
	assert.Equal(t, "2024-02-21T15:30:00Z", data["createdAt"])
}

func TestFindVictim_NotFound(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodGet, "/victims/nobody", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "NOT_FOUND", env["error"].(map[string]any)["code"])
	assert.Nil(t, env["data"])
}

func TestListVictims_PaginationMeta(t *testing.T) {
	repo := &mockRepo{
		listFn: func(_ context.Context, filter victim.ListFilter) (*victim.ListResult, error) {
			return &victim.ListResult{
				Victims: []victim.Victim{
					{ID: uuid.New(), Name: "JOHN", LastName: "DOE", DeathType: "Heart Attack", IsAlive: true, CreatedAt: baseTime, Images: []string{"u1", "u2"}},
				},
				Total:  42,
				Limit:  filter.Limit,
				Offset: filter.Offset,
			}, nil
		},
	}
	router := newRouter(repo)

	w := doJSON(t, router, http.MethodGet, "/victims?limit=5&offset=10", "")

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, float64(42), meta["total"])
	assert.Equal(t, float64(5), meta["limit"])
	assert.Equal(t, float64(10), meta["offset"])

	items := env["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, []any{"u1", "u2"}, items[0].(map[string]any)["images"])
}

func TestListVictims_RejectsBadLimit(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodGet, "/victims?limit=zero", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateDeathType(t *testing.T) {
	id := uuid.New()
	repo := &mockRepo{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*victim.Victim, error) {
			return &victim.Victim{ID: id, Version: 1, IsAlive: true, CreatedAt: baseTime}, nil
		},
		compareAndUpdateFn: func(_ context.Context, _ uuid.UUID, _ int, p victim.Patch) (*victim.Victim, error) {
			edited := baseTime.Add(time.Minute)
			return &victim.Victim{
				ID: id, Name: "JANE", LastName: "SMITH",
				DeathType: *p.DeathType, IsAlive: true, Version: 2,
				CreatedAt: baseTime, EditedAt: &edited,
			}, nil
		},
	}
	router := newRouter(repo)

	w := doJSON(t, router, http.MethodPatch, "/victims/deathtype/"+id.String(),
		`{"deathType":"Poison"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "Poison", data["deathType"])
	assert.Equal(t, "2024-02-21T15:31:00Z", data["editedAt"])
}

func TestUpdateDeathType_InvalidID(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodPatch, "/victims/deathtype/not-a-uuid",
		`{"deathType":"Poison"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decodeEnvelope(t, w)["error"].(map[string]any)["code"])
}

func TestUpdateDeathType_NotFound(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodPatch, "/victims/deathtype/"+uuid.NewString(),
		`{"deathType":"Poison"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateDeathType_Conflict(t *testing.T) {
	id := uuid.New()
	repo := &mockRepo{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*victim.Victim, error) {
			return &victim.Victim{ID: id, Version: 1, IsAlive: true}, nil
		},
		compareAndUpdateFn: func(_ context.Context, _ uuid.UUID, _ int, _ victim.Patch) (*victim.Victim, error) {
			return nil, victim.ErrConflict
		},
	}
	router := newRouter(repo)

	w := doJSON(t, router, http.MethodPatch, "/victims/deathtype/"+id.String(),
		`{"deathType":"Poison"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeEnvelope(t, w)["error"].(map[string]any)["code"])
}

func TestUpdateDetails(t *testing.T) {
	id := uuid.New()
	var gotPatch victim.Patch
	repo := &mockRepo{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*victim.Victim, error) {
			return &victim.Victim{ID: id, Version: 1, IsAlive: true, CreatedAt: baseTime}, nil
		},
		compareAndUpdateFn: func(_ context.Context, _ uuid.UUID, _ int, p victim.Patch) (*victim.Victim, error) {
			gotPatch = p
			return &victim.Victim{ID: id, Details: p.Details, IsAlive: true, Version: 2, CreatedAt: baseTime}, nil
		},
	}
	router := newRouter(repo)

	w := doJSON(t, router, http.MethodPatch, "/victims/deathdetails/"+id.String(),
		`{"details":"slow-acting toxin"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotPatch.Details)
	assert.Equal(t, "slow-acting toxin", *gotPatch.Details)
}

func TestUpdateDetails_RejectsForeignKeys(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodPatch, "/victims/deathdetails/"+uuid.NewString(),
		`{"details":"x","deathType":"Poison"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errObj := decodeEnvelope(t, w)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestUpdateDetails_RejectsNonStringDetails(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodPatch, "/victims/deathdetails/"+uuid.NewString(),
		`{"details":42}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateDetails_RejectsEmptyBody(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodPatch, "/victims/deathdetails/"+uuid.NewString(), `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteVictim(t *testing.T) {
	router := newRouter(&mockRepo{})

	w := doJSON(t, router, http.MethodDelete, "/victims/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDeleteVictim_NotFound(t *testing.T) {
	repo := &mockRepo{
		deleteFn: func(_ context.Context, _ uuid.UUID) error {
			return victim.ErrNotFound
		},
	}
	router := newRouter(repo)

	w := doJSON(t, router, http.MethodDelete, "/victims/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAllVictims_ReturnsCount(t *testing.T) {
	repo := &mockRepo{
		deleteAllFn: func(_ context.Context) (int64, error) {
			return 3, nil
		},
	}
	router := newRouter(repo)

	w := doJSON(t, router, http.MethodDelete, "/victims", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(3), data["deleted"])
}
