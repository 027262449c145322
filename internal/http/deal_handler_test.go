package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/domain"
	"github.com/pulsecrm/pulsecrm/internal/repository"
	"github.com/pulsecrm/pulsecrm/internal/service"
)

// fakeDealService 只实现 MoveDeal 的错误注入，其余空操作
type fakeDealService struct {
	moveErr   error
	moveCalls int
	lastTo    string
	lastActor string
}

func (f *fakeDealService) ListDeals(ctx context.Context, tenantID, stageID string) ([]service.DealItem, error) {
	return []service.DealItem{}, nil
}

func (f *fakeDealService) CreateDeal(ctx context.Context, tenantID string, req service.CreateDealRequest) (*service.DealItem, error) {
	return &service.DealItem{ID: uuid.New().String(), Title: req.Title}, nil
}

func (f *fakeDealService) UpdateDeal(ctx context.Context, tenantID, dealID string, req service.UpdateDealRequest) error {
	return nil
}

func (f *fakeDealService) MoveDeal(ctx context.Context, tenantID, dealID, toStageID, actorID string) error {
	f.moveCalls++
	f.lastTo = toStageID
	f.lastActor = actorID
	return f.moveErr
}

func (f *fakeDealService) DeleteDeal(ctx context.Context, tenantID, dealID string) error {
	return nil
}

func (f *fakeDealService) ListHistory(ctx context.Context, tenantID, dealID string) ([]service.HistoryItem, error) {
	return []service.HistoryItem{}, nil
}

func (f *fakeDealService) DealStats(ctx context.Context, tenantID string) ([]repository.DealStatusTotal, error) {
	return []repository.DealStatusTotal{}, nil
}

func newDealRouter(svc service.DealService) *Router {
	r := NewRouter(zap.NewNop())
	r.RegisterDealRoutes(NewDealHandler(svc, zap.NewNop()))
	return r
}

func moveRequest(dealID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/deals/"+dealID+"/move", strings.NewReader(body))
	ctx := context.WithValue(req.Context(), ctxKeyTenantID, uuid.New().String())
	return req.WithContext(ctx)
}

func TestMoveEndpoint_Success(t *testing.T) {
	svc := &fakeDealService{}
	router := newDealRouter(svc)
	toStage := uuid.New().String()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, moveRequest(uuid.New().String(), fmt.Sprintf(`{"toStageId":%q}`, toStage)))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 1, svc.moveCalls)
	assert.Equal(t, toStage, svc.lastTo)
}

func TestMoveEndpoint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"deal absent", fmt.Errorf("deal: %w", domain.ErrNotFound), http.StatusNotFound},
		{"invalid target stage", fmt.Errorf("stage: %w", domain.ErrInvalidTarget), http.StatusBadRequest},
		{"concurrent move", fmt.Errorf("deal: %w", domain.ErrConflict), http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeDealService{moveErr: tc.err}
			router := newDealRouter(svc)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, moveRequest(uuid.New().String(), fmt.Sprintf(`{"toStageId":%q}`, uuid.New().String())))

			assert.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestMoveEndpoint_BadDealIDIs404(t *testing.T) {
	svc := &fakeDealService{}
	router := newDealRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, moveRequest("not-a-uuid", fmt.Sprintf(`{"toStageId":%q}`, uuid.New().String())))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, svc.moveCalls)
}

func TestMoveEndpoint_BadTargetIs400(t *testing.T) {
	svc := &fakeDealService{}
	router := newDealRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, moveRequest(uuid.New().String(), `{"toStageId":"nope"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.moveCalls)
}

func TestMoveEndpoint_WrongMethodIs405(t *testing.T) {
	router := newDealRouter(&fakeDealService{})

	req := httptest.NewRequest(http.MethodGet, "/deals/"+uuid.New().String()+"/move", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMoveEndpoint_ActorPassedFromClaims(t *testing.T) {
	svc := &fakeDealService{}
	router := newDealRouter(svc)
	actorID := uuid.New().String()

	req := moveRequest(uuid.New().String(), fmt.Sprintf(`{"toStageId":%q}`, uuid.New().String()))
	ctx := context.WithValue(req.Context(), ctxKeyClaims, &service.Claims{UserID: actorID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, actorID, svc.lastActor)
}
