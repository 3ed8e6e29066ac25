// README: Route-level tests: auth, role gating, error mapping and change streams.
package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gazhttp "gazflow/internal/http"
	"gazflow/internal/infra"
	"gazflow/internal/modules/dispatch"
	"gazflow/internal/modules/insights"
	"gazflow/internal/modules/order"
	"gazflow/internal/modules/pricing"
	"gazflow/internal/modules/profile"
	"gazflow/internal/modules/relay"
	"gazflow/internal/modules/tracking"
	"gazflow/internal/modules/wallet"
	"gazflow/internal/types"
)

// Tokens are the uid itself; roles come from stubProfiles.
type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, tok string) (*infra.Identity, error) {
	if tok == "bad" {
		return nil, errors.New("bad token")
	}
	return &infra.Identity{UID: tok}, nil
}

type stubProfiles struct {
	mu       sync.Mutex
	roles    map[types.ID]types.Role
	presence []profile.Presence
	reports  []types.Point
}

func (s *stubProfiles) Resolve(_ context.Context, id types.ID, _ string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		role = types.RoleClient
	}
	return &profile.Profile{ID: id, Role: role}, nil
}

func (s *stubProfiles) Get(ctx context.Context, _ types.Actor, id types.ID) (*profile.Profile, error) {
	return s.Resolve(ctx, id, "")
}

func (s *stubProfiles) List(context.Context, types.Actor, types.Role) ([]*profile.Profile, error) {
	return []*profile.Profile{{ID: "d1", Role: types.RoleDriver}}, nil
}

func (s *stubProfiles) SetOnline(_ context.Context, actor types.Actor, online bool, loc *types.Point) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence = append(s.presence, profile.Presence{DriverID: actor.ID, Online: online, Location: loc})
	return &profile.Profile{ID: actor.ID, Role: actor.Role, IsOnline: online, LastLocation: loc}, nil
}

func (s *stubProfiles) ReportLocation(_ context.Context, actor types.Actor, pos types.Point) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, pos)
	return &profile.Profile{ID: actor.ID, Role: actor.Role, IsOnline: true, LastLocation: &pos}, nil
}

func (s *stubProfiles) SetRole(_ context.Context, _ types.Actor, id types.ID, role types.Role) (*profile.Profile, error) {
	if !role.Valid() {
		return nil, profile.ErrBadRequest
	}
	return &profile.Profile{ID: id, Role: role}, nil
}

func (s *stubProfiles) SetKYC(_ context.Context, _ types.Actor, id types.ID, status profile.KYCStatus) (*profile.Profile, error) {
	return &profile.Profile{ID: id, Role: types.RoleDriver, KYCStatus: status}, nil
}

type stubOrders struct {
	created   *order.CreateCommand
	createErr error
	active    *order.Order
	lastTo    order.Status
}

func sample(id types.ID, status order.Status) *order.Order {
	return &order.Order{
		ID:          id,
		ClientID:    "c1",
		Status:      status,
		Items:       []order.Item{{ProductID: 1, Qty: 1}},
		TotalAmount: types.Money{Amount: 7000, Currency: "XOF"},
		DeliveryFee: types.Money{Amount: 1000, Currency: "XOF"},
	}
}

func (s *stubOrders) Create(_ context.Context, cmd order.CreateCommand) (*order.Order, error) {
	s.created = &cmd
	if s.createErr != nil {
		return nil, s.createErr
	}
	return sample("o1", order.StatusPending), nil
}

func (s *stubOrders) View(_ context.Context, actor types.Actor, id types.ID) (*order.Order, error) {
	if id == "missing" {
		return nil, order.ErrNotFound
	}
	if actor.ID != "c1" && !actor.Is(types.RoleAdmin) {
		return nil, order.ErrForbidden
	}
	return sample(id, order.StatusPending), nil
}

func (s *stubOrders) ActiveForClient(context.Context, types.Actor) (*order.Order, error) {
	if s.active == nil {
		return nil, order.ErrNotFound
	}
	return s.active, nil
}

func (s *stubOrders) HistoryForClient(context.Context, types.Actor) ([]*order.Order, error) {
	return []*order.Order{sample("o1", order.StatusDelivered)}, nil
}

func (s *stubOrders) Start(_ context.Context, cmd order.ActionCommand) (*order.Order, error) {
	return s.to(cmd.OrderID, order.StatusInProgress)
}

func (s *stubOrders) Arrive(_ context.Context, cmd order.ActionCommand) (*order.Order, error) {
	return s.to(cmd.OrderID, order.StatusArrived)
}

func (s *stubOrders) Deliver(_ context.Context, cmd order.ActionCommand) (*order.Order, error) {
	return s.to(cmd.OrderID, order.StatusDelivered)
}

func (s *stubOrders) Cancel(_ context.Context, cmd order.CancelCommand) (*order.Order, error) {
	return s.to(cmd.OrderID, order.StatusCancelled)
}

func (s *stubOrders) Transition(_ context.Context, cmd order.TransitionCommand) (*order.Order, error) {
	return s.to(cmd.OrderID, cmd.To)
}

func (s *stubOrders) to(id types.ID, st order.Status) (*order.Order, error) {
	if id == "done" {
		return nil, order.ErrInvalidState
	}
	s.lastTo = st
	return sample(id, st), nil
}

func (s *stubOrders) ListActive(context.Context, types.Actor) ([]*order.Order, error) {
	return []*order.Order{sample("o1", order.StatusPending)}, nil
}

func (s *stubOrders) ListAll(context.Context, types.Actor, int) ([]*order.Order, error) {
	return []*order.Order{sample("o1", order.StatusPending), sample("o2", order.StatusDelivered)}, nil
}

type stubDispatch struct {
	accepted  []types.ID
	acceptErr error
}

func (s *stubDispatch) EligibleDrivers(context.Context, types.Actor, types.ID) ([]dispatch.Candidate, error) {
	km := 1.5
	return []dispatch.Candidate{{Driver: &profile.Profile{ID: "d1", Role: types.RoleDriver, IsOnline: true}, DistanceKm: &km}}, nil
}

func (s *stubDispatch) NearbyDrivers(context.Context, types.Actor, types.ID, float64) ([]dispatch.Candidate, error) {
	return nil, nil
}

func (s *stubDispatch) PendingOrders(context.Context, types.Actor) ([]*order.Order, error) {
	return []*order.Order{sample("o1", order.StatusPending)}, nil
}

func (s *stubDispatch) Accept(_ context.Context, actor types.Actor, id types.ID) (*order.Order, error) {
	if s.acceptErr != nil {
		return nil, s.acceptErr
	}
	s.accepted = append(s.accepted, actor.ID)
	o := sample(id, order.StatusAssigned)
	o.DriverID = &actor.ID
	return o, nil
}

func (s *stubDispatch) AdminAssign(_ context.Context, _ types.Actor, id, driverID types.ID) (*order.Order, error) {
	o := sample(id, order.StatusAssigned)
	o.DriverID = &driverID
	return o, nil
}

type stubTracking struct{}

func (stubTracking) Snapshot(_ context.Context, actor types.Actor, id types.ID) (*tracking.Snapshot, error) {
	if actor.ID != "c1" {
		return nil, tracking.ErrForbidden
	}
	return &tracking.Snapshot{OrderID: id, Status: order.StatusAssigned, DriverPoint: &types.Point{Lat: 5.3, Lng: -4.0}, EtaHintMinutes: 25, ProgressPercent: 50}, nil
}

func (stubTracking) Board(context.Context, types.Actor) (*tracking.Board, error) {
	return &tracking.Board{}, nil
}

type stubWallet struct{}

func (stubWallet) Summary(_ context.Context, _ types.Actor, driverID types.ID) (*wallet.Summary, error) {
	return &wallet.Summary{DriverID: driverID, Balance: 1500, Credits: []wallet.Credit{{OrderID: "o1", Amount: 500}}}, nil
}

type stubCatalog struct{}

func (stubCatalog) Catalog(context.Context) ([]pricing.Product, error) {
	return []pricing.Product{{ID: 1, Size: "12kg", Price: types.Money{Amount: 6000, Currency: "XOF"}}}, nil
}

type stubInsights struct{}

func (stubInsights) Dashboard(_ context.Context, actor types.Actor) (*insights.Dashboard, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, insights.ErrForbidden
	}
	return &insights.Dashboard{Stats: insights.Stats{Revenue: 21000, Currency: "XOF", Orders: 3}, Insight: "ok"}, nil
}

type fixture struct {
	handler  http.Handler
	orders   *stubOrders
	dispatch *stubDispatch
	profiles *stubProfiles
	hub      *relay.MemoryHub
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		orders:   &stubOrders{},
		dispatch: &stubDispatch{},
		profiles: &stubProfiles{roles: map[types.ID]types.Role{"d1": types.RoleDriver, "a1": types.RoleAdmin}},
		hub:      relay.NewMemoryHub(),
	}
	f.handler = gazhttp.NewServer(gazhttp.ServerDeps{
		Verifier:       stubVerifier{},
		Profiles:       f.profiles,
		Orders:         f.orders,
		Dispatch:       f.dispatch,
		Tracking:       stubTracking{},
		Wallet:         stubWallet{},
		Catalog:        stubCatalog{},
		Insights:       stubInsights{},
		Hub:            f.hub,
		RequestTimeout: time.Second,
	}).Routes()
	return f
}

func (f *fixture) do(method, path, uid string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+uid)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "", nil).Code)
}

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	body := map[string]any{
		"items":             []map[string]any{{"product_id": 1, "qty": 1}},
		"delivery_address":  "Rue 12, Cocody",
		"delivery_location": map[string]any{"lat": 5.36, "lng": -3.98},
		"client_id":         "someone-else",
	}

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/orders", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/orders", "bad", body).Code)

	w := f.do(http.MethodPost, "/api/orders", "c1", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(7000), got["total_amount"])
	assert.Equal(t, "PENDING", got["status"])
	assert.Nil(t, got["livreur_id"])

	require.NotNil(t, f.orders.created)
	assert.Equal(t, types.Actor{ID: "c1", Role: types.RoleClient}, f.orders.created.Actor, "actor comes from the token")
	require.NotNil(t, f.orders.created.DeliveryLocation)
	assert.Equal(t, 5.36, f.orders.created.DeliveryLocation.Lat)
}

func TestCreateOrderErrors(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer c1")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.orders.createErr = order.ErrActiveOrder
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/orders", "c1", map[string]any{}).Code)

	f.orders.createErr = pricing.ErrUnknownProduct
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/orders", "c1", map[string]any{}).Code)

	f.orders.createErr = order.ErrForbidden
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/orders", "d1", map[string]any{}).Code)
}

func TestActiveOrder(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/orders/active", "c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"order":null}`, w.Body.String())

	f.orders.active = sample("o9", order.StatusArrived)
	w = f.do(http.MethodGet, "/api/orders/active", "c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"o9"`)
}

func TestOrderLookupMapping(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/orders/o1", "c1", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/orders/o1", "c2", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/orders/missing", "c1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/orders/bad!id", "c1", nil).Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/orders/done/confirm", "c1", nil).Code)
}

func TestTrackingSnapshot(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/orders/o1/tracking", "c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(25), got["eta_hint_minutes"])
	assert.Equal(t, map[string]any{"lat": 5.3, "lng": -4.0}, got["driver_point"])
	assert.Nil(t, got["client_point"])

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/orders/o1/tracking", "c2", nil).Code)
}

func TestDriverRoutesRequireDriver(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/driver/orders", "c1", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/driver/orders/o1/accept", "a1", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/driver/orders", "d1", nil).Code)

	w := f.do(http.MethodPost, "/api/driver/orders/o1/accept", "d1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"livreur_id":"d1"`)

	f.dispatch.acceptErr = dispatch.ErrDriverUnavailable
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/driver/orders/o1/accept", "d1", nil).Code)

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/driver/orders/o1/arrive", "d1", nil).Code)
	assert.Equal(t, order.StatusArrived, f.orders.lastTo)
}

func TestPresence(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/driver/presence", "d1", map[string]any{"online": true, "lat": 5.3}).Code)

	w := f.do(http.MethodPut, "/api/driver/presence", "d1", map[string]any{"online": true, "lat": 5.3, "lng": -4.0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_online":true`)

	w = f.do(http.MethodPut, "/api/driver/presence", "d1", map[string]any{"online": false, "lat": 10.0, "lng": 10.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/driver/presence", "d1", map[string]any{"online": false})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodPut, "/api/driver/presence", "d1", map[string]any{"online": true})
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, []types.Point{{Lat: 5.3, Lng: -4.0}}, f.profiles.reports)
	require.Len(t, f.profiles.presence, 2)
	assert.False(t, f.profiles.presence[0].Online)
	assert.Nil(t, f.profiles.presence[0].Location)
	assert.True(t, f.profiles.presence[1].Online)
	assert.Nil(t, f.profiles.presence[1].Location)
}

func TestGenericTransitionRoutesAssignThroughDispatch(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/orders/o1/transition", "d1", map[string]any{"to": "ASSIGNED"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []types.ID{"d1"}, f.dispatch.accepted)

	w = f.do(http.MethodPost, "/api/orders/o1/transition", "d1", map[string]any{"to": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusInProgress, f.orders.lastTo)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/orders/o1/transition", "d1", map[string]any{}).Code)
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/admin/dashboard", "c1", nil).Code)

	w := f.do(http.MethodGet, "/api/admin/dashboard", "a1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"revenue":21000`)

	w = f.do(http.MethodGet, "/api/admin/drivers?order_id=o1", "a1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"distance_km":1.5`)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/admin/orders/o1/assign", "a1", map[string]any{}).Code)
	w = f.do(http.MethodPost, "/api/admin/orders/o1/assign", "a1", map[string]any{"livreur_id": "d1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ASSIGNED"`)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/admin/users/c1/role", "a1", map[string]any{"role": "PILOT"}).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPut, "/api/admin/users/c1/kyc", "a1", map[string]any{"kyc_status": "VERIFIED"}).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/admin/orders/o1/cancel", "a1", map[string]any{"reason": "stock"}).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/admin/board", "a1", nil).Code)
}

func TestStreamAccess(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/stream/nope", "c1", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/stream/orders.client.c2", "c1", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/stream/profiles.drivers", "d1", nil).Code)
}

func TestStreamSignalsAndTearsDown(t *testing.T) {
	f := newFixture()
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream/orders.client.c1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer c1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bufio.NewScanner(resp.Body)
	nextEvent := func() string {
		for lines.Scan() {
			if ev, ok := strings.CutPrefix(lines.Text(), "event:"); ok {
				return ev
			}
		}
		return ""
	}

	assert.Equal(t, "change", nextEvent(), "first event is immediate")
	require.NoError(t, f.hub.Notify(context.Background(), relay.ClientOrders("c1")))
	assert.Equal(t, "change", nextEvent())

	cancel()
	require.Eventually(t, func() bool {
		return f.hub.Len(relay.ClientOrders("c1")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
