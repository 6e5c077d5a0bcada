package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wallet-insight/internal/errors"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/types"
)

type stubDetection struct {
	result *service.DetectionResult
	err    error
	chain  types.ChainID
	filter types.FilterType
}

func (s *stubDetection) Detect(ctx context.Context, chain types.ChainID, filter types.FilterType, skipDemo bool) (*service.DetectionResult, error) {
	s.chain = chain
	s.filter = filter
	return s.result, s.err
}

type stubSpending struct {
	profile *models.SpendingProfile
	err     error
	address string
	window  service.Window
}

func (s *stubSpending) Analyze(ctx context.Context, address string, chain types.ChainID, window service.Window) (*models.SpendingProfile, error) {
	s.address = address
	s.window = window
	return s.profile, s.err
}

type stubRegistrations struct {
	reg         *models.Registration
	registerErr error
	lookupErr   error
}

func (s *stubRegistrations) Register(ctx context.Context, username, walletAddress string, chain types.ChainID) (*models.Registration, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return s.reg, nil
}

func (s *stubRegistrations) Lookup(ctx context.Context, username string) (*models.Registration, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.reg, nil
}

type stubMarket struct {
	points []types.PricePoint
	signal service.MarketSignal
	price  float64
}

func (s *stubMarket) History(ctx context.Context, coin string, days int) []types.PricePoint {
	return s.points
}

func (s *stubMarket) TrendSignal(ctx context.Context, coin string, days int) (service.MarketSignal, float64) {
	return s.signal, s.price
}

type stubRecommender struct {
	advice *service.TradeAdvice
	err    error
}

func (s *stubRecommender) Recommend(ctx context.Context, walletAddress string, chain types.ChainID) (*service.TradeAdvice, error) {
	return s.advice, s.err
}

type stubTopSpenders struct {
	spender *models.TopSpender
	err     error
}

func (s *stubTopSpenders) Scan(ctx context.Context, chain types.ChainID, day string) (*models.TopSpender, error) {
	return s.spender, s.err
}

func (s *stubTopSpenders) ForDay(ctx context.Context, day string) (*models.TopSpender, error) {
	return s.spender, s.err
}

type stubWallets struct {
	wallets []*models.Wallet
	err     error
}

func (s *stubWallets) ListByChain(ctx context.Context, chain types.ChainID, limit int) ([]*models.Wallet, error) {
	return s.wallets, s.err
}

type stubProfiles struct {
	profile *models.SpendingProfile
	err     error
}

func (s *stubProfiles) Get(ctx context.Context, walletAddress string) (*models.SpendingProfile, error) {
	return s.profile, s.err
}

type testDeps struct {
	detection     *stubDetection
	spending      *stubSpending
	registrations *stubRegistrations
	market        *stubMarket
	recommender   *stubRecommender
	topSpenders   *stubTopSpenders
	wallets       *stubWallets
	profiles      *stubProfiles
}

func newTestServer() (*Server, *testDeps) {
	deps := &testDeps{
		detection:     &stubDetection{},
		spending:      &stubSpending{},
		registrations: &stubRegistrations{},
		market:        &stubMarket{},
		recommender:   &stubRecommender{},
		topSpenders:   &stubTopSpenders{},
		wallets:       &stubWallets{},
		profiles:      &stubProfiles{},
	}

	cfg := &ServerConfig{
		Host:              "localhost",
		Port:              "0",
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}

	logger := logging.New(logging.LevelFatal, logging.FormatText)
	server := NewServer(cfg, deps.detection, deps.spending, deps.registrations,
		deps.market, deps.recommender, deps.topSpenders, deps.wallets, deps.profiles,
		nil, logger)

	return server, deps
}

func doRequest(server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestDetectWallets_Success(t *testing.T) {
	server, deps := newTestServer()
	deps.detection.result = &service.DetectionResult{
		Chain:  types.ChainEthereum,
		Filter: types.FilterAll,
	}

	rec := doRequest(server, http.MethodPost, "/api/v1/wallets/detect",
		map[string]interface{}{"blockchain": "ethereum", "filter": "potential"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if deps.detection.chain != types.ChainEthereum {
		t.Errorf("chain = %v, want ethereum", deps.detection.chain)
	}
	if deps.detection.filter != types.FilterPotential {
		t.Errorf("filter = %v, want potential", deps.detection.filter)
	}
}

func TestDetectWallets_UnsupportedChain(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodPost, "/api/v1/wallets/detect",
		map[string]interface{}{"blockchain": "dogecoin"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	errObj, _ := body["error"].(map[string]interface{})
	if errObj["code"] != "UNSUPPORTED_CHAIN" {
		t.Errorf("error code = %v", errObj["code"])
	}
}

func TestDetectWallets_MalformedBody(t *testing.T) {
	server, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets/detect",
		bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListWallets_RequiresChain(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodGet, "/api/v1/wallets", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListWallets_ReturnsRankedList(t *testing.T) {
	server, deps := newTestServer()
	deps.wallets.wallets = []*models.Wallet{
		{Address: "0xaaa", Blockchain: types.ChainEthereum, TotalReceived: 5, TransactionCount: 3},
		{Address: "0xbbb", Blockchain: types.ChainEthereum, TotalReceived: 9, TransactionCount: 1},
	}

	rec := doRequest(server, http.MethodGet, "/api/v1/wallets?blockchain=ethereum", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
}

func TestAnalyzeSpending_NoDataIsOK(t *testing.T) {
	server, deps := newTestServer()
	deps.spending.err = service.ErrNoData

	rec := doRequest(server, http.MethodPost, "/api/v1/spending/analyze",
		map[string]interface{}{"address": "0xabc", "blockchain": "bsc"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["profile"] != nil {
		t.Errorf("profile = %v, want nil", body["profile"])
	}
	if body["message"] == "" {
		t.Error("expected explanatory message")
	}
}

func TestAnalyzeSpending_PassesWindow(t *testing.T) {
	server, deps := newTestServer()
	deps.spending.profile = &models.SpendingProfile{WalletAddress: "0xabc"}

	rec := doRequest(server, http.MethodPost, "/api/v1/spending/analyze",
		map[string]interface{}{
			"address":    "0xabc",
			"blockchain": "ethereum",
			"from":       1700000000,
			"to":         1700100000,
		})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if deps.spending.window.From != 1700000000 || deps.spending.window.To != 1700100000 {
		t.Errorf("window = %+v", deps.spending.window)
	}
}

func TestAnalyzeSpending_RequiresAddress(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodPost, "/api/v1/spending/analyze",
		map[string]interface{}{"blockchain": "ethereum"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetSpendingProfile_NotFound(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodGet, "/api/v1/spending/0xmissing", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetSpendingProfile_Found(t *testing.T) {
	server, deps := newTestServer()
	deps.profiles.profile = &models.SpendingProfile{
		WalletAddress:       "0xabc",
		FrequentSmallTrades: 12,
		IsDemo:              true,
	}

	rec := doRequest(server, http.MethodGet, "/api/v1/spending/0xabc", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["is_demo"] != true {
		t.Errorf("is_demo = %v, want true", body["is_demo"])
	}
}

func TestRegisterUser_Created(t *testing.T) {
	server, deps := newTestServer()
	deps.registrations.reg = &models.Registration{
		ID:            "id-1",
		Username:      "alice",
		WalletAddress: "0xabc",
		Blockchain:    types.ChainEthereum,
	}

	rec := doRequest(server, http.MethodPost, "/api/v1/users/register",
		map[string]interface{}{"username": "alice", "wallet_address": "0xabc", "blockchain": "ethereum"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["username"] != "alice" {
		t.Errorf("username = %v", body["username"])
	}
}

func TestRegisterUser_DuplicateIsConflict(t *testing.T) {
	server, deps := newTestServer()
	deps.registrations.registerErr = errors.NewConflictError("user alice is already registered")

	rec := doRequest(server, http.MethodPost, "/api/v1/users/register",
		map[string]interface{}{"username": "alice", "wallet_address": "0xabc", "blockchain": "ethereum"})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	server, deps := newTestServer()
	deps.registrations.lookupErr = errors.NewNotFoundError("user", "bob")

	rec := doRequest(server, http.MethodGet, "/api/v1/users/bob", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMarketHistory_DefaultsDays(t *testing.T) {
	server, deps := newTestServer()
	deps.market.points = []types.PricePoint{{Timestamp: 1, Price: 10}}

	rec := doRequest(server, http.MethodGet, "/api/v1/market/bitcoin/history", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["days"] != float64(30) {
		t.Errorf("days = %v, want 30", body["days"])
	}
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}
}

func TestMarketHistory_RejectsBadDays(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodGet, "/api/v1/market/bitcoin/history?days=-1", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMarketRisk_EmptyHistoryIsNotFound(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodGet, "/api/v1/market/bitcoin/risk", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMarketRisk_ComputesMetrics(t *testing.T) {
	server, deps := newTestServer()
	deps.market.points = []types.PricePoint{
		{Timestamp: 1, Price: 100},
		{Timestamp: 2, Price: 110},
		{Timestamp: 3, Price: 105},
	}

	rec := doRequest(server, http.MethodGet, "/api/v1/market/bitcoin/risk?days=7", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	metrics, ok := body["metrics"].(map[string]interface{})
	if !ok {
		t.Fatalf("metrics missing: %v", body)
	}
	if _, ok := metrics["sharpe_ratio"]; !ok {
		t.Error("sharpe_ratio missing from metrics")
	}
}

func TestMarketSignal_ReturnsSignal(t *testing.T) {
	server, deps := newTestServer()
	deps.market.signal = service.SignalBuy
	deps.market.price = 101.5

	rec := doRequest(server, http.MethodGet, "/api/v1/market/ethereum/signal", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["signal"] != string(service.SignalBuy) {
		t.Errorf("signal = %v", body["signal"])
	}
	if body["price"] != 101.5 {
		t.Errorf("price = %v", body["price"])
	}
}

func TestRecommendation_Success(t *testing.T) {
	server, deps := newTestServer()
	deps.recommender.advice = &service.TradeAdvice{
		WalletAddress:  "0xabc",
		Blockchain:     types.ChainEthereum,
		Recommendation: "BUY",
	}

	rec := doRequest(server, http.MethodGet, "/api/v1/recommendation?wallet=0xabc&blockchain=ethereum", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["recommendation"] != "BUY" {
		t.Errorf("recommendation = %v", body["recommendation"])
	}
}

func TestRecommendation_RequiresWallet(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodGet, "/api/v1/recommendation?blockchain=ethereum", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTopSpenderScan_NoActivity(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodPost, "/api/v1/topspender/scan",
		map[string]interface{}{"blockchain": "ethereum"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["result"] != nil {
		t.Errorf("result = %v, want nil", body["result"])
	}
}

func TestTopSpenderScan_ReturnsSpender(t *testing.T) {
	server, deps := newTestServer()
	deps.topSpenders.spender = &models.TopSpender{
		Day:        "2026-09-01",
		Blockchain: types.ChainEthereum,
		Wallet:     "0xwhale",
		Amount:     123.4,
	}

	rec := doRequest(server, http.MethodPost, "/api/v1/topspender/scan",
		map[string]interface{}{"blockchain": "ethereum", "day": "2026-09-01"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["wallet"] != "0xwhale" {
		t.Errorf("wallet = %v", body["wallet"])
	}
}

func TestTopSpenderForDay_NotFound(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodGet, "/api/v1/topspender/2026-01-01", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCORSHeadersPresent(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodGet, "/health", nil)

	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS headers on response")
	}
}

func TestRateLimiter_RejectsBurstOverflow(t *testing.T) {
	deps := &testDeps{
		detection:     &stubDetection{},
		spending:      &stubSpending{},
		registrations: &stubRegistrations{},
		market:        &stubMarket{},
		recommender:   &stubRecommender{},
		topSpenders:   &stubTopSpenders{},
		wallets:       &stubWallets{},
		profiles:      &stubProfiles{},
	}
	cfg := &ServerConfig{
		Host: "localhost", Port: "0",
		ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second,
		RequestsPerSecond: 1,
		Burst:             2,
	}
	logger := logging.New(logging.LevelFatal, logging.FormatText)
	server := NewServer(cfg, deps.detection, deps.spending, deps.registrations,
		deps.market, deps.recommender, deps.topSpenders, deps.wallets, deps.profiles,
		nil, logger)

	var last int
	for i := 0; i < 5; i++ {
		rec := doRequest(server, http.MethodGet, "/health", nil)
		last = rec.Code
	}

	if last != http.StatusTooManyRequests {
		t.Fatalf("status after burst = %d, want 429", last)
	}
}
