package gateway

import (
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pegcore/crypto"
	"pegcore/native/stable"
)

// Server exposes the engine's read-only surface over HTTP. All handlers proxy
// getters; no route mutates state.
type Server struct {
	engine *stable.Engine
	logger *slog.Logger
	router http.Handler
}

// New constructs the gateway over the given engine.
func New(engine *stable.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{engine: engine, logger: logger}
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/params", s.handleParams)
		r.Get("/assets", s.handleAssets)
		r.Get("/supply", s.handleSupply)
		r.Get("/accounts/{address}", s.handleAccount)
		r.Get("/accounts/{address}/collateral/{asset}", s.handleCollateral)
		r.Get("/convert/usd", s.handleUsdValue)
		r.Get("/convert/token", s.handleTokenAmount)
	})
	s.router = r
	return s
}

// Router returns the HTTP handler for the read-only API.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleParams(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"precision":               stable.Precision().String(),
		"additionalFeedPrecision": stable.AdditionalFeedPrecision().String(),
		"liquidationThreshold":    stable.LiquidationThreshold().String(),
		"liquidationPrecision":    stable.LiquidationPrecision().String(),
		"liquidationBonus":        stable.LiquidationBonus().String(),
		"minHealthFactor":         stable.MinHealthFactor().String(),
		"tokenAuthority":          s.engine.TokenAuthority().String(),
		"vaultAddress":            s.engine.VaultAddress().String(),
	})
}

func (s *Server) handleAssets(w http.ResponseWriter, _ *http.Request) {
	type assetInfo struct {
		Symbol string `json:"symbol"`
		Feed   string `json:"feed,omitempty"`
	}
	assets := make([]assetInfo, 0)
	for _, symbol := range s.engine.CollateralAssets() {
		info := assetInfo{Symbol: symbol}
		if feed, ok := s.engine.Oracle().Feed(symbol); ok {
			if httpFeed, ok := feed.(*stable.HTTPFeed); ok {
				info.Feed = httpFeed.URL()
			}
		}
		assets = append(assets, info)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func (s *Server) handleSupply(w http.ResponseWriter, _ *http.Request) {
	supply, err := s.engine.StableSupply()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"supply": supply.String()})
}

func (s *Server) decodeAddress(w http.ResponseWriter, r *http.Request) (crypto.Address, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "address"))
	addr, err := crypto.DecodeAddress(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return crypto.Address{}, false
	}
	return addr, true
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.decodeAddress(w, r)
	if !ok {
		return
	}
	debt, collateralUsd, err := s.engine.AccountInformation(addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	healthFactor := stable.HealthFactor(debt, collateralUsd)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"address":            addr.String(),
		"debtMinted":         debt.String(),
		"collateralValueUsd": collateralUsd.String(),
		"healthFactor":       healthFactor.String(),
	})
}

func (s *Server) handleCollateral(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.decodeAddress(w, r)
	if !ok {
		return
	}
	asset := strings.TrimSpace(chi.URLParam(r, "asset"))
	balance, err := s.engine.CollateralBalance(addr, asset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"address": addr.String(),
		"asset":   asset,
		"balance": balance.String(),
	})
}

func (s *Server) parseConvertQuery(w http.ResponseWriter, r *http.Request, valueParam string) (string, *big.Int, bool) {
	asset := strings.TrimSpace(r.URL.Query().Get("asset"))
	raw := strings.TrimSpace(r.URL.Query().Get(valueParam))
	value, ok := new(big.Int).SetString(raw, 10)
	if asset == "" || !ok || value.Sign() < 0 {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "asset and a non-negative " + valueParam + " are required"})
		return "", nil, false
	}
	return asset, value, true
}

func (s *Server) handleUsdValue(w http.ResponseWriter, r *http.Request) {
	asset, amount, ok := s.parseConvertQuery(w, r, "amount")
	if !ok {
		return
	}
	value, err := s.engine.UsdValue(asset, amount)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"asset":    asset,
		"amount":   amount.String(),
		"usdValue": value.String(),
	})
}

func (s *Server) handleTokenAmount(w http.ResponseWriter, r *http.Request) {
	asset, usd, ok := s.parseConvertQuery(w, r, "usd")
	if !ok {
		return
	}
	amount, err := s.engine.TokenAmountFromUsd(asset, usd)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"asset":       asset,
		"usd":         usd.String(),
		"tokenAmount": amount.String(),
	})
}
