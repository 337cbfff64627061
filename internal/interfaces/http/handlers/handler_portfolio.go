package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ipede/metals-portfolio-service/internal/domain"
	httperrors "github.com/ipede/metals-portfolio-service/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// PortfolioHandler serves holding management, valuation, spot price queries
// and the FDX account surface
type PortfolioHandler struct {
	portfolio domain.PortfolioService
	prices    domain.PriceService
	logger    *zap.Logger
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolio domain.PortfolioService, prices domain.PriceService, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolio: portfolio,
		prices:    prices,
		logger:    logger,
	}
}

// subject pulls the authenticated user ID out of the request context
func subject(r *http.Request) (ulid.ULID, bool) {
	sub, ok := domain.GetSubject(r.Context())
	if !ok {
		return ulid.ULID{}, false
	}
	id, err := ulid.Parse(sub)
	return id, err == nil
}

func (h *PortfolioHandler) holdingFromRequest(req *HoldingRequest, userID ulid.ULID) (*domain.Holding, httperrors.ValidationErrors) {
	var validation httperrors.ValidationErrors

	kind := domain.HoldingKind(req.Kind)
	if kind != domain.HoldingBullion && kind != domain.HoldingCoin {
		validation.Add("kind", "Kind must be 'bullion' or 'coin'")
	}
	if strings.TrimSpace(req.Name) == "" {
		validation.Add("name", "Name is required")
	}
	if req.Quantity < 0 {
		validation.Add("quantity", "Quantity cannot be negative")
	}

	var metal domain.Metal
	switch kind {
	case domain.HoldingBullion:
		var err error
		if metal, err = domain.ParseMetal(req.Metal); err != nil {
			validation.Add("metal", "Unknown metal: "+req.Metal)
		}
		if req.WeightOz <= 0 {
			validation.Add("weight_oz", "Weight must be positive")
		}
	case domain.HoldingCoin:
		if _, ok := domain.CoinComposition(req.Denomination, req.Year); !ok {
			validation.Add("denomination", "No composition rule for this denomination and year")
		}
	}

	if validation.HasErrors() {
		return nil, validation
	}

	return &domain.Holding{
		UserID:       userID,
		Kind:         kind,
		Metal:        metal,
		Name:         req.Name,
		Denomination: req.Denomination,
		Year:         req.Year,
		Quantity:     req.Quantity,
		WeightOz:     req.WeightOz,
		PurchaseUSD:  req.PurchaseUSD,
		GuideUSD:     req.GuideUSD,
	}, nil
}

// CreateHolding godoc
// @Summary Add a holding to the collection
// @Tags portfolio
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body HoldingRequest true "Holding data"
// @Success 201 {object} domain.Holding
// @Failure 400 {object} httperrors.ErrorResponse
// @Router /api/holdings [post]
func (h *PortfolioHandler) CreateHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(r)
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	var req HoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid request body", nil, http.StatusBadRequest)
		return
	}

	holding, validation := h.holdingFromRequest(&req, userID)
	if validation.HasErrors() {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid holding data", validation, http.StatusBadRequest)
		return
	}

	if err := h.portfolio.CreateHolding(r.Context(), holding); err != nil {
		h.logger.Error("Failed to create holding", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to create holding", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(holding)
}

// GetHolding godoc
// @Summary Get a holding
// @Tags portfolio
// @Produce json
// @Security BearerAuth
// @Param id path string true "Holding ID"
// @Success 200 {object} domain.Holding
// @Failure 404 {object} httperrors.ErrorResponse
// @Router /api/holdings/{id} [get]
func (h *PortfolioHandler) GetHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(r)
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Holding not found", nil, http.StatusNotFound)
		return
	}

	holding, err := h.portfolio.GetHolding(r.Context(), userID, id)
	if err != nil {
		h.respondHoldingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(holding)
}

// ListHoldings godoc
// @Summary List the collection's holdings
// @Tags portfolio
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Holding
// @Router /api/holdings [get]
func (h *PortfolioHandler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(r)
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	holdings, err := h.portfolio.ListHoldings(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list holdings", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to list holdings", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(holdings)
}

// UpdateHolding godoc
// @Summary Update a holding
// @Tags portfolio
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Holding ID"
// @Param request body HoldingRequest true "Holding data"
// @Success 200 {object} domain.Holding
// @Failure 404 {object} httperrors.ErrorResponse
// @Router /api/holdings/{id} [put]
func (h *PortfolioHandler) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(r)
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Holding not found", nil, http.StatusNotFound)
		return
	}

	var req HoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid request body", nil, http.StatusBadRequest)
		return
	}

	holding, validation := h.holdingFromRequest(&req, userID)
	if validation.HasErrors() {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid holding data", validation, http.StatusBadRequest)
		return
	}
	holding.ID = id

	if err := h.portfolio.UpdateHolding(r.Context(), holding); err != nil {
		h.respondHoldingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(holding)
}

// DeleteHolding godoc
// @Summary Remove a holding
// @Tags portfolio
// @Security BearerAuth
// @Param id path string true "Holding ID"
// @Success 204
// @Failure 404 {object} httperrors.ErrorResponse
// @Router /api/holdings/{id} [delete]
func (h *PortfolioHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(r)
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Holding not found", nil, http.StatusNotFound)
		return
	}

	if err := h.portfolio.DeleteHolding(r.Context(), userID, id); err != nil {
		h.respondHoldingError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PortfolioHandler) respondHoldingError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrHoldingNotFound) {
		httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Holding not found", nil, http.StatusNotFound)
		return
	}
	h.logger.Error("Holding operation failed", zap.Error(err))
	httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Holding operation failed", nil, http.StatusInternalServerError)
}

// Valuation godoc
// @Summary Value the portfolio at current spot prices
// @Tags portfolio
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Valuation
// @Router /api/portfolio/valuation [get]
func (h *PortfolioHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(r)
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	valuation, err := h.portfolio.Valuate(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to value portfolio", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to value portfolio", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(valuation)
}

// LatestPrice godoc
// @Summary Latest spot price for a metal
// @Tags prices
// @Produce json
// @Security BearerAuth
// @Param metal path string true "Metal name"
// @Success 200 {object} domain.SpotPrice
// @Failure 404 {object} httperrors.ErrorResponse
// @Router /api/prices/{metal} [get]
func (h *PortfolioHandler) LatestPrice(w http.ResponseWriter, r *http.Request) {
	metal, err := domain.ParseMetal(chi.URLParam(r, "metal"))
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Unknown metal", nil, http.StatusBadRequest)
		return
	}

	price, err := h.prices.Latest(r.Context(), metal)
	if err != nil {
		if errors.Is(err, domain.ErrNoPriceData) {
			httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "No price data recorded yet", nil, http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load spot price", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to load spot price", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(price)
}

// PriceHistory godoc
// @Summary Spot price history for a metal
// @Description Returns recorded samples in the requested window, oldest
// @Description first. Defaults to the last 30 days.
// @Tags prices
// @Produce json
// @Security BearerAuth
// @Param metal path string true "Metal name"
// @Param from query string false "RFC 3339 window start"
// @Param to query string false "RFC 3339 window end"
// @Success 200 {array} domain.SpotPrice
// @Router /api/prices/{metal}/history [get]
func (h *PortfolioHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	metal, err := domain.ParseMetal(chi.URLParam(r, "metal"))
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Unknown metal", nil, http.StatusBadRequest)
		return
	}

	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid 'from' timestamp", nil, http.StatusBadRequest)
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid 'to' timestamp", nil, http.StatusBadRequest)
			return
		}
	}

	history, err := h.prices.History(r.Context(), metal, from, to)
	if err != nil {
		h.logger.Error("Failed to load price history", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to load price history", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

// LatestPrices godoc
// @Summary Latest spot price per metal
// @Description Returns the most recent sample for each metal that has data.
// @Tags prices
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.SpotPrice
// @Router /api/prices [get]
func (h *PortfolioHandler) LatestPrices(w http.ResponseWriter, r *http.Request) {
	prices := make([]*domain.SpotPrice, 0, len(domain.SpotMetals))
	for _, metal := range domain.SpotMetals {
		price, err := h.prices.Latest(r.Context(), metal)
		if err != nil {
			if errors.Is(err, domain.ErrNoPriceData) {
				continue
			}
			h.logger.Error("Failed to load spot price", zap.String("metal", string(metal)), zap.Error(err))
			httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to load spot prices", nil, http.StatusInternalServerError)
			return
		}
		prices = append(prices, price)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(prices)
}

func metalNickname(metal domain.Metal) string {
	s := string(metal)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + " Holdings"
}

// FDXAccounts godoc
// @Summary FDX account surface
// @Description Presents the portfolio as FDX investment accounts, one per
// @Description metal with nonzero holdings plus a numismatic account for the
// @Description premium over melt. Requires the accounts:read scope.
// @Tags fdx
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FDXAccountsResponse
// @Failure 401 {object} httperrors.OAuthErrorResponse
// @Router /fdx/v6/accounts [get]
func (h *PortfolioHandler) FDXAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(r)
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	valuation, err := h.portfolio.Valuate(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to value portfolio for FDX", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to load accounts", nil, http.StatusInternalServerError)
		return
	}

	accounts := make([]FDXAccount, 0, len(valuation.Totals)+1)
	for _, metal := range []domain.Metal{domain.MetalGold, domain.MetalSilver, domain.MetalPlatinum, domain.MetalCopper} {
		total, ok := valuation.Totals[metal]
		if !ok || total.MeltUSD == 0 {
			continue
		}
		accounts = append(accounts, FDXAccount{
			AccountID:    userID.String() + "-" + string(metal),
			AccountType:  "investmentAccount",
			Nickname:     metalNickname(metal),
			Currency:     "USD",
			CurrentValue: total.MeltUSD,
		})
	}
	if premium := valuation.GuideUSD - valuation.MeltUSD; premium > 0 {
		accounts = append(accounts, FDXAccount{
			AccountID:    userID.String() + "-numismatic",
			AccountType:  "investmentAccount",
			Nickname:     "Numismatic Premium",
			Currency:     "USD",
			CurrentValue: premium,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FDXAccountsResponse{Accounts: accounts})
}
