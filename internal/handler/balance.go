package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/AlexZinkM/wallet-guard/internal/common"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Balancer reads native balances from the current network.
type Balancer interface {
	Balance(ctx context.Context, identity string) (uint64, error)
}

// RateSource quotes SOL in USD.
type RateSource interface {
	SOLToUSDRate(ctx context.Context) (string, error)
}

// BalanceHandler serves GET /balance.
type BalanceHandler struct {
	client Balancer
	rates  RateSource
	log    *zap.Logger
}

// NewBalanceHandler returns a handler. rates may be nil to skip the fiat quote.
func NewBalanceHandler(client Balancer, rates RateSource, logger *zap.Logger) *BalanceHandler {
	return &BalanceHandler{
		client: client,
		rates:  rates,
		log:    logger.Named("handler"),
	}
}

// Get handles GET /balance
// @Summary      Get identity balance
// @Description  Gets the SOL balance of an identity on the current network with its USD value (USD = SOL * rate)
// @Tags         balance
// @Produce      json
// @Param        identity  query     string  true  "Public identity"
// @Success      200       {object}  model.BalanceResponse
// @Failure      400       {object}  model.ErrorResponse
// @Security     AdminToken
// @Router       /balance [get]
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		badRequest(w, errors.New("identity query parameter is required"))
		return
	}
	if _, err := solana.PublicKeyFromBase58(identity); err != nil {
		badRequest(w, fmt.Errorf("invalid identity: %w", err))
		return
	}

	lamports, err := h.client.Balance(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := model.BalanceResponse{
		Identity: identity,
		SOL:      common.LamportsToSOL(lamports),
	}

	// The fiat quote is best-effort
	if h.rates != nil {
		rate, err := h.rates.SOLToUSDRate(r.Context())
		if err != nil {
			h.log.Warn("failed to get SOL rate", zap.Error(err))
		} else {
			resp.Rate = rate
			solFloat, _ := strconv.ParseFloat(resp.SOL, 64)
			rateFloat, _ := strconv.ParseFloat(rate, 64)
			resp.USD = fmt.Sprintf("%.2f", solFloat*rateFloat)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
