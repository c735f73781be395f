package handler

import (
	"errors"
	"net/http"

	"github.com/AlexZinkM/wallet-guard/internal/model"
)

// Networks is the network manager as managed over the admin API.
type Networks interface {
	Network(name string) (model.NetworkInfo, error)
	Networks() map[string]model.NetworkProfile
	Current() string
	AddNetwork(name string, profile model.NetworkProfile) error
	ChangeNetwork(name string) error
}

// NetworkHandler serves the /networks admin endpoints.
type NetworkHandler struct {
	networks Networks
}

func NewNetworkHandler(networks Networks) *NetworkHandler {
	return &NetworkHandler{networks: networks}
}

// List handles GET /networks
// @Summary      List networks
// @Description  Lists all network profiles and the current network
// @Tags         networks
// @Produce      json
// @Success      200  {object}  model.NetworksResponse
// @Security     AdminToken
// @Router       /networks [get]
func (h *NetworkHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.NetworksResponse{
		Current:  h.networks.Current(),
		Networks: h.networks.Networks(),
	})
}

// Change handles PUT /networks/current
// @Summary      Change network
// @Description  Switches the current network and notifies every live context
// @Tags         networks
// @Accept       json
// @Produce      json
// @Param        request  body      model.ChangeNetworkRequest  true  "Network name"
// @Success      200      {object}  model.NetworkInfo
// @Failure      400      {object}  model.ErrorResponse
// @Security     AdminToken
// @Router       /networks/current [put]
func (h *NetworkHandler) Change(w http.ResponseWriter, r *http.Request) {
	var req model.ChangeNetworkRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := h.networks.ChangeNetwork(req.Name); err != nil {
		writeError(w, err)
		return
	}

	info, err := h.networks.Network(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Add handles POST /networks
// @Summary      Add network
// @Description  Adds a user network profile. Builtin profiles cannot be replaced
// @Tags         networks
// @Accept       json
// @Produce      json
// @Param        request  body      model.AddNetworkRequest  true  "Network profile"
// @Success      201      {object}  model.NetworkInfo
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Security     AdminToken
// @Router       /networks [post]
func (h *NetworkHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddNetworkRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := h.networks.AddNetwork(req.Name, req.Network); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			writeError(w, err)
			return
		}
		badRequest(w, err)
		return
	}

	info, err := h.networks.Network(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}
