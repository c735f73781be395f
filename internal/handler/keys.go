package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/AlexZinkM/wallet-guard/internal/crypto"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

// Keys is the keyring as managed over the admin API.
type Keys interface {
	AddKey(ctx context.Context, identity string, secret model.SecretPayload, password []byte) error
	RemoveKey(ctx context.Context, identity string) error
	IsKnown(identity string) bool
	ListIdentities() []string
}

// Notifier tells live contexts about keyring changes.
type Notifier interface {
	Broadcast(ctx context.Context, ev model.Event) error
}

// KeyHandler serves the /keys admin endpoints.
type KeyHandler struct {
	keys     Keys
	notifier Notifier
	log      *zap.Logger
}

func NewKeyHandler(keys Keys, notifier Notifier, logger *zap.Logger) *KeyHandler {
	return &KeyHandler{
		keys:     keys,
		notifier: notifier,
		log:      logger.Named("handler"),
	}
}

// List handles GET /keys
// @Summary      List identities
// @Description  Lists the public identities held by the keyring in insertion order
// @Tags         keys
// @Produce      json
// @Success      200  {object}  model.KeysResponse
// @Security     AdminToken
// @Router       /keys [get]
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	identities := h.keys.ListIdentities()
	if identities == nil {
		identities = []string{}
	}
	writeJSON(w, http.StatusOK, model.KeysResponse{Identities: identities})
}

// Add handles POST /keys
// @Summary      Import key
// @Description  Encrypts a private key or seed phrase with the given password and adds it to the keyring
// @Tags         keys
// @Accept       json
// @Produce      json
// @Param        request  body      model.AddKeyRequest  true  "Secret and password"
// @Success      201      {object}  model.KeyResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Security     AdminToken
// @Router       /keys [post]
func (h *KeyHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddKeyRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	defer req.Secret.Wipe()

	// Get password as []byte, use it, then zero it immediately
	password := []byte(req.Password)
	defer clear(password)
	if len(password) == 0 {
		badRequest(w, errors.New("password is required"))
		return
	}

	identity, err := crypto.IdentityFromSecret(req.Secret)
	if err != nil {
		badRequest(w, err)
		return
	}
	if req.Identity != "" && req.Identity != identity {
		badRequest(w, fmt.Errorf("secret belongs to %s, not %s", identity, req.Identity))
		return
	}

	h.add(w, r, identity, req.Secret, password, "Key imported successfully")
}

// Generate handles POST /keys/generate
// @Summary      Generate key
// @Description  Generates a new Solana key pair, encrypts it with the given password and adds it to the keyring
// @Tags         keys
// @Accept       json
// @Produce      json
// @Param        request  body      model.GenerateKeyRequest  true  "Password"
// @Success      201      {object}  model.KeyResponse
// @Failure      400      {object}  model.ErrorResponse
// @Security     AdminToken
// @Router       /keys/generate [post]
func (h *KeyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateKeyRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	password := []byte(req.Password)
	defer clear(password)
	if len(password) == 0 {
		badRequest(w, errors.New("password is required"))
		return
	}

	wallet := solana.NewWallet()
	secret := model.SecretPayload{PrivateKey: wallet.PrivateKey.String()}
	defer secret.Wipe()

	h.add(w, r, wallet.PublicKey().String(), secret, password, "Key generated successfully")
}

func (h *KeyHandler) add(w http.ResponseWriter, r *http.Request, identity string, secret model.SecretPayload, password []byte, message string) {
	if err := h.keys.AddKey(r.Context(), identity, secret, password); err != nil {
		writeError(w, err)
		return
	}
	h.notify(r.Context())

	writeJSON(w, http.StatusCreated, model.KeyResponse{
		Success:  true,
		Message:  message,
		Identity: identity,
	})
}

// Delete handles DELETE /keys/{identity}
// @Summary      Remove key
// @Description  Removes the identity and its encrypted secret from the keyring
// @Tags         keys
// @Produce      json
// @Param        identity  path      string  true  "Public identity"
// @Success      200       {object}  model.KeyResponse
// @Failure      404       {object}  model.ErrorResponse
// @Security     AdminToken
// @Router       /keys/{identity} [delete]
func (h *KeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")
	if !h.keys.IsKnown(identity) {
		writeError(w, fmt.Errorf("%w: %s", model.ErrNotFound, identity))
		return
	}
	if err := h.keys.RemoveKey(r.Context(), identity); err != nil {
		writeError(w, err)
		return
	}
	h.notify(r.Context())

	writeJSON(w, http.StatusOK, model.KeyResponse{
		Success:  true,
		Message:  "Key removed",
		Identity: identity,
	})
}

// QR handles GET /keys/{identity}/qr
// @Summary      Identity QR code
// @Description  Renders the public identity as a PNG QR code
// @Tags         keys
// @Produce      png
// @Param        identity  path  string  true  "Public identity"
// @Success      200
// @Failure      404  {object}  model.ErrorResponse
// @Security     AdminToken
// @Router       /keys/{identity}/qr [get]
func (h *KeyHandler) QR(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")
	if !h.keys.IsKnown(identity) {
		writeError(w, fmt.Errorf("%w: %s", model.ErrNotFound, identity))
		return
	}

	png, err := QRCode(identity)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// QRCode renders text as a PNG QR code.
func QRCode(text string) ([]byte, error) {
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	// Get PNG image
	png, err := qr.PNG(qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}
	return png, nil
}

func (h *KeyHandler) notify(ctx context.Context) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Broadcast(ctx, model.Event{Type: model.EventKeyringChanged}); err != nil {
		h.log.Warn("failed to broadcast keyring change", zap.Error(err))
	}
}
