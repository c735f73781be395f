package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeRPC answers the JSON-RPC methods the client uses.
type fakeRPC struct {
	t         *testing.T
	blockhash string
	signature string

	mu         sync.Mutex
	methods    []string
	statusPoll int
	simErr     any
}

func newFakeRPC(t *testing.T) (*fakeRPC, *httptest.Server) {
	var sig solana.Signature
	for i := range sig {
		sig[i] = byte(i + 1)
	}
	f := &fakeRPC{
		t:         t,
		blockhash: solana.NewWallet().PublicKey().String(),
		signature: sig.String(),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeRPC) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

func (f *fakeRPC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.methods = append(f.methods, req.Method)
	ctx := map[string]any{"slot": 1}
	var result any
	switch req.Method {
	case "getLatestBlockhash":
		result = map[string]any{"context": ctx, "value": map[string]any{"blockhash": f.blockhash, "lastValidBlockHeight": 100}}
	case "getBalance":
		result = map[string]any{"context": ctx, "value": 1_500_000_000}
	case "sendTransaction":
		result = f.signature
	case "getSignatureStatuses":
		f.statusPoll++
		if f.statusPoll == 1 {
			result = map[string]any{"context": ctx, "value": []any{nil}}
		} else {
			result = map[string]any{"context": ctx, "value": []any{map[string]any{
				"slot": 10, "confirmations": nil, "err": nil, "confirmationStatus": "confirmed",
			}}}
		}
	case "simulateTransaction":
		result = map[string]any{"context": ctx, "value": map[string]any{
			"err": f.simErr, "logs": []string{"Program log: Memo"}, "accounts": nil, "unitsConsumed": 150,
		}}
	default:
		f.t.Errorf("unexpected rpc method %s", req.Method)
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func newTestClient(t *testing.T, url string) *SolanaClient {
	c := NewSolanaClient(url, zaptest.NewLogger(t))
	c.pollInterval = time.Millisecond
	return c
}

func signedParams(t *testing.T, function string, input any) model.CallParams {
	wallet := solana.NewWallet()
	raw, err := json.Marshal(input)
	require.NoError(t, err)
	return model.CallParams{
		KeyPair: &model.KeyPair{
			Public: wallet.PublicKey().String(),
			Secret: &model.SecretPayload{PrivateKey: wallet.PrivateKey.String()},
		},
		Address:      solana.NewWallet().PublicKey().String(),
		FunctionName: function,
		Input:        raw,
	}
}

func TestCreateRunMessage(t *testing.T) {
	rpc, srv := newFakeRPC(t)
	c := newTestClient(t, srv.URL)
	params := signedParams(t, FunctionTransfer, TransferInput{Amount: "0.5"})

	res, err := c.CreateRunMessage(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, StatusSigned, res.Status)
	assert.NotEmpty(t, res.TxID)

	raw, err := base64.StdEncoding.DecodeString(res.Message)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	// Only the blockhash is fetched, nothing is sent
	assert.Equal(t, []string{"getLatestBlockhash"}, rpc.called())

	sig, err := solana.SignatureFromBase58(res.TxID)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)
}

func TestRunLocalSimulates(t *testing.T) {
	rpc, srv := newFakeRPC(t)
	c := newTestClient(t, srv.URL)
	params := signedParams(t, FunctionMemo, MemoInput{Text: "hello"})

	res, err := c.RunLocal(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, StatusSimulated, res.Status)
	assert.Equal(t, []string{"Program log: Memo"}, res.Logs)
	assert.Equal(t, uint64(150), res.UnitsConsumed)
	assert.NotContains(t, rpc.called(), "sendTransaction")
}

func TestRunLocalReportsFailure(t *testing.T) {
	rpc, srv := newFakeRPC(t)
	rpc.simErr = map[string]any{"InstructionError": []any{0, "InvalidArgument"}}
	c := newTestClient(t, srv.URL)
	params := signedParams(t, FunctionMemo, MemoInput{Text: "hello"})

	res, err := c.RunLocal(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Message, "InstructionError")
}

func TestRunWaitsForConfirmation(t *testing.T) {
	rpc, srv := newFakeRPC(t)
	c := newTestClient(t, srv.URL)
	params := signedParams(t, FunctionTransfer, TransferInput{Amount: "0.25"})

	res, err := c.Run(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Status)
	assert.Equal(t, rpc.signature, res.TxID)
	assert.Equal(t, 2, rpc.statusPoll)
}

func TestRejectsUnusableCalls(t *testing.T) {
	rpc, srv := newFakeRPC(t)
	c := newTestClient(t, srv.URL)

	params := signedParams(t, FunctionTransfer, TransferInput{Amount: "1"})
	params.KeyPair.Public = solana.NewWallet().PublicKey().String()
	_, err := c.CreateRunMessage(context.Background(), params)
	assert.ErrorContains(t, err, "does not match")

	params = signedParams(t, FunctionTransfer, TransferInput{Amount: "1"})
	params.KeyPair.Secret = nil
	_, err = c.CreateRunMessage(context.Background(), params)
	assert.ErrorContains(t, err, "decrypted key")

	params = signedParams(t, "mint", struct{}{})
	_, err = c.CreateRunMessage(context.Background(), params)
	assert.ErrorContains(t, err, "unknown function")

	params = signedParams(t, FunctionTransfer, TransferInput{Amount: "0"})
	_, err = c.CreateRunMessage(context.Background(), params)
	assert.Error(t, err)

	params = signedParams(t, FunctionMemo, MemoInput{})
	_, err = c.CreateRunMessage(context.Background(), params)
	assert.Error(t, err)

	assert.Empty(t, rpc.called())
}

func TestBalanceAndEndpoint(t *testing.T) {
	_, first := newFakeRPC(t)
	second, other := newFakeRPC(t)
	c := newTestClient(t, first.URL)

	lamports, err := c.Balance(context.Background(), solana.NewWallet().PublicKey().String())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)

	_, err = c.Balance(context.Background(), "not-an-address")
	assert.Error(t, err)

	c.SetEndpoint(other.URL)
	assert.Equal(t, other.URL, c.Endpoint())
	_, err = c.Balance(context.Background(), solana.NewWallet().PublicKey().String())
	require.NoError(t, err)
	assert.Equal(t, []string{"getBalance"}, second.called())
}

func TestCoinGeckoRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		fmt.Fprint(w, `{"solana":{"usd":142.5}}`)
	}))
	defer srv.Close()

	rate, err := NewCoinGeckoClient(srv.URL).SOLToUSDRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "142.50", rate)
}
