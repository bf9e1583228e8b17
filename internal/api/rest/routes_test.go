package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyegomez/mcs-platform-sub001/internal/api/rest/handlers"
	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/internal/ledger"
	"github.com/kyegomez/mcs-platform-sub001/internal/metrics"
	"github.com/kyegomez/mcs-platform-sub001/internal/repository"
	"github.com/kyegomez/mcs-platform-sub001/internal/service"
	"github.com/kyegomez/mcs-platform-sub001/internal/solana"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

const testWallet = "MCSPLatformWaLLet1111111111111111111111111"

type stubChain struct {
	tx  *solana.Transaction
	err error
}

func (s *stubChain) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	return s.tx, s.err
}

type fixedRate float64

func (r fixedRate) USDRate(ctx context.Context) (float64, bool) {
	return float64(r), true
}

func newTestLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

// newTestRouter собирает полный роутер на in-memory хранилище
func newTestRouter(t *testing.T, chain service.TransactionLookup, rate float64) (*gin.Engine, *ledger.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := newTestLogger()
	catalog := domain.DefaultTierCatalog()
	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry, log)

	store := repository.NewLocalSubscriptionStore(log)
	ledgerSvc := ledger.NewService(store, catalog, log)

	paymentSvc := service.NewPaymentService(ledgerSvc, catalog, chain, fixedRate(rate), testWallet, nil, paymentMetrics, log)

	paymentHandler := handlers.NewPaymentHandler(paymentSvc, log)
	subscriptionHandler := handlers.NewSubscriptionHandler(ledgerSvc, catalog, log)

	return SetupRouter(log, registry, paymentHandler, subscriptionHandler), ledgerSvc
}

func paidTransfer(lamports uint64) *solana.Transaction {
	const payerBalance = 5 * solana.LamportsPerSOL

	return &solana.Transaction{
		Meta: &solana.Meta{
			PreBalances:  []uint64{payerBalance, 0},
			PostBalances: []uint64{payerBalance - lamports, lamports},
		},
		Transaction: solana.TransactionPayload{
			Message: solana.Message{
				AccountKeys: []solana.AccountKey{{Pubkey: "payer", Signer: true}, {Pubkey: testWallet}},
				Instructions: []solana.Instruction{
					{
						Program: "system",
						Parsed: &solana.ParsedInstruction{
							Type: "transfer",
							Info: solana.TransferInfo{Source: "payer", Destination: testWallet, Lamports: lamports},
						},
					},
				},
			},
		},
	}
}

func doRequest(router *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestVerifyPaymentEndpoint_Success(t *testing.T) {
	// Курс 7.99 превращает месячную цену premium ровно в 1 SOL
	router, _ := newTestRouter(t, &stubChain{tx: paidTransfer(solana.LamportsPerSOL)}, 7.99)

	w := doRequest(router, http.MethodPost, "/api/payment/verify", "user-1",
		`{"signature":"sig123","subscriptionTier":"premium","billingCycle":"monthly"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		Subscription struct {
			Tier         string `json:"tier"`
			BillingCycle string `json:"billingCycle"`
			RenewalDate  string `json:"renewalDate"`
			IsActive     bool   `json:"isActive"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "Payment verified, premium subscription activated", resp.Message)
	assert.Equal(t, "premium", resp.Subscription.Tier)
	assert.Equal(t, "monthly", resp.Subscription.BillingCycle)
	assert.True(t, resp.Subscription.IsActive)

	renewal, err := time.Parse(time.RFC3339, resp.Subscription.RenewalDate)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), renewal, time.Minute)
}

func TestVerifyPaymentEndpoint_ErrorContract(t *testing.T) {
	tests := []struct {
		name       string
		chain      service.TransactionLookup
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing parameters",
			chain:      &stubChain{},
			body:       `{"subscriptionTier":"premium","billingCycle":"monthly"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required parameters",
		},
		{
			name:       "free tier rejected by binding",
			chain:      &stubChain{},
			body:       `{"signature":"sig123","subscriptionTier":"free","billingCycle":"monthly"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required parameters",
		},
		{
			name:       "transaction not found",
			chain:      &stubChain{tx: nil},
			body:       `{"signature":"sig123","subscriptionTier":"premium","billingCycle":"monthly"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "Transaction not found",
		},
		{
			name: "transaction failed",
			chain: func() *stubChain {
				tx := paidTransfer(solana.LamportsPerSOL)
				tx.Meta.Err = []byte(`{"InstructionError":[0,"Custom"]}`)
				return &stubChain{tx: tx}
			}(),
			body:       `{"signature":"sig123","subscriptionTier":"premium","billingCycle":"monthly"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Transaction failed",
		},
		{
			name: "no transfer to platform wallet",
			chain: func() *stubChain {
				tx := paidTransfer(solana.LamportsPerSOL)
				tx.Transaction.Message.Instructions[0].Parsed.Info.Destination = "ElsewhereWaLLet111111111111111111111111111"
				return &stubChain{tx: tx}
			}(),
			body:       `{"signature":"sig123","subscriptionTier":"premium","billingCycle":"monthly"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid transaction type",
		},
		{
			name:       "amount outside tolerance",
			chain:      &stubChain{tx: paidTransfer(solana.LamportsPerSOL / 2)},
			body:       `{"signature":"sig123","subscriptionTier":"premium","billingCycle":"monthly"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Payment amount mismatch",
		},
		{
			name:       "lookup failure",
			chain:      &stubChain{err: context.DeadlineExceeded},
			body:       `{"signature":"sig123","subscriptionTier":"premium","billingCycle":"monthly"}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tt.chain, 7.99)

			w := doRequest(router, http.MethodPost, "/api/payment/verify", "user-1", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp["error"])
		})
	}
}

func TestVerifyPaymentEndpoint_RequiresIdentity(t *testing.T) {
	router, _ := newTestRouter(t, &stubChain{}, 7.99)

	w := doRequest(router, http.MethodPost, "/api/payment/verify", "",
		`{"signature":"sig123","subscriptionTier":"premium","billingCycle":"monthly"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestGetSubscriptionEndpoint_DefaultsToFree(t *testing.T) {
	router, _ := newTestRouter(t, &stubChain{}, 7.99)

	w := doRequest(router, http.MethodGet, "/api/v1/subscription", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Subscription       domain.UserSubscription `json:"subscription"`
		RenewalDateDisplay string                  `json:"renewal_date_display"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, domain.TierFree, resp.Subscription.Tier)
	assert.Equal(t, domain.FreeConversationLimit, resp.Subscription.ConversationsLimit)
	assert.Equal(t, "Not set", resp.RenewalDateDisplay)
}

func TestUsageEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, &stubChain{}, 7.99)

	for i := 0; i < 3; i++ {
		w := doRequest(router, http.MethodPost, "/api/v1/subscription/usage", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(router, http.MethodGet, "/api/v1/subscription/usage", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ConversationsUsed    int     `json:"conversations_used"`
		ConversationsLimit   int     `json:"conversations_limit"`
		Remaining            int     `json:"remaining"`
		UsagePercentage      float64 `json:"usage_percentage"`
		CanStartConversation bool    `json:"can_start_conversation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 3, resp.ConversationsUsed)
	assert.Equal(t, domain.FreeConversationLimit, resp.ConversationsLimit)
	assert.Equal(t, 12, resp.Remaining)
	assert.InDelta(t, 20.0, resp.UsagePercentage, 0.001)
	assert.True(t, resp.CanStartConversation)
}

func TestTiersEndpointIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, &stubChain{}, 7.99)

	w := doRequest(router, http.MethodGet, "/api/v1/tiers", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tiers []domain.SubscriptionTier `json:"tiers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tiers, 3)
	assert.Equal(t, domain.TierFree, resp.Tiers[0].ID)
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubChain{}, 7.99)

	w := doRequest(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
