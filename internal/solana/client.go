package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// commitmentConfirmed уровень консистентности для чтения транзакций
const commitmentConfirmed = "confirmed"

// Config конфигурация для клиента Solana RPC
type Config struct {
	RPCURL  string
	Timeout time.Duration
}

// Client представляет клиент для работы с Solana JSON-RPC API
type Client struct {
	rpcURL     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient создает новый клиент Solana RPC
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		rpcURL:     cfg.RPCURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// rpcRequest тело запроса JSON-RPC 2.0
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcError ошибка JSON-RPC
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse конверт ответа JSON-RPC 2.0
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// GetTransaction запрашивает подтвержденную транзакцию по подписи.
// Возвращает (nil, nil), если транзакция не найдена в блокчейне.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getTransaction",
		Params: []interface{}{
			signature,
			map[string]interface{}{
				"commitment":                     commitmentConfirmed,
				"encoding":                       "jsonParsed",
				"maxSupportedTransactionVersion": 0,
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("solana: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("solana: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorw("Solana RPC request failed", "error", err, "signature", signature)
		return nil, fmt.Errorf("solana: rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Errorw("Solana RPC returned non-OK status", "status", resp.StatusCode, "signature", signature)
		return nil, fmt.Errorf("solana: rpc returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		c.log.Errorw("Failed to decode Solana RPC response", "error", err, "signature", signature)
		return nil, fmt.Errorf("solana: failed to decode response: %w", err)
	}

	if rpcResp.Error != nil {
		c.log.Errorw("Solana RPC returned error", "code", rpcResp.Error.Code, "message", rpcResp.Error.Message, "signature", signature)
		return nil, fmt.Errorf("solana: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	// result: null - транзакция не найдена
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		c.log.Debugw("Transaction not found on ledger", "signature", signature)
		return nil, nil
	}

	var tx Transaction
	if err := json.Unmarshal(rpcResp.Result, &tx); err != nil {
		c.log.Errorw("Failed to unmarshal transaction", "error", err, "signature", signature)
		return nil, fmt.Errorf("solana: failed to unmarshal transaction: %w", err)
	}

	return &tx, nil
}
