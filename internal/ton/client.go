// Package ton — тонкий клиент к HTTP API toncenter.
// Переводит абстракции леджера (депозит, вывод, баланс) в запросы
// к внешней сети TON. Никакой криптографии кошельков здесь нет:
// клиент только читает цепочку и сверяет входящие переводы.
package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/common"
)

const (
	MainnetAPI = "https://toncenter.com/api/v2"
	TestnetAPI = "https://testnet.toncenter.com/api/v2"

	// Сколько последних транзакций просматриваем при поиске депозита.
	txScanLimit = 10
)

// Client — клиент toncenter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient создаёт клиент. Если baseURL пуст, выбирается mainnet
// или testnet по флагу testnet.
func NewClient(baseURL, apiKey string, testnet bool) *Client {
	if baseURL == "" {
		baseURL = MainnetAPI
		if testnet {
			baseURL = TestnetAPI
		}
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Transfer — найденный входящий перевод.
type Transfer struct {
	Hash   string // хеш транзакции в цепочке
	Amount int64  // сумма в наноTON
	Utime  int64  // unix-время транзакции
}

// apiEnvelope — общий конверт ответов toncenter: {"ok":bool,"result":...}.
type apiEnvelope struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

type rawTransaction struct {
	TransactionID struct {
		Hash string `json:"hash"`
	} `json:"transaction_id"`
	Utime int64 `json:"utime"`
	InMsg *struct {
		Value   string `json:"value"`
		Message string `json:"message"`
	} `json:"in_msg"`
}

// GetBalance возвращает баланс адреса в наноTON.
func (c *Client) GetBalance(ctx context.Context, address string) (int64, error) {
	if !ValidateAddress(address) {
		return 0, common.ErrInvalidAddress
	}

	result, err := c.get(ctx, "getAddressBalance", url.Values{"address": {address}})
	if err != nil {
		return 0, err
	}

	// result — строка с числом: "123456789"
	var raw string
	if err := json.Unmarshal(result, &raw); err != nil {
		return 0, fmt.Errorf("%w: некорректный ответ getAddressBalance", common.ErrBridgeUnavailable)
	}
	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: некорректный баланс %q", common.ErrBridgeUnavailable, raw)
	}
	return balance, nil
}

// FindIncomingTransfer ищет среди последних входящих переводов на address
// перевод с суммой не меньше minAmount и комментарием, содержащим tag.
// Возвращает первый подходящий (nil, nil — если совпадений нет).
func (c *Client) FindIncomingTransfer(ctx context.Context, address string, minAmount int64, tag string) (*Transfer, error) {
	result, err := c.get(ctx, "getTransactions", url.Values{
		"address": {address},
		"limit":   {strconv.Itoa(txScanLimit)},
	})
	if err != nil {
		return nil, err
	}

	var txs []rawTransaction
	if err := json.Unmarshal(result, &txs); err != nil {
		return nil, fmt.Errorf("%w: некорректный ответ getTransactions", common.ErrBridgeUnavailable)
	}

	for _, tx := range txs {
		if tx.InMsg == nil || tx.InMsg.Message == "" {
			continue
		}
		value, err := strconv.ParseInt(tx.InMsg.Value, 10, 64)
		if err != nil {
			continue
		}
		if value >= minAmount && strings.Contains(tx.InMsg.Message, tag) {
			return &Transfer{
				Hash:   tx.TransactionID.Hash,
				Amount: value,
				Utime:  tx.Utime,
			}, nil
		}
	}

	return nil, nil
}

// SendTransfer отправил бы TON с горячего кошелька. Автоматическая отправка
// сознательно не реализована: выводы подтверждает оператор вручную.
func (c *Client) SendTransfer(ctx context.Context, to string, amount int64, memo string) error {
	log.WithFields(log.Fields{
		"to":     to,
		"amount": common.FormatTON(amount),
		"memo":   memo,
	}).Warn("SendTransfer вызван, но автоматическая отправка отключена")
	return common.ErrSendNotImplemented
}

// get выполняет GET-запрос к toncenter и разворачивает конверт {ok, result}.
func (c *Client) get(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, method, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBridgeUnavailable, err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBridgeUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBridgeUnavailable, err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: статус %d", common.ErrBridgeUnavailable, resp.StatusCode)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("%w: %s", common.ErrBridgeUnavailable, envelope.Error)
	}
	return envelope.Result, nil
}
