package ton_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/ton"
)

const testAddress = "EQAWzEKcdnykvXfUNouqdS62tvrp32bCxuKS6eQrS6ISgcLo"

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getAddressBalance" {
			t.Errorf("неожиданный путь %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("address"); got != testAddress {
			t.Errorf("address = %q", got)
		}
		fmt.Fprint(w, `{"ok":true,"result":"5000000000"}`)
	}))
	defer srv.Close()

	client := ton.NewClient(srv.URL, "", false)
	balance, err := client.GetBalance(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 5_000_000_000 {
		t.Errorf("balance = %d", balance)
	}
}

func TestGetBalanceInvalidAddress(t *testing.T) {
	client := ton.NewClient("http://127.0.0.1:1", "", false)
	_, err := client.GetBalance(context.Background(), "не адрес")
	if !errors.Is(err, common.ErrInvalidAddress) {
		t.Errorf("ожидался ErrInvalidAddress, получено %v", err)
	}
}

func TestGetBalanceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error":"rate limit"}`)
	}))
	defer srv.Close()

	client := ton.NewClient(srv.URL, "", false)
	_, err := client.GetBalance(context.Background(), testAddress)
	if !errors.Is(err, common.ErrBridgeUnavailable) {
		t.Errorf("ожидался ErrBridgeUnavailable, получено %v", err)
	}
}

const transactionsFixture = `{"ok":true,"result":[
	{"transaction_id":{"hash":"hash1"},"utime":1700000001,
	 "in_msg":{"value":"50000000","message":"DEP-999-aaaa"}},
	{"transaction_id":{"hash":"hash2"},"utime":1700000002,
	 "in_msg":{"value":"200000000","message":"пополнение DEP-123-abcd спасибо"}},
	{"transaction_id":{"hash":"hash3"},"utime":1700000003,
	 "in_msg":{"value":"300000000","message":"DEP-123-abcd"}}
]}`

func TestFindIncomingTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getTransactions" {
			t.Errorf("неожиданный путь %q", r.URL.Path)
		}
		fmt.Fprint(w, transactionsFixture)
	}))
	defer srv.Close()

	client := ton.NewClient(srv.URL, "", false)

	// Первое совпадение по порядку сканирования, комментарий содержит тег
	transfer, err := client.FindIncomingTransfer(context.Background(), testAddress, 100_000_000, "DEP-123-abcd")
	if err != nil {
		t.Fatalf("FindIncomingTransfer: %v", err)
	}
	if transfer == nil {
		t.Fatal("перевод не найден")
	}
	if transfer.Hash != "hash2" || transfer.Amount != 200_000_000 {
		t.Errorf("найден не тот перевод: %+v", transfer)
	}
}

func TestFindIncomingTransferRespectsMinAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, transactionsFixture)
	}))
	defer srv.Close()

	client := ton.NewClient(srv.URL, "", false)

	// DEP-999 есть в списке, но сумма ниже минимума
	transfer, err := client.FindIncomingTransfer(context.Background(), testAddress, 100_000_000, "DEP-999-aaaa")
	if err != nil {
		t.Fatalf("FindIncomingTransfer: %v", err)
	}
	if transfer != nil {
		t.Errorf("перевод ниже минимума не должен находиться: %+v", transfer)
	}
}

func TestFindIncomingTransferNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	}))
	defer srv.Close()

	client := ton.NewClient(srv.URL, "", false)
	transfer, err := client.FindIncomingTransfer(context.Background(), testAddress, 1, "DEP-1-xxxx")
	if err != nil {
		t.Fatalf("FindIncomingTransfer: %v", err)
	}
	if transfer != nil {
		t.Errorf("в пустом списке не должно быть совпадений: %+v", transfer)
	}
}

func TestSendTransferStub(t *testing.T) {
	client := ton.NewClient("http://127.0.0.1:1", "", false)
	err := client.SendTransfer(context.Background(), testAddress, 1_000_000_000, "memo")
	if !errors.Is(err, common.ErrSendNotImplemented) {
		t.Errorf("ожидался ErrSendNotImplemented, получено %v", err)
	}
}
