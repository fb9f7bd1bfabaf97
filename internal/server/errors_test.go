package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"gifts-wheel/internal/common"
)

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{common.ErrTelegramIDRequired, http.StatusBadRequest},
		{common.ErrDepositIDRequired, http.StatusBadRequest},
		{common.ErrInvalidAmount, http.StatusBadRequest},
		{common.ErrInsufficientBalance, http.StatusBadRequest},
		{common.ErrInvalidPromoCode, http.StatusBadRequest},
		{common.ErrPromoAlreadyRedeemed, http.StatusBadRequest},
		{common.ErrPrizeMismatch, http.StatusBadRequest},
		{common.ErrUserNotFound, http.StatusNotFound},
		{common.ErrDepositNotFound, http.StatusNotFound},
		{common.ErrRoundNotFound, http.StatusNotFound},
		{common.ErrNoPendingPrize, http.StatusNotFound},
		{common.ErrBridgeUnavailable, http.StatusInternalServerError},
		{errors.New("что-то пошло не так"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

		respondError(ctx, c.err)

		if w.Code != c.want {
			t.Errorf("respondError(%v): статус %d, ожидался %d", c.err, w.Code, c.want)
		}
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	respondError(ctx, errors.New("pq: duplicate key value violates unique constraint"))

	if bytes.Contains(w.Body.Bytes(), []byte("duplicate key")) {
		t.Error("текст внутренней ошибки не должен попадать в ответ")
	}
}

func TestPeekTelegramIDFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/me?telegramId=777", nil)

	if got := peekTelegramID(ctx); got != 777 {
		t.Errorf("peekTelegramID = %d", got)
	}
}

func TestPeekTelegramIDFromBodyRestoresBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	body := []byte(`{"telegramId":123,"bet":1.5}`)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodPost, "/api/spin", bytes.NewReader(body))

	if got := peekTelegramID(ctx); got != 123 {
		t.Errorf("peekTelegramID = %d", got)
	}

	// Тело должно остаться читаемым для обработчика
	var parsed struct {
		TelegramID int64   `json:"telegramId"`
		Bet        float64 `json:"bet"`
	}
	if err := ctx.ShouldBindJSON(&parsed); err != nil {
		t.Fatalf("повторное чтение тела: %v", err)
	}
	if parsed.TelegramID != 123 || parsed.Bet != 1.5 {
		t.Errorf("тело искажено: %+v", parsed)
	}
}

func TestPeekTelegramIDBoundedRead(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Тело заметно больше лимита подглядывания
	padding := bytes.Repeat([]byte("x"), 64<<10)
	body := append([]byte(`{"telegramId":123,"pad":"`), padding...)
	body = append(body, []byte(`"}`)...)

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodPost, "/api/spin", bytes.NewReader(body))

	// Обрезанный JSON не парсится — лимитер отдаёт 0 и не падает
	if got := peekTelegramID(ctx); got != 0 {
		t.Errorf("peekTelegramID = %d, ожидалось 0 на обрезанном теле", got)
	}

	// Обработчику при этом доступно полное тело
	rest, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		t.Fatalf("чтение тела после подглядывания: %v", err)
	}
	if len(rest) != len(body) {
		t.Errorf("тело усечено: %d байт вместо %d", len(rest), len(body))
	}
}

func TestDepositCheckRequiresDepositID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Server{}

	// telegramId в теле опционален, а вот без depositId запрос не имеет смысла
	for _, body := range []string{`{"telegramId":123}`, `{"depositId":""}`, `{}`} {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodPost, "/api/ton/deposit/check", bytes.NewReader([]byte(body)))

		s.handleDepositCheck(ctx)

		if w.Code != http.StatusBadRequest {
			t.Errorf("тело %s: статус %d, ожидался 400", body, w.Code)
		}
		if !bytes.Contains(w.Body.Bytes(), []byte("depositId")) {
			t.Errorf("тело %s: в ответе нет упоминания depositId: %s", body, w.Body.String())
		}
	}
}

func TestPeekTelegramIDMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/health", nil)

	if got := peekTelegramID(ctx); got != 0 {
		t.Errorf("peekTelegramID = %d, ожидалось 0", got)
	}
}
