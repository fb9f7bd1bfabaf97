// Package common содержит общие утилиты, используемые во всём проекте.
// money.go — работа с суммами TON. Внутри системы все суммы хранятся
// в наноTON (int64), чтобы избежать накопления ошибок float64.
// В API и сообщениях бота суммы отдаются в TON.
package common

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// NanoPerTON — количество наноTON в одном TON.
const NanoPerTON = 1_000_000_000

// ToNano переводит сумму из TON в наноTON.
// Округление до ближайшего нано: суммы приходят из JSON как float64,
// и 1.15 * 1e9 в двоичном виде чуть меньше 1150000000.
func ToNano(ton float64) int64 {
	return int64(math.Round(ton * NanoPerTON))
}

// FromNano переводит сумму из наноTON в TON.
func FromNano(nano int64) float64 {
	return float64(nano) / NanoPerTON
}

// FormatTON форматирует сумму для отображения: 5000000000 → "5.00 TON".
func FormatTON(nano int64) string {
	return fmt.Sprintf("%.2f TON", FromNano(nano))
}

// FormatSigned форматирует сумму со знаком для истории транзакций:
// +1.50 TON / -1.00 TON.
func FormatSigned(nano int64) string {
	if nano >= 0 {
		return "+" + FormatTON(nano)
	}
	return "-" + FormatTON(-nano)
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
// Используется для отображения дат транзакций в боте.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("02.01.2006 15:04")
}

// Truncate обрезает строку до n символов (для логов).
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// NormalizeCode приводит промокод к каноническому виду (верхний регистр,
// без пробелов по краям). Коды сравниваются без учёта регистра.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
