// address.go — синтаксическая валидация адресов TON.
// Полная проверка (CRC, флаги bounceable) требует криптографии кошельков,
// которая вне зоны ответственности этого сервиса: здесь отсекаются только
// заведомо невалидные строки до обращения к toncenter.
package ton

import "strings"

// ValidateAddress проверяет, похожа ли строка на адрес TON.
// Принимаются две формы:
//   - user-friendly: 48 символов base64/base64url (EQ..., UQ..., kQ...)
//   - raw: "<workchain>:<64 hex-символа>", например "0:abc...def"
func ValidateAddress(address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}

	if wc, hexPart, ok := strings.Cut(address, ":"); ok {
		return isWorkchain(wc) && isHex64(hexPart)
	}

	if len(address) != 48 {
		return false
	}
	for _, r := range address {
		if !isBase64Char(r) {
			return false
		}
	}
	return true
}

func isBase64Char(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '+' || r == '/' || r == '-' || r == '_' || r == '=':
		return true
	}
	return false
}

func isWorkchain(s string) bool {
	// На практике используются только 0 (basechain) и -1 (masterchain).
	return s == "0" || s == "-1"
}

func isHex64(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		ok := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
		if !ok {
			return false
		}
	}
	return true
}
