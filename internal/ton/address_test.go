package ton_test

import (
	"strings"
	"testing"

	"gifts-wheel/internal/ton"
)

func TestValidateAddressUserFriendly(t *testing.T) {
	valid := []string{
		"EQAWzEKcdnykvXfUNouqdS62tvrp32bCxuKS6eQrS6ISgcLo",
		"UQBFz01R2CU7YA8pevUaNIYyXTjHC_26Ga6klBBzUwVbxa7B",
		strings.Repeat("A", 48),
	}
	for _, addr := range valid {
		if !ton.ValidateAddress(addr) {
			t.Errorf("адрес %q должен быть валидным", addr)
		}
	}
}

func TestValidateAddressRaw(t *testing.T) {
	hex64 := strings.Repeat("ab12", 16)
	if !ton.ValidateAddress("0:" + hex64) {
		t.Error("raw-адрес basechain должен быть валидным")
	}
	if !ton.ValidateAddress("-1:" + hex64) {
		t.Error("raw-адрес masterchain должен быть валидным")
	}
	if ton.ValidateAddress("2:" + hex64) {
		t.Error("неизвестный workchain должен отклоняться")
	}
	if ton.ValidateAddress("0:" + hex64[:60]) {
		t.Error("короткий hex должен отклоняться")
	}
}

func TestValidateAddressRejects(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"EQshort",
		strings.Repeat("A", 47),
		strings.Repeat("A", 49),
		strings.Repeat("!", 48),
	}
	for _, addr := range invalid {
		if ton.ValidateAddress(addr) {
			t.Errorf("адрес %q должен отклоняться", addr)
		}
	}
}
