package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

// ColorSuccess is the embed color of a settled lottery
const ColorSuccess = 0x57F287 // Green

// FormatBalance formats a balance amount with thousand separators
func FormatBalance(balance uint64) string {
	str := fmt.Sprintf("%d", balance)

	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatAmount renders an amount in the smallest unit as a decimal with the given number of
// decimals, dropping trailing zeros: 47500000000 with 9 decimals is "47.5".
func FormatAmount(amount uint64, decimals int) string {
	if decimals <= 0 {
		return FormatBalance(amount)
	}

	var scale uint64 = 1
	for i := 0; i < decimals; i++ {
		scale *= 10
	}

	whole := FormatBalance(amount / scale)
	frac := amount % scale
	if frac == 0 {
		return whole
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%0*d", decimals, frac), "0")
	return whole + "." + fracStr
}

// FormatAsset names the asset an amount is paid in. The zero key is native value.
func FormatAsset(asset solana.PublicKey) string {
	if asset.IsZero() {
		return "SOL"
	}
	return ShortKey(asset)
}

// ShortKey abbreviates a base58 address to its first and last four characters
func ShortKey(key solana.PublicKey) string {
	s := key.String()
	if len(s) <= 11 {
		return s
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
