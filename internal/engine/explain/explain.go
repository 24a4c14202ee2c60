// Package explain derives human-readable rationale strings for scored rows.
//
// Rules are a fixed ordered table of independent predicates over the raw
// record (not the coerced feature vector), so optional columns such as
// device_info can be inspected. The same input always produces the same
// sentences in the same order.
package explain

import (
	"fmt"
	"strings"

	"github.com/hejijunhao/scalpshield/internal/engine/feature"
	"github.com/hejijunhao/scalpshield/internal/model"
)

// suspiciousDeviceKeywords mark automation tooling in the device_info column.
var suspiciousDeviceKeywords = []string{
	"bot", "headless", "selenium", "scrapy", "curl", "python-requests",
}

type rule struct {
	applies func(r model.RawRecord) bool
	text    string
}

// rules fire independently, in this order. Each match contributes exactly
// one fixed sentence.
var rules = []rule{
	{
		applies: func(r model.RawRecord) bool { return num(r, "tickets", 0) >= 10 },
		text:    "High ticket volume (>= 10 tickets in a single purchase).",
	},
	{
		applies: func(r model.RawRecord) bool { return num(r, "total_amount", 0) >= 500 },
		text:    "High total spend (>= 500 units in this purchase).",
	},
	{
		applies: func(r model.RawRecord) bool { return num(r, "ip_purchase_count_24h", 0) >= 10 },
		text:    "Many purchases from the same IP in the last 24 hours.",
	},
	{
		applies: func(r model.RawRecord) bool { return num(r, "user_purchase_count_30d", 0) >= 20 },
		text:    "Unusually high number of purchases from this user in the last 30 days.",
	},
	{
		applies: func(r model.RawRecord) bool { return num(r, "user_account_age_days", 365) <= 7 },
		text:    "Very new account (<= 7 days old).",
	},
	{
		applies: func(r model.RawRecord) bool {
			age := num(r, "user_account_age_days", 365)
			return age > 7 && age <= 30
		},
		text: "Relatively new account (<= 30 days old).",
	},
	{
		applies: func(r model.RawRecord) bool { return num(r, "same_card_purchase_count_24h", 0) >= 5 },
		text:    "Many purchases on the same card in the last 24 hours.",
	},
	{
		applies: suspiciousDevice,
		text:    "Suspicious device or automation signature detected in device information.",
	},
}

// Build returns the ordered explanation list for one row. If no rule fires,
// a single flag-band fallback sentence takes their place. Extra notes (for
// example a default-substitution notice) follow the rule sentences, and the
// final sentence always states the model probability to two decimals.
func Build(r model.RawRecord, prob float64, flag model.Flag, notes ...string) []string {
	var out []string
	for _, rl := range rules {
		if rl.applies(r) {
			out = append(out, rl.text)
		}
	}
	if len(out) == 0 {
		out = append(out, fallback(flag))
	}
	out = append(out, notes...)
	out = append(out, fmt.Sprintf("Model probability of suspicious activity: %.2f.", prob))
	return out
}

func fallback(flag model.Flag) string {
	switch flag {
	case model.FlagRed:
		return "Overall pattern of activity looks highly similar to known risky behavior."
	case model.FlagYellow:
		return "Activity shows some risk indicators but is not strongly suspicious."
	default:
		return "No strong risk indicators detected based on current variables."
	}
}

func suspiciousDevice(r model.RawRecord) bool {
	device := strings.ToLower(r["device_info"])
	if device == "" {
		return false
	}
	for _, kw := range suspiciousDeviceKeywords {
		if strings.Contains(device, kw) {
			return true
		}
	}
	return false
}

// num reads a numeric field from the raw record, falling back to def for
// missing or unparseable cells. Mirrors the feature builder's coercion.
func num(r model.RawRecord, name string, def float64) float64 {
	if v, ok := feature.Coerce(r[name]); ok {
		return v
	}
	return def
}
