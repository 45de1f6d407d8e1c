// Command process segments user records by purchase history and attaches
// per-segment product recommendations. Input is one user object or an
// array of them.
package main

import (
	"bytes"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/internal/envelope"
	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/pkg/log"
)

type purchase struct {
	Amount float64 `json:"amount"`
}

type user struct {
	ID        interface{} `json:"id"`
	Name      string      `json:"name"`
	Purchases []purchase  `json:"purchases"`
}

type metrics struct {
	TotalPurchases   int     `json:"total_purchases"`
	TotalSpent       float64 `json:"total_spent"`
	AvgPurchaseValue float64 `json:"avg_purchase_value"`
}

type profile struct {
	UserID          interface{} `json:"user_id"`
	Name            string      `json:"name"`
	Segment         string      `json:"segment"`
	Metrics         metrics     `json:"metrics"`
	Recommendations []string    `json:"recommendations"`
}

var recommendations = map[string][]string{
	"VIP":     {"Premium Bundle", "Exclusive Access", "Priority Support"},
	"Regular": {"Popular Items", "Seasonal Deals", "Member Benefits"},
	"New":     {"Starter Pack", "Welcome Offer", "Getting Started Guide"},
}

func segmentUser(u user) profile {
	var total float64
	for _, p := range u.Purchases {
		total += p.Amount
	}
	avg := 0.0
	if len(u.Purchases) > 0 {
		avg = total / float64(len(u.Purchases))
	}

	segment := "New"
	switch {
	case total > 1000 && len(u.Purchases) > 10:
		segment = "VIP"
	case total > 500:
		segment = "Regular"
	}

	name := u.Name
	if name == "" {
		name = "Unknown"
	}

	return profile{
		UserID:  u.ID,
		Name:    name,
		Segment: segment,
		Metrics: metrics{
			TotalPurchases:   len(u.Purchases),
			TotalSpent:       round2(total),
			AvgPurchaseValue: round2(avg),
		},
		Recommendations: recommendations[segment],
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func main() {
	cfg := config.Load()
	logger := log.New("process", cfg.LogLevel)

	os.Exit(envelope.Run(os.Stdout, logger, func() (interface{}, error) {
		data, err := envelope.Read(os.Args[1:], os.Stdin)
		if err != nil {
			return nil, err
		}
		return process(data)
	}))
}

// process segments a single user object or a batch of them. The payload
// kind decides the dispatch; null and scalar payloads would unmarshal into
// a zero user without error, so the first byte is checked instead.
func process(data []byte) (interface{}, error) {
	switch kind := bytes.TrimLeft(data, " \t\r\n"); {
	case len(kind) > 0 && kind[0] == '{':
		var single user
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, errors.Wrap(err, "failed to parse user object")
		}
		return segmentUser(single), nil

	case len(kind) > 0 && kind[0] == '[':
		var batch []user
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, errors.Wrap(err, "failed to parse user array")
		}
		profiles := make([]profile, len(batch))
		for i, u := range batch {
			profiles[i] = segmentUser(u)
		}
		return profiles, nil

	default:
		return nil, errors.NewValidationError("input", "Input must be object or array")
	}
}
