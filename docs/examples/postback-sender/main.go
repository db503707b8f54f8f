// LeadRelay Postback Sender Example
//
// This is a minimal tool that fires tracker-style postbacks at a running
// LeadRelay instance, useful for smoke-testing routing and notifications.
//
// Usage:
//   export LEADRELAY_URL="http://localhost:8080"
//   export POSTBACK_TOKEN="your_shared_token"
//   go run main.go -status sale -campaign alex_us_fb -payout 49.90
//
// Add -get to send the payload as GET query parameters instead of a JSON
// body, mirroring how most trackers are configured.

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

func main() {
	var (
		status   = flag.String("status", "sale", "Conversion status")
		campaign = flag.String("campaign", "alex_us_fb", "Campaign name")
		offer    = flag.String("offer", "1234", "Offer ID")
		country  = flag.String("country", "US", "Country code")
		source   = flag.String("source", "facebook", "Traffic source")
		payout   = flag.Float64("payout", 25.50, "Payout amount")
		currency = flag.String("currency", "USD", "Payout currency")
		subID    = flag.String("subid", "click-001", "Click sub ID")
		useGet   = flag.Bool("get", false, "Send as GET query parameters")
	)
	flag.Parse()

	baseURL := os.Getenv("LEADRELAY_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	token := os.Getenv("POSTBACK_TOKEN")

	payload := map[string]string{
		"status":          *status,
		"campaign_name":   *campaign,
		"offer_id":        *offer,
		"country":         *country,
		"source":          *source,
		"payout":          fmt.Sprintf("%g", *payout),
		"currency":        *currency,
		"subid":           *subID,
		"conversion_time": time.Now().UTC().Format(time.RFC3339),
	}
	if token != "" {
		payload["token"] = token
	}

	client := &http.Client{Timeout: 10 * time.Second}

	var (
		resp *http.Response
		err  error
	)
	if *useGet {
		values := url.Values{}
		for k, v := range payload {
			values.Set(k, v)
		}
		resp, err = client.Get(baseURL + "/keitaro/postback?" + values.Encode())
	} else {
		body, _ := json.Marshal(payload)
		resp, err = client.Post(baseURL+"/keitaro/postback", "application/json", bytes.NewReader(body))
	}
	if err != nil {
		log.Fatalf("send postback: %v", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s\n%s\n", resp.Status, out)
}
