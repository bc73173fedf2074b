package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

// TestFullPatientFlow walks the happy path end to end: register, start a
// visit, record vitals, consult with a lab test, pay everything, discharge.
func TestFullPatientFlow(t *testing.T) {
	tag := uniqueTag("smoke")

	reg := request(t, http.MethodPost, "/api/v1/registration", map[string]interface{}{
		"rfid_tag":  tag,
		"full_name": "Smoke Test Patient",
		"phone":     "555-0100",
	})
	if reg.StatusCode != http.StatusCreated {
		t.Fatalf("registration returned %d", reg.StatusCode)
	}

	wallet := request(t, http.MethodGet, "/api/v1/wallet/rfid/"+tag, nil)
	var w struct {
		Balance json.Number `json:"balance"`
	}
	decodeData(t, wallet, &w)
	if got, _ := w.Balance.Float64(); got != 1000 {
		t.Fatalf("expected seeded balance 1000, got %s", w.Balance)
	}

	start := request(t, http.MethodPost, "/api/v1/visits/start", map[string]interface{}{
		"rfid_tag":   tag,
		"department": "CARDIOLOGY",
	})
	if start.StatusCode != http.StatusCreated {
		t.Fatalf("visit start returned %d", start.StatusCode)
	}
	var visit struct {
		ID string `json:"id"`
	}
	decodeData(t, start, &visit)

	vitals := request(t, http.MethodPost, "/api/v1/visits/"+visit.ID+"/vitals", map[string]interface{}{
		"temperature_celsius": 37.2,
		"bp_systolic":         120,
		"bp_diastolic":        80,
		"heart_rate":          72,
	})
	if vitals.StatusCode != http.StatusOK {
		t.Fatalf("vitals returned %d", vitals.StatusCode)
	}

	consult := request(t, http.MethodPost, "/api/v1/visits/"+visit.ID+"/consultation", map[string]interface{}{
		"diagnosis":    "Routine checkup",
		"medications":  "None",
		"tests_needed": false,
	})
	if consult.StatusCode != http.StatusOK {
		t.Fatalf("consultation returned %d", consult.StatusCode)
	}

	bills := request(t, http.MethodGet, "/api/v1/billing/visit/"+visit.ID, nil)
	var lines []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, bills, &lines)
	if len(lines) != 1 {
		t.Fatalf("expected one billing line, got %d", len(lines))
	}

	pay := request(t, http.MethodPost, "/api/v1/billing/pay", map[string]interface{}{
		"rfid_tag":   tag,
		"billing_id": lines[0].ID,
	})
	if pay.StatusCode != http.StatusOK {
		t.Fatalf("payment returned %d", pay.StatusCode)
	}

	summary := request(t, http.MethodGet, "/api/v1/visits/"+visit.ID+"/summary", nil)
	var s struct {
		Status  string `json:"status"`
		Billing struct {
			FullyPaid bool `json:"fully_paid"`
		} `json:"billing"`
	}
	decodeData(t, summary, &s)
	if s.Status != "COMPLETED" {
		t.Fatalf("expected visit auto-completed after full payment, got %s", s.Status)
	}
	if !s.Billing.FullyPaid {
		t.Fatal("expected billing fully paid")
	}
}

func TestRegistrationIsIdempotent(t *testing.T) {
	tag := uniqueTag("idem")

	first := request(t, http.MethodPost, "/api/v1/registration", map[string]interface{}{
		"rfid_tag":  tag,
		"full_name": "Original Name",
	})
	second := request(t, http.MethodPost, "/api/v1/registration", map[string]interface{}{
		"rfid_tag":  tag,
		"full_name": "Different Name",
	})

	var a, b struct {
		ID       string `json:"id"`
		FullName string `json:"full_name"`
	}
	decodeData(t, first, &a)
	decodeData(t, second, &b)

	if a.ID != b.ID {
		t.Fatalf("expected same patient, got %s and %s", a.ID, b.ID)
	}
	if b.FullName != "Original Name" {
		t.Fatalf("re-registration must not update fields, got %s", b.FullName)
	}
}
