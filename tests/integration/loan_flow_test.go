package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestPersonalLoanLifecycle(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "borrower@example.com")

	// Preview before committing: a zero-rate loan splits evenly.
	rec := app.request("POST", "/api/v1/loans/quote",
		`{"principal":100000,"annual_rate_percent":0,"interest_type":"simple","frequency":"monthly","installment_count":10}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("quote failed: %d %s", rec.Code, rec.Body.String())
	}
	quote := parseJSON(t, rec)["quote"].(map[string]interface{})
	if quote["total_interest"] != float64(0) {
		t.Errorf("expected zero interest, got %v", quote["total_interest"])
	}
	if quote["repayment_amount"] != float64(10000) {
		t.Errorf("expected repayment 10000, got %v", quote["repayment_amount"])
	}
	schedule := quote["schedule"].([]interface{})
	if len(schedule) != 10 {
		t.Fatalf("expected 10 installments in preview, got %d", len(schedule))
	}

	// Fund a loan within the starter ceiling.
	rec = app.request("POST", "/api/v1/loans",
		`{"principal":4000,"interest_type":"simple","frequency":"monthly","installment_count":4,"lender_type":"personal"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create loan failed: %d %s", rec.Code, rec.Body.String())
	}
	loan := parseJSON(t, rec)["loan"].(map[string]interface{})
	loanID := loan["id"].(float64)
	if loan["status"] != "active" {
		t.Errorf("expected active loan, got %v", loan["status"])
	}
	if loan["reference"] == "" || loan["reference"] == nil {
		t.Error("expected a loan reference")
	}

	// The loan shows up in the borrower's list.
	rec = app.request("GET", "/api/v1/loans", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list loans failed: %d", rec.Code)
	}
	if parseJSON(t, rec)["total_items"] != float64(1) {
		t.Error("expected one loan in the list")
	}

	// Pay it off; the last payment completes the loan.
	last := app.payAll(t, token, loanID, 4)
	paid := last["loan"].(map[string]interface{})
	if paid["status"] != "completed" {
		t.Errorf("expected completed after final payment, got %v", paid["status"])
	}

	// Completion advances the global ladder.
	rec = app.request("GET", "/api/v1/profile", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile failed: %d", rec.Code)
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["completed_loan_count"] != float64(1) {
		t.Errorf("expected completed_loan_count 1, got %v", user["completed_loan_count"])
	}
}

func TestPersonalCeilingEnforced(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "capped@example.com")

	rec := app.request("POST", "/api/v1/loans",
		`{"principal":7500,"interest_type":"simple","frequency":"monthly","installment_count":4,"lender_type":"personal"}`, token)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "AMOUNT_EXCEEDS_LIMIT" {
		t.Errorf("expected AMOUNT_EXCEEDS_LIMIT, got %v", errObj["code"])
	}
	details := errObj["details"].(map[string]interface{})
	if details["ceiling"] != float64(5000) {
		t.Errorf("expected starter ceiling 5000 in details, got %v", details["ceiling"])
	}
}

func TestDoublePaymentRejected(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "payer@example.com")

	rec := app.request("POST", "/api/v1/loans",
		`{"principal":3000,"interest_type":"simple","frequency":"weekly","installment_count":3,"lender_type":"personal"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create loan failed: %d %s", rec.Code, rec.Body.String())
	}
	loanID := parseJSON(t, rec)["loan"].(map[string]interface{})["id"].(float64)

	path := fmt.Sprintf("/api/v1/loans/%.0f/installments/1/pay", loanID)
	if rec = app.request("POST", path, "", token); rec.Code != http.StatusOK {
		t.Fatalf("first payment failed: %d %s", rec.Code, rec.Body.String())
	}
	if rec = app.request("POST", path, "", token); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double payment, got %d", rec.Code)
	}
}

func TestScheduleAdvisorModes(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "advised@example.com")

	// Without a financial profile the advisor falls back to presets.
	rec := app.request("POST", "/api/v1/loans/suggest", `{"amount":10000}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("suggest failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["mode"] != "preset" {
		t.Errorf("expected preset mode without a profile, got %v", result["mode"])
	}
	if len(result["presets"].([]interface{})) == 0 {
		t.Error("expected preset options")
	}

	// Storing an income profile switches the advisor to income-based suggestions.
	rec = app.request("PUT", "/api/v1/profile/financial",
		`{"pay_frequency":"biweekly","monthly_income":500000,"monthly_expenses":350000,"comfort_level":"balanced"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile upsert failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/loans/suggest", `{"amount":10000}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("suggest failed: %d %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	if result["mode"] != "income" {
		t.Errorf("expected income mode with a profile, got %v", result["mode"])
	}
	suggestions := result["suggestions"].([]interface{})
	if len(suggestions) != 3 {
		t.Fatalf("expected one suggestion per comfort level, got %d", len(suggestions))
	}
}

func TestLoansAreBorrowerScoped(t *testing.T) {
	app := setupApp(t)
	ownerToken, _ := app.registerUser(t, "owner@example.com")
	otherToken, _ := app.registerUser(t, "other@example.com")

	rec := app.request("POST", "/api/v1/loans",
		`{"principal":2000,"interest_type":"simple","frequency":"monthly","installment_count":2,"lender_type":"personal"}`, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create loan failed: %d %s", rec.Code, rec.Body.String())
	}
	loanID := parseJSON(t, rec)["loan"].(map[string]interface{})["id"].(float64)

	rec = app.request("GET", fmt.Sprintf("/api/v1/loans/%.0f", loanID), "", otherToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another borrower's loan, got %d", rec.Code)
	}
}
