package qbo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// CompanyInfo example from the Intuit api explorer
var companyInfoString = `
{
  "CompanyInfo": {
    "CompanyName": "Sandbox Company_US_1",
    "LegalName": "Sandbox Company_US_1",
    "CompanyAddr": {
      "Id": "1",
      "Line1": "123 Sierra Way",
      "City": "San Pablo",
      "Country": "US",
      "CountrySubDivisionCode": "CA",
      "PostalCode": "87999"
    },
    "CustomerCommunicationAddr": {
      "Id": "1",
      "Line1": "123 Sierra Way",
      "City": "San Pablo",
      "CountrySubDivisionCode": "CA",
      "PostalCode": "87999"
    },
    "PrimaryPhone": {},
    "CompanyStartDate": "2024-11-25",
    "FiscalYearStartMonth": "January",
    "Country": "US",
    "Email": {
      "Address": "noreply@quickbooks.com"
    },
    "WebAddr": {},
    "SupportedLanguages": "en",
    "NameValue": [
      {"Name": "NeoEnabled", "Value": "true"},
      {"Name": "IndustryType", "Value": "Accounting"}
    ],
    "domain": "QBO",
    "sparse": false,
    "Id": "1",
    "SyncToken": "4",
    "MetaData": {
      "CreateTime": "2024-11-25T16:04:07-08:00",
      "LastUpdatedTime": "2024-12-02T13:20:35-08:00"
    }
  },
  "time": "2024-12-09T09:35:13.233-08:00"
}
`

func testToken(access, realm string) *Token {
	return &Token{
		Token: &oauth2.Token{
			AccessToken:  access,
			RefreshToken: "refresh-" + access,
			TokenType:    "bearer",
			Expiry:       time.Now().Add(time.Hour),
		},
		RealmID: realm,
	}
}

func TestCompanyInfoDecode(t *testing.T) {

	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(companyInfoString))
	}))
	defer server.Close()

	client := initClient(t, "", server.URL)
	info, err := client.CompanyInfo(context.Background(), testToken("abc", "9130355"), 0)
	if err != nil {
		t.Fatalf("company info extraction error : %s", err)
	}
	if path != "/v3/company/9130355/companyinfo/9130355" {
		t.Errorf("path unexpected %s", path)
	}
	if info.CompanyName != "Sandbox Company_US_1" {
		t.Errorf("company name unexpected %s", info.CompanyName)
	}
	if info.Email.Address != "noreply@quickbooks.com" {
		t.Errorf("email unexpected %s", info.Email.Address)
	}
	if got := info.CompanyStartDate.Format("2006-01-02"); got != "2024-11-25" {
		t.Errorf("start date unexpected %s", got)
	}
	if info.MetaData.CreateTime.IsZero() {
		t.Error("create time not decoded")
	}
}

func TestCompanyInfoDecodeHTTPFail(t *testing.T) {
	server := tokenServer(t, http.StatusUnauthorized, `{"fault": {"error": [{"code": "3200"}]}}`)
	client := initClient(t, "", server.URL)

	_, err := client.CompanyInfo(context.Background(), testToken("abc", "1"), 0)
	var ae *APICallError
	if !errors.As(err, &ae) {
		t.Fatalf("expected APICallError, got %v", err)
	}
}

func TestCompanyInfoDecodeFail(t *testing.T) {
	server := tokenServer(t, http.StatusOK, "")
	client := initClient(t, "", server.URL)

	_, err := client.CompanyInfo(context.Background(), testToken("abc", "1"), 0)
	if err == nil || !strings.Contains(err.Error(), "unexpected end of JSON input") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestCompanyInfoNoName(t *testing.T) {
	server := tokenServer(t, http.StatusOK, `{"CompanyInfo": {"Id": "1"}}`)
	client := initClient(t, "", server.URL)

	_, err := client.CompanyInfo(context.Background(), testToken("abc", "1"), 0)
	if err == nil || !strings.Contains(err.Error(), "no company name in response") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestCompanyInfoPathEscape(t *testing.T) {
	if got := CompanyInfoPath("12/34"); got != "v3/company/12%2F34/companyinfo/12%2F34" {
		t.Errorf("path unexpected %s", got)
	}
}

func TestJSONDate(t *testing.T) {
	var d jsonDate
	if err := d.UnmarshalJSON([]byte(`null`)); err != nil || !d.IsZero() {
		t.Errorf("null should decode to the zero time: %v %v", d, err)
	}
	if err := d.UnmarshalJSON([]byte(`"2021-03-04"`)); err != nil {
		t.Fatal(err)
	}
	b, _ := d.MarshalJSON()
	if string(b) != `"2021-03-04"` {
		t.Errorf("marshal unexpected %s", b)
	}
	if err := d.UnmarshalJSON([]byte(`"04/03/2021"`)); err == nil {
		t.Error("expected a parse error")
	}
}
