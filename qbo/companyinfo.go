package qbo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// jsonDate is for encoding/decoding the plain dates QuickBooks uses
// for fields such as CompanyStartDate
type jsonDate struct {
	time.Time
}

const jsonDateFMT = "2006-01-02"

// UnmarshalJSON unmarshals from a yyyy-mm-dd date; null or an empty
// string leaves the zero time
func (d *jsonDate) UnmarshalJSON(buf []byte) error {
	s := strings.Trim(string(buf), `"`)
	if s == "" || s == "null" {
		return nil
	}
	tt, err := time.Parse(jsonDateFMT, s)
	if err != nil {
		return err
	}
	d.Time = tt
	return nil
}

// MarshalJSON marshals a jsonDate to a yyyy-mm-dd date string
func (d jsonDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(jsonDateFMT) + `"`), nil
}

// CompanyInfo is the subset of the QuickBooks CompanyInfo entity used
// to confirm a connection
type CompanyInfo struct {
	ID               string   `json:"Id"`
	CompanyName      string   `json:"CompanyName"`
	LegalName        string   `json:"LegalName"`
	Country          string   `json:"Country"`
	CompanyStartDate jsonDate `json:"CompanyStartDate"`
	Email            struct {
		Address string `json:"Address"`
	} `json:"Email"`
	MetaData struct {
		CreateTime      time.Time `json:"CreateTime"`
		LastUpdatedTime time.Time `json:"LastUpdatedTime"`
	} `json:"MetaData"`
}

type companyInfoResponse struct {
	CompanyInfo *CompanyInfo `json:"CompanyInfo"`
}

// CompanyInfoPath is the api path of the CompanyInfo entity of realmID
func CompanyInfoPath(realmID string) string {
	r := url.PathEscape(realmID)
	return fmt.Sprintf("v3/company/%s/companyinfo/%s", r, r)
}

// CompanyInfo retrieves the CompanyInfo of the company tok was issued
// for. A timeout of zero means DefaultAPITimeout.
func (c *Client) CompanyInfo(ctx context.Context, tok *Token, timeout time.Duration) (*CompanyInfo, error) {

	if tok == nil {
		return nil, &APICallError{Path: "companyinfo", Err: errors.New("no token")}
	}
	path := CompanyInfoPath(tok.RealmID)

	body, err := c.Get(ctx, tok, path, timeout)
	if err != nil {
		return nil, err
	}

	var results companyInfoResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &APICallError{Path: path, Err: fmt.Errorf("json decoding error: %w", err)}
	}
	if results.CompanyInfo == nil || results.CompanyInfo.CompanyName == "" {
		return nil, &APICallError{Path: path, Err: errors.New("no company name in response")}
	}
	return results.CompanyInfo, nil
}
