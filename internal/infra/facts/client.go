package facts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microloan-ai/risk-api/internal/domain/loans"
)

// Client resolves loan facts from the core-banking credit service. The
// service exposes a POST search endpoint authorized with a bearer token.
type Client struct {
	BaseURL string
	UDFPath string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, udfPath, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		UDFPath: udfPath,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type searchRequest struct {
	Params     map[string]interface{} `json:"params"`
	PageSize   int                    `json:"pageSize"`
	PageNumber int                    `json:"pageNumber"`
}

type searchResponse struct {
	ResultsLoans []loanRecord `json:"resultsLoans"`
}

type loanRecord struct {
	LoanID            json.Number `json:"loanId"`
	IDLoanExtern      string      `json:"idLoanExtern"`
	LoanReasonCode    string      `json:"loanReasonCode"`
	IndustryCode      string      `json:"industryCode"`
	BranchDescription string      `json:"branchDescription"`
	ApprovelAmount    float64     `json:"approvelAmount"`
	PersonalContrib   float64     `json:"personalContribution"`
	TotalInterest     float64     `json:"totalInterest"`
	NormalPayment     float64     `json:"normalPayment"`
	APR               float64     `json:"apr"`
	ProductRate       float64     `json:"productRate"`
	TermPeriodNum     int         `json:"termPeriodNum"`
	CurrencySymbol    string      `json:"currencySymbol"`
	Customer          customerDTO `json:"customerDTO"`
}

type customerDTO struct {
	ID              json.Number `json:"id"`
	CustomerName    string      `json:"customerName"`
	CustomerType    string      `json:"customerType"`
	CustomerAddress string      `json:"customerAddress"`
	Gender          string      `json:"gender"`
	MaritalStatus   string      `json:"maritalStatus"`
}

type udfGroup struct {
	GroupName string     `json:"userDefinedFieldGroupName"`
	Fields    []udfField `json:"udfGroupeFieldsModels"`
}

type udfField struct {
	FieldName string `json:"fieldName"`
	Value     string `json:"value"`
}

// udfCategories maps the core-banking UDF field names onto rule categories.
var udfCategories = map[string]string{
	"Type d'activité":    "Type d'activité",
	"Niveau d'étude":     "Niveau d'étude",
	"Type Logement":      "Type de logement",
	"Couverture sociale": "Couverture sociale",
	"Patenté":            "Patenté",
	"Résident":           "Résident",
}

// GetLoanFacts searches for one active loan by loan_id or external_id, pulls
// the customer's user-defined fields, and maps both onto the attribute keys
// the rule table scores against. An empty search result is loans.ErrNotFound.
func (c *Client) GetLoanFacts(ctx context.Context, loanID, externalID string) (*loans.LoanFacts, error) {
	req := searchRequest{
		Params:     map[string]interface{}{"parentId": 0, "statut": "4"},
		PageSize:   10,
		PageNumber: 0,
	}
	if loanID != "" {
		req.Params["loanId"] = loanID
	}
	if externalID != "" {
		req.Params["idLoanExtern"] = externalID
	}

	var resp searchResponse
	if err := c.post(ctx, c.BaseURL, req, &resp); err != nil {
		return nil, fmt.Errorf("searching loan: %w", err)
	}
	if len(resp.ResultsLoans) == 0 {
		return nil, fmt.Errorf("loan %s%s: %w", loanID, externalID, loans.ErrNotFound)
	}
	rec := resp.ResultsLoans[0]

	facts := &loans.LoanFacts{
		LoanID:       firstNonEmpty(loanID, rec.LoanID.String()),
		ExternalID:   firstNonEmpty(externalID, rec.IDLoanExtern),
		CustomerName: strings.ReplaceAll(rec.Customer.CustomerName, "|||", " "),
		Attributes: map[string]string{
			"Forme Juridique du B.EFFECTIF": rec.Customer.CustomerType,
			"Raison de financement":         rec.LoanReasonCode,
			"Genre":                         rec.Customer.Gender,
			"Situation familiale":           rec.Customer.MaritalStatus,
			"Région":                        rec.BranchDescription + " " + rec.Customer.CustomerAddress,
			"Secteur d'activité":            rec.IndustryCode,
		},
		Metrics: map[string]float64{},
		Financials: loans.Financials{
			LoanAmount:           rec.ApprovelAmount,
			PersonalContribution: rec.PersonalContrib,
			TotalInterest:        rec.TotalInterest,
			MonthlyPayment:       rec.NormalPayment,
			APR:                  rec.APR,
			InterestRate:         rec.ProductRate,
			TermMonths:           rec.TermPeriodNum,
			Currency:             firstNonEmpty(rec.CurrencySymbol, "TND"),
		},
	}
	if rec.ApprovelAmount > 0 && rec.NormalPayment > 0 {
		facts.Metrics["Monthly Payment"] = rec.NormalPayment
	}

	// UDF fetch is best effort: a loan without customer UDFs still scores on
	// its standard fields.
	if c.UDFPath != "" && rec.Customer.ID.String() != "" {
		if groups, err := c.fetchUDF(ctx, rec.Customer.ID.String()); err == nil {
			for _, g := range groups {
				for _, f := range g.Fields {
					if cat, ok := udfCategories[f.FieldName]; ok && f.Value != "" {
						facts.Attributes[cat] = f.Value
					}
				}
			}
		}
	}

	return facts, nil
}

func (c *Client) fetchUDF(ctx context.Context, customerID string) ([]udfGroup, error) {
	req := map[string]string{"elementId": customerID, "category": "CUSTOMER"}
	var groups []udfGroup
	if err := c.post(ctx, c.UDFPath, req, &groups); err != nil {
		return nil, fmt.Errorf("fetching udf data: %w", err)
	}
	return groups, nil
}

func (c *Client) post(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
