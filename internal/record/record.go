package record

import (
	"graphetl/internal/normalize"
	csvparser "graphetl/internal/parser/csv"
)

// Row is the parameter map handed to the graph store for one UNWIND element.
type Row = map[string]any

// CompanyNumber returns the cleaned primary key of r. Every loader checks it
// first: rows without one are inadmissible everywhere.
func CompanyNumber(r csvparser.Record) (string, bool) {
	return normalize.CleanString(r.Get(ColCompanyNumber))
}

// Company is one primary-entity row. Empty strings and nil counters are absent.
type Company struct {
	Number            string
	Name              string
	Category          string
	Status            string
	CountryOfOrigin   string
	IncorporationDate string // YYYY-MM-DD
	DissolutionDate   string // YYYY-MM-DD
	URI               string
	AccountRefDay     string
	AccountRefMonth   string
	AccountsCategory  string

	NumMortCharges     *int64
	NumMortOutstanding *int64
	NumMortSatisfied   *int64
	NumGenPartners     *int64
	NumLimPartners     *int64
}

// CompanyFrom builds a Company from r. ok is false when the company number is absent.
func CompanyFrom(r csvparser.Record) (Company, bool) {
	num, ok := CompanyNumber(r)
	if !ok {
		return Company{}, false
	}
	return Company{
		Number:            num,
		Name:              clean(r.Get(ColCompanyName)),
		Category:          clean(r.Get(ColCategory)),
		Status:            clean(r.Get(ColStatus)),
		CountryOfOrigin:   clean(r.Get(ColCountryOfOrigin)),
		IncorporationDate: date(r.Get(ColIncorporation)),
		DissolutionDate:   date(r.Get(ColDissolution)),
		URI:               clean(r.Get(ColURI)),
		AccountRefDay:     clean(r.Get(ColAccountRefDay)),
		AccountRefMonth:   clean(r.Get(ColAccountRefMonth)),
		AccountsCategory:  clean(r.Get(ColAccountCategory)),

		NumMortCharges:     count(r.Get(ColNumMortCharges)),
		NumMortOutstanding: count(r.Get(ColNumMortOutst)),
		NumMortSatisfied:   count(r.Get(ColNumMortSatisf)),
		NumGenPartners:     count(r.Get(ColNumGenPartners)),
		NumLimPartners:     count(r.Get(ColNumLimPartners)),
	}, true
}

func (c Company) Params() Row {
	return Row{
		"companyNumber":      c.Number,
		"name":               nullable(c.Name),
		"category":           nullable(c.Category),
		"status":             nullable(c.Status),
		"countryOfOrigin":    nullable(c.CountryOfOrigin),
		"incorporationDate":  nullable(c.IncorporationDate),
		"dissolutionDate":    nullable(c.DissolutionDate),
		"uri":                nullable(c.URI),
		"accountRefDay":      nullable(c.AccountRefDay),
		"accountRefMonth":    nullable(c.AccountRefMonth),
		"accountsCategory":   nullable(c.AccountsCategory),
		"numMortCharges":     nullableInt(c.NumMortCharges),
		"numMortOutstanding": nullableInt(c.NumMortOutstanding),
		"numMortSatisfied":   nullableInt(c.NumMortSatisfied),
		"numGenPartners":     nullableInt(c.NumGenPartners),
		"numLimPartners":     nullableInt(c.NumLimPartners),
	}
}

// Address is a registered-office address owned by CompanyNumber.
type Address struct {
	CompanyNumber string
	Line1         string
	Line2         string
	PostTown      string
	County        string
	Country       string
	PostCode      string
	CareOf        string
	POBox         string
}

// AddressFrom builds the address of the company identified by number.
// ok is false unless line 1, post town and post code are all present.
func AddressFrom(r csvparser.Record, number string) (Address, bool) {
	a := Address{
		CompanyNumber: number,
		Line1:         clean(r.Get(ColAddressLine1)),
		Line2:         clean(r.Get(ColAddressLine2)),
		PostTown:      clean(r.Get(ColPostTown)),
		County:        clean(r.Get(ColCounty)),
		Country:       clean(r.Get(ColAddressCountry)),
		PostCode:      clean(r.Get(ColPostCode)),
		CareOf:        clean(r.Get(ColCareOf)),
		POBox:         clean(r.Get(ColPOBox)),
	}
	if a.Line1 == "" || a.PostTown == "" || a.PostCode == "" {
		return Address{}, false
	}
	return a, true
}

// Params carries both the node attributes and the owning company number.
func (a Address) Params() Row {
	return Row{
		"companyNumber": a.CompanyNumber,
		"addressLine1":  a.Line1,
		"addressLine2":  nullable(a.Line2),
		"postTown":      a.PostTown,
		"county":        nullable(a.County),
		"country":       nullable(a.Country),
		"postCode":      a.PostCode,
		"careOf":        nullable(a.CareOf),
		"poBox":         nullable(a.POBox),
	}
}

// AddressKey lists the parameter names forming the Address node key.
var AddressKey = []string{"addressLine1", "postTown", "postCode"}

// Country is a lookup entity keyed by the raw country text.
type Country struct {
	Name string
	Code string
}

// NewCountry derives the code for name. name must already be cleaned.
func NewCountry(name string) Country {
	code, _ := normalize.CountryCode(name)
	return Country{Name: name, Code: code}
}

func (c Country) Params() Row {
	return Row{"name": c.Name, "code": nullable(c.Code)}
}

// CountryNames returns the cleaned, non-empty country values of r: country
// of origin first, then the address country. Duplicates are not removed.
func CountryNames(r csvparser.Record) []string {
	var out []string
	for _, col := range [...]string{ColCountryOfOrigin, ColAddressCountry} {
		if s, ok := normalize.CleanString(r.Get(col)); ok {
			out = append(out, s)
		}
	}
	return out
}

// ClassificationCode is a lookup entity keyed by its numeric code.
type ClassificationCode struct {
	Code        string
	Description string
}

func (c ClassificationCode) Params() Row {
	return Row{"code": c.Code, "description": nullable(c.Description)}
}

// ClassificationCodes returns the parseable codes of r in slot order.
func ClassificationCodes(r csvparser.Record) []ClassificationCode {
	var out []ClassificationCode
	for n := 1; n <= ClassificationSlots; n++ {
		code, desc, ok := normalize.ParseClassificationCode(r.Get(ClassificationColumn(n)))
		if ok {
			out = append(out, ClassificationCode{Code: code, Description: desc})
		}
	}
	return out
}

// Classification links a company to a code at rank 1..ClassificationSlots.
type Classification struct {
	CompanyNumber string
	Code          string
	Rank          int
}

// ClassificationsFrom returns one Classification per populated slot. The
// rank is the slot number, so gaps are preserved.
func ClassificationsFrom(r csvparser.Record, number string) []Classification {
	var out []Classification
	for n := 1; n <= ClassificationSlots; n++ {
		code, _, ok := normalize.ParseClassificationCode(r.Get(ClassificationColumn(n)))
		if ok {
			out = append(out, Classification{CompanyNumber: number, Code: code, Rank: n})
		}
	}
	return out
}

func (c Classification) Params() Row {
	return Row{"companyNumber": c.CompanyNumber, "sicCode": c.Code, "rank": int64(c.Rank)}
}

// PreviousName is one former name of a company at sequence 1..PreviousNameSlots.
type PreviousName struct {
	CompanyNumber string
	Name          string
	ChangeDate    string // YYYY-MM-DD or empty
	Sequence      int
}

// PreviousNamesFrom returns the populated history slots of r. A slot without
// a name is skipped; a missing or invalid date leaves ChangeDate empty.
func PreviousNamesFrom(r csvparser.Record, number string) []PreviousName {
	var out []PreviousName
	for n := 1; n <= PreviousNameSlots; n++ {
		name, ok := normalize.CleanString(r.Get(PreviousNameColumn(n)))
		if !ok {
			continue
		}
		out = append(out, PreviousName{
			CompanyNumber: number,
			Name:          name,
			ChangeDate:    date(r.Get(PreviousNameDateColumn(n))),
			Sequence:      n,
		})
	}
	return out
}

func (p PreviousName) Params() Row {
	return Row{
		"companyNumber": p.CompanyNumber,
		"previousName":  p.Name,
		"changeDate":    nullable(p.ChangeDate),
		"sequence":      int64(p.Sequence),
	}
}

func clean(s string) string {
	v, _ := normalize.CleanString(s)
	return v
}

func date(s string) string {
	v, _ := normalize.ParseDate(s)
	return v
}

func count(s string) *int64 {
	n, ok := normalize.ParseCount(s)
	if !ok {
		return nil
	}
	return &n
}

// nullable maps the empty string to a Cypher null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}
