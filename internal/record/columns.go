// Package record turns raw CSV records into typed, validated rows for each
// graph entity and relationship. It is the only package that knows the source
// column names.
package record

import "fmt"

// Source columns of the Companies House BasicCompanyData product, as they
// appear after header normalization.
const (
	ColCompanyName     = "CompanyName"
	ColCompanyNumber   = "CompanyNumber"
	ColCareOf          = "RegAddress.CareOf"
	ColPOBox           = "RegAddress.POBox"
	ColAddressLine1    = "RegAddress.AddressLine1"
	ColAddressLine2    = "RegAddress.AddressLine2"
	ColPostTown        = "RegAddress.PostTown"
	ColCounty          = "RegAddress.County"
	ColAddressCountry  = "RegAddress.Country"
	ColPostCode        = "RegAddress.PostCode"
	ColCategory        = "CompanyCategory"
	ColStatus          = "CompanyStatus"
	ColCountryOfOrigin = "CountryOfOrigin"
	ColDissolution     = "DissolutionDate"
	ColIncorporation   = "IncorporationDate"
	ColAccountRefDay   = "Accounts.AccountRefDay"
	ColAccountRefMonth = "Accounts.AccountRefMonth"
	ColAccountCategory = "Accounts.AccountCategory"
	ColNumMortCharges  = "Mortgages.NumMortCharges"
	ColNumMortOutst    = "Mortgages.NumMortOutstanding"
	ColNumMortSatisf   = "Mortgages.NumMortSatisfied"
	ColNumGenPartners  = "LimitedPartnerships.NumGenPartners"
	ColNumLimPartners  = "LimitedPartnerships.NumLimPartners"
	ColURI             = "URI"
)

const (
	// ClassificationSlots is the number of SICCode.SicText_N columns.
	ClassificationSlots = 4
	// PreviousNameSlots is the number of PreviousName_N column pairs.
	PreviousNameSlots = 10
)

// ClassificationColumn returns the column of classification slot n (1-based).
func ClassificationColumn(n int) string { return fmt.Sprintf("SICCode.SicText_%d", n) }

// PreviousNameColumn returns the name column of history slot n (1-based).
func PreviousNameColumn(n int) string { return fmt.Sprintf("PreviousName_%d.CompanyName", n) }

// PreviousNameDateColumn returns the change-date column of history slot n (1-based).
func PreviousNameDateColumn(n int) string { return fmt.Sprintf("PreviousName_%d.CONDATE", n) }
