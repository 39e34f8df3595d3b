// Package businessinfo validates and normalizes the account holder's name and
// address extracted from a statement.
package businessinfo

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

const (
	minNameLen    = 2
	maxNameLen    = 100
	minAddressLen = 5
	maxAddressLen = 200
)

// Names that show the extractor picked up the bank instead of its customer.
var bankNames = []string{
	"bank of america", "chase", "wells fargo", "citibank", "capital one",
	"jpmorgan", "us bank", "pnc bank", "td bank", "bank", "credit union",
	"first national", "regions bank", "suntrust", "bbt", "fifth third",
	"citizens bank", "key bank", "huntington", "santander", "ally bank",
}

var addressTerms = []string{
	"street", "st", "avenue", "ave", "road", "rd", "drive", "dr",
	"lane", "ln", "blvd", "boulevard", "way", "court", "ct", "circle", "cir",
	"terrace", "ter", "place", "pl", "highway", "hwy", "parkway", "pkwy",
	"suite", "ste", "unit", "apt", "apartment", "floor", "fl",
}

var bankAddressIndicators = []string{
	"branch location", "atm location", "bank address", "branch address",
	"bank headquarters", "corporate headquarters", "main office",
}

var states = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
	"Connecticut", "Delaware", "Florida", "Georgia", "Hawaii", "Idaho",
	"Illinois", "Indiana", "Iowa", "Kansas", "Kentucky", "Louisiana",
	"Maine", "Maryland", "Massachusetts", "Michigan", "Minnesota",
	"Mississippi", "Missouri", "Montana", "Nebraska", "Nevada",
	"New Hampshire", "New Jersey", "New Mexico", "New York",
	"North Carolina", "North Dakota", "Ohio", "Oklahoma", "Oregon",
	"Pennsylvania", "Rhode Island", "South Carolina", "South Dakota",
	"Tennessee", "Texas", "Utah", "Vermont", "Virginia", "Washington",
	"West Virginia", "Wisconsin", "Wyoming",
}

var (
	bankNameMatcher    = ahocorasick.NewStringMatcher(bankNames)
	addressTermMatcher = ahocorasick.NewStringMatcher(addressTerms)
	bankAddressMatcher = ahocorasick.NewStringMatcher(bankAddressIndicators)
	symbolsOnly        = regexp.MustCompile(`^[^\p{L}]+$`)
	digit              = regexp.MustCompile(`\d`)
	zipCode            = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	addressPunctuation = strings.NewReplacer(",", " ", ".", " ", ";", " ", "\n", " ")
	paddedStates       = padStates()
)

func padStates() []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = " " + strings.ToLower(s) + " "
	}
	return out
}

func matches(m *ahocorasick.Matcher, s string) bool {
	return len(m.Match([]byte(strings.ToLower(s)))) > 0
}

// ValidateName checks that name looks like a business name. The reason is
// empty when valid.
func ValidateName(name string) (bool, string) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return false, "Business name is empty"
	case len([]rune(name)) < minNameLen:
		return false, "Business name is too short"
	case len([]rune(name)) > maxNameLen:
		return false, "Business name is unreasonably long"
	case symbolsOnly.MatchString(name):
		return false, "Business name contains only numbers or special characters"
	case matches(bankNameMatcher, name):
		return false, "Extracted name appears to be a bank name, not a business name"
	}
	return true, ""
}

// ValidateAddress checks that addr looks like a street address. The reason is
// empty when valid.
func ValidateAddress(addr model.Address) (bool, string) {
	s := addr.String()
	switch {
	case s == "":
		return false, "Address is empty"
	case len([]rune(s)) < minAddressLen:
		return false, "Address is too short"
	case len([]rune(s)) > maxAddressLen:
		return false, "Address is unreasonably long"
	case matches(bankAddressMatcher, s):
		return false, "Address appears to be a bank address, not a business address"
	case !digit.MatchString(s):
		return false, "Address doesn't contain any numbers"
	}

	if !matches(addressTermMatcher, s) && !hasState(s) && !zipCode.MatchString(s) {
		return false, "Address doesn't appear to contain standard address elements"
	}
	return true, ""
}

func hasState(s string) bool {
	words := strings.Fields(strings.ToLower(addressPunctuation.Replace(s)))
	padded := " " + strings.Join(words, " ") + " "
	for _, st := range paddedStates {
		if strings.Contains(padded, st) {
			return true
		}
	}
	return false
}

// FormatAddress returns a copy with street and city in title case and state,
// zip and country upper-cased.
func FormatAddress(addr model.Address) model.Address {
	title := cases.Title(language.English)
	return model.Address{
		Street:  title.String(strings.TrimSpace(addr.Street)),
		City:    title.String(strings.TrimSpace(addr.City)),
		State:   strings.ToUpper(strings.TrimSpace(addr.State)),
		Zip:     strings.ToUpper(strings.TrimSpace(addr.Zip)),
		Country: strings.ToUpper(strings.TrimSpace(addr.Country)),
	}
}

// ExtractZip returns the first US ZIP code in s, or "".
func ExtractZip(s string) string {
	return zipCode.FindString(s)
}

// Result is the validated business info.
type Result struct {
	Name          string
	NameValid     bool
	NameReason    string
	Address       model.Address
	AddressValid  bool
	AddressReason string
	Zip           string
}

// Valid reports whether both name and address passed validation.
func (r Result) Valid() bool {
	return r.NameValid && r.AddressValid
}

// Reason returns the first validation failure, or "".
func (r Result) Reason() string {
	if !r.NameValid {
		return r.NameReason
	}
	if !r.AddressValid {
		return r.AddressReason
	}
	return ""
}

// Info returns the checked business info.
func (r Result) Info() model.BusinessInfo {
	return model.BusinessInfo{Name: r.Name, Address: r.Address}
}

// Check validates info and formats the address when it is valid.
func Check(info model.BusinessInfo) Result {
	nameOK, nameReason := ValidateName(info.Name)
	addrOK, addrReason := ValidateAddress(info.Address)

	addr := info.Address
	if addrOK {
		addr = FormatAddress(addr)
	}

	zip := strings.TrimSpace(addr.Zip)
	if zip == "" {
		zip = ExtractZip(addr.String())
	}

	return Result{
		Name:          strings.TrimSpace(info.Name),
		NameValid:     nameOK,
		NameReason:    nameReason,
		Address:       addr,
		AddressValid:  addrOK,
		AddressReason: addrReason,
		Zip:           zip,
	}
}
