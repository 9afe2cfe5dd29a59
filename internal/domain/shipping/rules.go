package shipping

// Transport company codes as they appear on the ERP document's
// TransportCompanyDocumentaryAddress.
const (
	TransportCompanyUPSAir   = "UPSAIR"
	TransportCompanyDHL      = "DHLWORIAH"
	TransportCompanyFedExMem = "FEDEXMEM"
)

// emptyServiceLevelKey is the sentinel an empty or absent service level is
// normalized to before the mapping lookup.
const emptyServiceLevelKey = "<EMPTY>"

// serviceCodeTable maps transport company -> service level -> carrier
// service code.
var serviceCodeTable = map[string]map[string]string{
	TransportCompanyUPSAir: {
		"U1D":                "ups_next_day_air_saver",
		"U2D":                "ups_2nd_day_air",
		"U3D":                "ups_3_day_select",
		"UPS":                "ups_ground",
		"GRD":                "ups_ground",
		"STD":                "ups_ground",
		emptyServiceLevelKey: "ups_ground",
	},
	TransportCompanyDHL: {
		"STD": "UNKNOWN",
	},
	TransportCompanyFedExMem: {
		"STD":                "fedex_ground",
		emptyServiceLevelKey: "fedex_ground",
	},
}

// carrierIDTable maps transport company to the carrier account id. An
// unmapped company means the payload omits the field entirely.
var carrierIDTable = map[string]string{
	TransportCompanyUPSAir: "se-5840017",
}

// usTerritories are US territory state codes that certain carriers classify
// as domestic destinations.
var usTerritories = map[string]bool{
	"AS": true,
	"GU": true,
	"MP": true,
	"FM": true,
	"PR": true,
	"VI": true,
}

// ServiceCode resolves the carrier service code for a transport company and
// service level. An empty service level normalizes to the sentinel default
// key. Reports false when the pair is unmapped; never errors.
func ServiceCode(transportCompany, serviceLevel string) (string, bool) {
	levels, ok := serviceCodeTable[transportCompany]
	if !ok {
		return "", false
	}
	key := serviceLevel
	if key == "" {
		key = emptyServiceLevelKey
	}
	code, ok := levels[key]
	return code, ok
}

// CarrierID resolves the carrier account id for a transport company.
// Reports false when unmapped.
func CarrierID(transportCompany string) (string, bool) {
	id, ok := carrierIDTable[transportCompany]
	return id, ok
}

// SignatureConfirmation maps the document's IsSignatureRequired value to the
// carrier confirmation level. Only the literal string "true" requests a
// signature; anything else, including absence, is plain delivery.
func SignatureConfirmation(isSignatureRequired string) string {
	if isSignatureRequired == "true" {
		return "signature"
	}
	return "delivery"
}

// ResidentialIndicator maps the document's IsResidential value to the
// carrier's yes/no indicator. The rule is a double negative carried over
// from the upstream system: an absent or empty value and the literal string
// "false" yield "no"; any other value yields "yes". Downstream carrier
// behavior depends on this exact shape, so it is not simplified.
func ResidentialIndicator(isResidential string) string {
	if isResidential == "" || isResidential == "false" {
		return "no"
	}
	return "yes"
}

// CountryCodeOverride adjusts the ship-to country code for carriers that
// classify US territories as domestic destinations. UPS and FedEx want the
// territory code itself as the country; DHL wants a literal "US". Everyone
// else gets the document's country code unchanged. Pure function of its
// inputs, so applying it twice is a no-op.
func CountryCodeOverride(transportCompany, countryCode, stateProvince string) string {
	if !usTerritories[stateProvince] {
		return countryCode
	}
	switch transportCompany {
	case TransportCompanyUPSAir, TransportCompanyFedExMem:
		return stateProvince
	case TransportCompanyDHL:
		return "US"
	}
	return countryCode
}

// RequiresCustomsBlock reports whether the transport company is flagged
// international and must carry a customs declaration with per-line products.
func RequiresCustomsBlock(transportCompany string) bool {
	return transportCompany == TransportCompanyDHL
}
