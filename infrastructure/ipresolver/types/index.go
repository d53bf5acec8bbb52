package types

type IPResolver interface {
	LookUp(ipAddress string) (*IPResult, error)
}

type IPResult struct {
	AccuracyRadius int     `json:"accuracyRadius"`
	IPAddress      string  `json:"ipAddress"`
	Longitude      float64 `json:"longitude"`
	Latitude       float64 `json:"latitude"`
	City           string  `json:"city"`
	CountryCode    string  `json:"countryCode"`
}

// Location renders the result as "City, CC" for audit records.
func (r *IPResult) Location() *string {
	var location string
	switch {
	case r.City != "" && r.CountryCode != "":
		location = r.City + ", " + r.CountryCode
	case r.CountryCode != "":
		location = r.CountryCode
	default:
		return nil
	}
	return &location
}
