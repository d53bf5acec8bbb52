package useragent

import "github.com/mileusna/useragent"

type UserAgent struct {
	Bot       bool
	OS        string
	OSVersion string
	Device    string
	Name      string
}

func ParseUserAgent(userAgent string) *UserAgent {
	parsed := useragent.Parse(userAgent)
	return &UserAgent{
		Bot:       parsed.Bot,
		OS:        parsed.OS,
		OSVersion: parsed.OSVersion,
		Device:    parsed.Device,
		Name:      parsed.Name,
	}
}

// Describe renders a short device label such as "Chrome on Windows".
func (ua *UserAgent) Describe() *string {
	if ua.Name == "" && ua.OS == "" {
		return nil
	}
	label := ua.Name
	if ua.OS != "" {
		if label != "" {
			label += " on "
		}
		label += ua.OS
	}
	if ua.Device != "" {
		label += " (" + ua.Device + ")"
	}
	if ua.Bot {
		label += " [bot]"
	}
	return &label
}
