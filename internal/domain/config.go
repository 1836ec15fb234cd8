package domain

// Profile stores saved local defaults.
type Profile struct {
	Name      string      `json:"name"`
	IsDefault bool        `json:"is_default"`
	Location  *Coordinate `json:"location,omitempty"`
	Address   string      `json:"address,omitempty"`
	APIURL    string      `json:"api_url,omitempty"`
	Locale    string      `json:"locale,omitempty"`
}

// Config stores all local profiles.
type Config struct {
	Profiles []Profile `json:"profiles"`
}
