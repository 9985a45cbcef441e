package dto

// ServerSettings is the saved document server location for one
// installation.
type ServerSettings struct {
	ServerURL string `json:"serverUrl"`
}

// Credentials is the saved OAuth client pair for one installation.
type Credentials struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}
