package model

// ShortLink maps a short identifier to its destination and the principal that created it.
type ShortLink struct {
	ID          string `json:"id"`
	Destination string `json:"long_url"`
	Owner       string `json:"username"`
}

// User is an account that can obtain credentials from the service.
type User struct {
	Username     string
	PasswordHash string
}
