package dto

// CreateTokenRequest is the payload for issuing a new API token.
type CreateTokenRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

// CreateTokenResponse returns the identifiers of a freshly issued token.
// The opaque token value is only ever returned here, at creation time.
type CreateTokenResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}
