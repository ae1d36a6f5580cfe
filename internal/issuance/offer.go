package issuance

// PreAuthorizedCodeGrant is the grant type embedded in every credential offer.
const PreAuthorizedCodeGrant = "urn:ietf:params:oauth:grant-type:pre-authorized_code"

// PreAuthorizedCode carries the code the wallet exchanges at the token
// endpoint, plus whether the user must additionally supply a PIN.
type PreAuthorizedCode struct {
	Code            string `json:"pre-authorized_code"`
	UserPinRequired bool   `json:"user_pin_required"`
}

// Grants holds the grant types offered to the wallet.
type Grants struct {
	PreAuthorizedCode PreAuthorizedCode `json:"urn:ietf:params:oauth:grant-type:pre-authorized_code"`
}

// CredentialOffer invites a wallet to collect credentials of the listed types.
type CredentialOffer struct {
	CredentialIssuer string   `json:"credential_issuer"`
	CredentialTypes  []string `json:"credentials"`
	Grants           Grants   `json:"grants"`
}

// OfferOption customizes credential offer construction.
type OfferOption func(*CredentialOffer)

// WithUserPin marks the offer as requiring a user PIN in addition to the
// pre-authorized code. Offers default to not requiring one.
func WithUserPin() OfferOption {
	return func(o *CredentialOffer) {
		o.Grants.PreAuthorizedCode.UserPinRequired = true
	}
}

// NewCredentialOffer builds an offer embedding a pre-authorized-code grant.
func NewCredentialOffer(issuerURL string, credentialTypes []string, preAuthorizedCode string, opts ...OfferOption) CredentialOffer {
	o := CredentialOffer{
		CredentialIssuer: issuerURL,
		CredentialTypes:  credentialTypes,
		Grants: Grants{
			PreAuthorizedCode: PreAuthorizedCode{
				Code:            preAuthorizedCode,
				UserPinRequired: false,
			},
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
