package domain

// PolicyInput is the document handed to the request policy engine
// before any platform call is made.
type PolicyInput struct {
	Subject   string    `json:"subject"`
	ClaimType ClaimType `json:"claim_type"`
	Threshold int       `json:"threshold"`
}

type PolicyDenial struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PolicyResult struct {
	Allow bool           `json:"allow"`
	Deny  []PolicyDenial `json:"deny,omitempty"`
}

type PolicyEvaluation struct {
	BundleID   string
	BundleHash string
	Result     PolicyResult
}
