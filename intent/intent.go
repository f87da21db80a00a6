// Package intent defines the signed, nonced execution intent derived from a
// disbursement (§3 SignedExecutionIntent).
package intent

// SignedExecutionIntent is the payload produced by the Signer and consumed
// by the Submitter. Intent for a given disbursement id is stored at most
// once; the latest write wins (§3).
type SignedExecutionIntent struct {
	DisbursementID uint64 `json:"disbursement_id"`
	Nonce          uint64 `json:"nonce"`
	Payload        []byte `json:"payload"`
	Signature      []byte `json:"signature"`
}
