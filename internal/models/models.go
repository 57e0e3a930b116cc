package models

import "time"

// VoteRecord is the anonymized payload stored in a block. Voter and candidate
// identities only ever appear as one-way hashes.
type VoteRecord struct {
	VoterHash     Hash256   `json:"voter_hash"`
	ElectionID    string    `json:"election_id"`
	CandidateHash Hash256   `json:"candidate_hash"`
	CastAt        time.Time `json:"cast_at"`
}

// IsGenesis reports whether the record is the genesis marker payload.
func (r VoteRecord) IsGenesis() bool {
	return r.VoterHash.IsZero() && r.CandidateHash.IsZero() && r.ElectionID == ""
}

// Block is one link of the vote ledger. Blocks are immutable once mined.
type Block struct {
	Index        uint64     `json:"index"`
	Timestamp    time.Time  `json:"timestamp"`
	PreviousHash Hash256    `json:"previous_hash"`
	Data         VoteRecord `json:"data"`
	Nonce        uint64     `json:"nonce"`
	Hash         Hash256    `json:"hash"`
}

// Receipt is returned to the voter after a successful append. It proves
// inclusion without revealing the ballot.
type Receipt struct {
	BlockHash     Hash256   `json:"block_hash"`
	BlockIndex    uint64    `json:"block_index"`
	TransactionID string    `json:"transaction_id"`
	CastAt        time.Time `json:"cast_at"`
}

// ReceiptCheck is the result of looking a receipt back up on the chain.
type ReceiptCheck struct {
	Block      Block `json:"block"`
	ChainValid bool  `json:"chain_valid"`
}

// ChainStats summarizes the ledger for operators and metrics.
type ChainStats struct {
	Height     uint64  `json:"height"`
	TotalVotes uint64  `json:"total_votes"`
	LatestHash Hash256 `json:"latest_hash"`
	Difficulty uint    `json:"difficulty"`
	Valid      bool    `json:"valid"`
}

// AttemptOutcome classifies the result of one verification attempt.
type AttemptOutcome string

const (
	OutcomePassed            AttemptOutcome = "passed"
	OutcomeFailedDetection   AttemptOutcome = "failed_detection"
	OutcomeFailedLiveness    AttemptOutcome = "failed_liveness"
	OutcomeFailedMatch       AttemptOutcome = "failed_match"
	OutcomeDuplicateDetected AttemptOutcome = "duplicate_detected"
)

// Failed reports whether the outcome counts against the voter's attempt quota.
func (o AttemptOutcome) Failed() bool {
	return o != OutcomePassed
}

// VerificationAttempt is one append-only audit entry. Attempts are never
// updated or deleted after being written.
type VerificationAttempt struct {
	VoterID   string         `json:"voter_id"`
	Timestamp time.Time      `json:"timestamp"`
	Outcome   AttemptOutcome `json:"outcome"`
	Detail    string         `json:"detail,omitempty"`
	IPAddress string         `json:"ip_address"`
}
