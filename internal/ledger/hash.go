package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"math/bits"

	"github.com/matdaan/vicore/internal/models"
)

// ComputeBlockHash derives the block digest over
// index || timestamp || previous_hash || data || nonce.
// The encoding is fixed-width big-endian with length-prefixed strings, so a
// given block has exactly one valid digest.
func ComputeBlockHash(block *models.Block) models.Hash256 {
	payload := make([]byte, 0, 3*models.HashSize+len(block.Data.ElectionID)+48)
	payload = binary.BigEndian.AppendUint64(payload, block.Index)
	payload = binary.BigEndian.AppendUint64(payload, uint64(block.Timestamp.UnixNano()))
	payload = append(payload, block.PreviousHash[:]...)
	payload = appendVoteRecord(payload, block.Data)
	payload = binary.BigEndian.AppendUint64(payload, block.Nonce)
	return sha256.Sum256(payload)
}

func appendVoteRecord(payload []byte, record models.VoteRecord) []byte {
	payload = append(payload, record.VoterHash[:]...)
	payload = binary.BigEndian.AppendUint64(payload, uint64(len(record.ElectionID)))
	payload = append(payload, record.ElectionID...)
	payload = append(payload, record.CandidateHash[:]...)
	payload = binary.BigEndian.AppendUint64(payload, uint64(record.CastAt.UnixNano()))
	return payload
}

// HashVoterID anonymizes a voter identity for one election. The salt keeps
// voter hashes unlinkable across deployments.
func HashVoterID(voterID, electionID, salt string) models.Hash256 {
	h := sha256.New()
	for _, part := range []string{voterID, electionID, salt} {
		var l [8]byte
		binary.BigEndian.PutUint64(l[:], uint64(len(part)))
		h.Write(l[:])
		h.Write([]byte(part))
	}

	var out models.Hash256
	copy(out[:], h.Sum(nil))
	return out
}

// HashCandidateID anonymizes a candidate identity.
func HashCandidateID(candidateID string) models.Hash256 {
	return sha256.Sum256([]byte(candidateID))
}

// LeadingZeroBits counts the leading zero bits of a digest.
func LeadingZeroBits(h models.Hash256) uint {
	var n uint
	for _, b := range h {
		if b == 0 {
			n += 8
			continue
		}
		n += uint(bits.LeadingZeros8(b))
		break
	}
	return n
}

func meetsDifficulty(h models.Hash256, difficulty uint) bool {
	return LeadingZeroBits(h) >= difficulty
}
