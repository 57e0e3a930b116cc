// Package ledger implements the append-only proof-of-work vote chain.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/matdaan/vicore/internal/config"
	"github.com/matdaan/vicore/internal/models"
	"github.com/matdaan/vicore/internal/store"
)

// VerdictSource gates appends on a fresh passed verification. Consume must
// invalidate the verdict it accepts so a verdict admits exactly one ballot.
type VerdictSource interface {
	Consume(ctx context.Context, voterID string) error
}

// Alerter is notified once when chain verification fails.
type Alerter interface {
	IntegrityFailure(ctx context.Context, failure *IntegrityError, height uint64)
}

type voteKey struct {
	voterHash  models.Hash256
	electionID string
}

// Service owns the vote chain. Appends are serialized through the write lock;
// reads work on immutable snapshots of the append-only block slice.
type Service struct {
	cfg      config.LedgerConfig
	store    store.Store
	verdicts VerdictSource
	alerter  Alerter

	mu     sync.RWMutex
	blocks []models.Block
	seen   map[voteKey]struct{}
	halted bool
}

// New loads the persisted chain, or mines and persists a genesis block when
// the store is empty. A persisted chain that fails verification refuses to
// load; the ledger never repairs it.
func New(ctx context.Context, cfg config.LedgerConfig, st store.Store, verdicts VerdictSource, alerter Alerter) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger config: %w", err)
	}
	if st == nil {
		return nil, fmt.Errorf("ledger requires a store")
	}
	if verdicts == nil {
		return nil, fmt.Errorf("ledger requires a verdict source")
	}

	blocks, err := st.LoadChain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain: %w", err)
	}

	if len(blocks) == 0 {
		genesis, err := mineBlock(ctx, models.Block{
			Index:        0,
			Timestamp:    time.Now().UTC(),
			PreviousHash: models.ZeroHash,
		}, cfg.Difficulty, cfg.MaxMiningAttempts, cfg.MiningWorkers)
		if err != nil {
			return nil, fmt.Errorf("failed to mine genesis block: %w", err)
		}
		if err := st.WriteBlock(ctx, &genesis); err != nil {
			return nil, fmt.Errorf("failed to persist genesis block: %w", err)
		}
		blocks = []models.Block{genesis}
		slog.Info("Genesis block mined", "hash", genesis.Hash.String(), "difficulty", cfg.Difficulty)
	} else if err := VerifyBlocks(ctx, blocks, cfg.Difficulty); err != nil {
		return nil, fmt.Errorf("refusing to start on invalid chain: %w", err)
	}

	return &Service{
		cfg:      cfg,
		store:    st,
		verdicts: verdicts,
		alerter:  alerter,
		blocks:   blocks,
		seen:     rebuildSeen(blocks),
	}, nil
}

// AppendVote records one ballot. It consumes the voter's verification
// verdict, rejects duplicates, mines the block and persists it before
// acknowledging. On any error the chain is unchanged.
func (s *Service) AppendVote(ctx context.Context, voterID, electionID, candidateID string) (models.Receipt, error) {
	if voterID == "" || electionID == "" || candidateID == "" {
		return models.Receipt{}, fmt.Errorf("voter, election and candidate IDs must all be set")
	}

	txID, err := newTransactionID()
	if err != nil {
		return models.Receipt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return models.Receipt{}, ErrLedgerHalted
	}

	if err := s.verdicts.Consume(ctx, voterID); err != nil {
		return models.Receipt{}, err
	}

	voterHash := HashVoterID(voterID, electionID, s.cfg.VoterSalt)
	key := voteKey{voterHash: voterHash, electionID: electionID}
	if _, ok := s.seen[key]; ok {
		return models.Receipt{}, ErrDuplicateVote
	}

	tip := s.blocks[len(s.blocks)-1]
	now := time.Now().UTC()
	candidate := models.Block{
		Index:        tip.Index + 1,
		Timestamp:    now,
		PreviousHash: tip.Hash,
		Data: models.VoteRecord{
			VoterHash:     voterHash,
			ElectionID:    electionID,
			CandidateHash: HashCandidateID(candidateID),
			CastAt:        now,
		},
	}

	mined, err := mineBlock(ctx, candidate, s.cfg.Difficulty, s.cfg.MaxMiningAttempts, s.cfg.MiningWorkers)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to mine block %d: %w", candidate.Index, err)
	}

	if err := s.store.WriteBlock(ctx, &mined); err != nil {
		return models.Receipt{}, fmt.Errorf("failed to persist block %d: %w", mined.Index, err)
	}

	s.blocks = append(s.blocks, mined)
	s.seen[key] = struct{}{}

	slog.Info("Vote recorded", "block", mined.Index, "election", electionID)

	return models.Receipt{
		BlockHash:     mined.Hash,
		BlockIndex:    mined.Index,
		TransactionID: txID,
		CastAt:        now,
	}, nil
}

// VerifyChain checks the full chain. An integrity failure halts all further
// writes until an operator resumes the ledger.
func (s *Service) VerifyChain(ctx context.Context) error {
	snap := s.snapshot()
	if err := VerifyBlocks(ctx, snap, s.cfg.Difficulty); err != nil {
		var integrity *IntegrityError
		if errors.As(err, &integrity) {
			s.halt(ctx, integrity, uint64(len(snap)))
		}
		return err
	}
	return nil
}

// Tally counts ballots per candidate for one election on a chain snapshot.
func (s *Service) Tally(ctx context.Context, electionID string, candidateIDs []string) (map[string]uint64, error) {
	return TallyBlocks(ctx, s.snapshot(), electionID, candidateIDs)
}

// HasVoted reports whether a ballot for this voter and election is on chain.
func (s *Service) HasVoted(voterID, electionID string) bool {
	key := voteKey{
		voterHash:  HashVoterID(voterID, electionID, s.cfg.VoterSalt),
		electionID: electionID,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[key]
	return ok
}

// BlockByHash looks a block up by its digest.
func (s *Service) BlockByHash(hash models.Hash256) (models.Block, bool) {
	for _, block := range s.snapshot() {
		if block.Hash == hash {
			return block, true
		}
	}
	return models.Block{}, false
}

// VerifyReceipt proves that a receipt's block is on the chain and reports
// whether the surrounding chain is still intact.
func (s *Service) VerifyReceipt(ctx context.Context, blockHash models.Hash256) (models.ReceiptCheck, error) {
	block, ok := s.BlockByHash(blockHash)
	if !ok {
		return models.ReceiptCheck{}, fmt.Errorf("no block with hash %s", blockHash)
	}

	if err := s.VerifyChain(ctx); err != nil {
		var integrity *IntegrityError
		if errors.As(err, &integrity) {
			return models.ReceiptCheck{Block: block, ChainValid: false}, nil
		}
		return models.ReceiptCheck{}, err
	}

	return models.ReceiptCheck{Block: block, ChainValid: true}, nil
}

// Stats summarizes the chain for operators.
func (s *Service) Stats(ctx context.Context) (models.ChainStats, error) {
	snap := s.snapshot()
	stats := models.ChainStats{
		Height:     uint64(len(snap)),
		Difficulty: s.cfg.Difficulty,
		Valid:      true,
	}
	if len(snap) > 0 {
		stats.TotalVotes = uint64(len(snap)) - 1
		stats.LatestHash = snap[len(snap)-1].Hash
	}

	if err := s.VerifyChain(ctx); err != nil {
		var integrity *IntegrityError
		if !errors.As(err, &integrity) {
			return models.ChainStats{}, err
		}
		stats.Valid = false
	}

	return stats, nil
}

// Export returns a copy of the chain for serialization or audit transfer.
func (s *Service) Export() []models.Block {
	snap := s.snapshot()
	out := make([]models.Block, len(snap))
	copy(out, snap)
	return out
}

// Height returns the number of blocks on the chain, genesis included.
func (s *Service) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.blocks))
}

// Halted reports whether writes are suspended after an integrity failure.
func (s *Service) Halted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.halted
}

// Resume re-arms writes after an operator has restored the chain.
func (s *Service) Resume() {
	s.mu.Lock()
	s.halted = false
	s.mu.Unlock()
	slog.Warn("Ledger writes resumed by operator")
}

// snapshot returns the current block slice. Blocks are append-only and
// immutable, so the returned slice is safe to read without the lock.
func (s *Service) snapshot() []models.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocks
}

func (s *Service) halt(ctx context.Context, failure *IntegrityError, height uint64) {
	s.mu.Lock()
	already := s.halted
	s.halted = true
	s.mu.Unlock()

	if already {
		return
	}

	slog.Error("Chain integrity failure, halting writes", "block", failure.Index, "reason", failure.Reason)
	if s.alerter != nil {
		s.alerter.IntegrityFailure(ctx, failure, height)
	}
}

func rebuildSeen(blocks []models.Block) map[voteKey]struct{} {
	seen := make(map[voteKey]struct{}, len(blocks))
	for _, block := range blocks {
		if block.Index == 0 {
			continue
		}
		seen[voteKey{voterHash: block.Data.VoterHash, electionID: block.Data.ElectionID}] = struct{}{}
	}
	return seen
}

func newTransactionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate transaction ID: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
