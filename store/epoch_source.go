package store

import (
	"github.com/quorumforge/elections/types"
)

var (
	epochNumberKey   = []byte("epoch/number")
	epochPositionKey = []byte("epoch/position")
	epochIDKey       = []byte("epoch/id")
)

// EpochStore persists the cluster's current epoch and implements
// election.EpochSource for the coordinator to read it back.
type EpochStore struct {
	db BoltStore
}

func NewEpochStore(db BoltStore) *EpochStore {
	return &EpochStore{db: db}
}

// GetLastEpoch implements election.EpochSource. It returns false only
// when no epoch has ever been recorded.
func (s *EpochStore) GetLastEpoch() (types.Epoch, bool) {
	numberBytes, err := s.db.Get(epochNumberKey)
	if err != nil {
		return types.NoEpoch, false
	}
	positionBytes, err := s.db.Get(epochPositionKey)
	if err != nil {
		return types.NoEpoch, false
	}
	idBytes, err := s.db.Get(epochIDKey)
	if err != nil {
		return types.NoEpoch, false
	}
	var id types.NodeId
	copy(id[:], idBytes)
	return types.Epoch{
		EpochNumber:   bytesToInt32(numberBytes),
		EpochPosition: bytesToInt64(positionBytes),
		EpochId:       id,
	}, true
}

// SetLastEpoch records a newly started epoch. It is called by the
// external epoch manager, not by the election core itself.
func (s *EpochStore) SetLastEpoch(epoch types.Epoch) error {
	if err := s.db.Set(epochNumberKey, int32ToBytes(epoch.EpochNumber)); err != nil {
		return err
	}
	if err := s.db.Set(epochPositionKey, int64ToBytes(epoch.EpochPosition)); err != nil {
		return err
	}
	id := epoch.EpochId
	return s.db.Set(epochIDKey, id[:])
}
