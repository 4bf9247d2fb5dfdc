package store

var (
	writerCheckpointKey = []byte("checkpoint/writer")
	chaserCheckpointKey = []byte("checkpoint/chaser")
	lastCommitKey       = []byte("checkpoint/commit")
)

// CheckpointStore persists the local writer/chaser checkpoints and
// implements election.CheckpointSource for the coordinator to read
// them back when building its own fingerprint.
type CheckpointStore struct {
	db BoltStore
}

func NewCheckpointStore(db BoltStore) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) WriterCheckpoint() int64 {
	return s.readOrAbsent(writerCheckpointKey)
}

func (s *CheckpointStore) ChaserCheckpoint() int64 {
	return s.readOrAbsent(chaserCheckpointKey)
}

func (s *CheckpointStore) LastCommitPosition() int64 {
	return s.readOrAbsent(lastCommitKey)
}

func (s *CheckpointStore) SetWriterCheckpoint(pos int64) error {
	return s.db.Set(writerCheckpointKey, int64ToBytes(pos))
}

func (s *CheckpointStore) SetChaserCheckpoint(pos int64) error {
	return s.db.Set(chaserCheckpointKey, int64ToBytes(pos))
}

func (s *CheckpointStore) SetLastCommitPosition(pos int64) error {
	return s.db.Set(lastCommitKey, int64ToBytes(pos))
}

func (s *CheckpointStore) readOrAbsent(key []byte) int64 {
	val, err := s.db.Get(key)
	if err != nil {
		return -1
	}
	return bytesToInt64(val)
}
