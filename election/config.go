package election

import (
	"time"

	"github.com/quorumforge/elections/types"
	"go.uber.org/multierr"
)

const (
	// LeaderElectionProgressTimeout is armed on every view shift and on
	// ViewChangeProof-triggered jumps; it fires ElectionsTimedOut(view).
	LeaderElectionProgressTimeout = 1000 * time.Millisecond

	// SendViewChangeProofInterval is armed once at StartElections and
	// re-arms itself on every fire until shutdown.
	SendViewChangeProofInterval = 5000 * time.Millisecond
)

// Config is the fixed-at-construction configuration of one coordinator
// instance. NodePriority is the only field mutable after construction,
// via SetNodePriority.
type Config struct {
	Self              types.NodeInfo
	ClusterSize       int
	NodePriority      int32
	IsReadOnlyReplica bool

	// ProgressTimeout and ProofInterval override the constants above;
	// leave zero to use the defaults.
	ProgressTimeout time.Duration
	ProofInterval   time.Duration
}

// Validate reports every structurally invalid field of c at once, so
// construction fails fast with a complete diagnosis instead of one
// error at a time.
func (c Config) Validate() error {
	var errs error
	if c.ClusterSize <= 0 {
		errs = multierr.Append(errs, errConfig("cluster_size must be > 0"))
	}
	if c.Self.InstanceId.IsZero() {
		errs = multierr.Append(errs, errConfig("self.instance_id must be set"))
	}
	if c.Self.IsReadOnlyReplica != c.IsReadOnlyReplica {
		errs = multierr.Append(errs, errConfig("self.is_read_only_replica must match config.is_read_only_replica"))
	}
	return errs
}

func (c Config) progressTimeout() time.Duration {
	if c.ProgressTimeout > 0 {
		return c.ProgressTimeout
	}
	return LeaderElectionProgressTimeout
}

func (c Config) proofInterval() time.Duration {
	if c.ProofInterval > 0 {
		return c.ProofInterval
	}
	return SendViewChangeProofInterval
}

type configError string

func errConfig(msg string) error { return configError(msg) }

func (e configError) Error() string { return "election: invalid config: " + string(e) }
