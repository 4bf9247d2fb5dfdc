// Package benchmark measures election liveness: a flag-driven,
// YAML-configured harness reporting timings on stdout, driving an
// in-process cluster of election coordinators wired directly to each
// other rather than over real sockets.
package benchmark

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/quorumforge/elections/dispatch"
	"github.com/quorumforge/elections/election"
	"github.com/quorumforge/elections/timer"
	"github.com/quorumforge/elections/types"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

type config struct {
	ClusterSize int `yaml:"clusterSize"`
	Iterations  int `yaml:"iterations"`
}

func loadConfig(path string) (config, error) {
	cfg := config{ClusterSize: 3, Iterations: 20}
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, nil // no config file: fall back to defaults, not an error
	}
	err = yaml.Unmarshal(bytes, &cfg)
	return cfg, err
}

type noopPublisher struct {
	done chan election.ElectionsDone
}

func (p *noopPublisher) Publish(msg election.Message) {
	if d, ok := msg.(election.ElectionsDone); ok {
		select {
		case p.done <- d:
		default:
		}
	}
}

type meshTransport struct {
	mu     sync.Mutex
	queues map[types.EndPoint]*dispatch.Queue
}

func (m *meshTransport) Send(to types.EndPoint, msg election.Message, deadline time.Time) {
	m.mu.Lock()
	q, ok := m.queues[to]
	m.mu.Unlock()
	if ok {
		q.Enqueue(msg)
	}
}

type zeroEpoch struct{}

func (zeroEpoch) GetLastEpoch() (types.Epoch, bool) { return types.NoEpoch, false }

type zeroCheckpoint struct{}

func (zeroCheckpoint) WriterCheckpoint() int64   { return -1 }
func (zeroCheckpoint) ChaserCheckpoint() int64   { return -1 }
func (zeroCheckpoint) LastCommitPosition() int64 { return -1 }

// BenchmarkTimeToElect measures, over cfg.Iterations rounds, how long a
// fresh cluster of cfg.ClusterSize nodes takes to converge on a leader
// after every node calls StartElections at once.
func BenchmarkTimeToElect(args []string) {
	flagset := flag.NewFlagSet("election-latency", flag.ExitOnError)
	configFile := flagset.String("config", "bench.yaml", "YAML file with clusterSize/iterations")
	if err := flagset.Parse(args); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	fmt.Printf("Running Performance Check: time to elect a leader (cluster size %d, %d iterations)\n", cfg.ClusterSize, cfg.Iterations)

	var total time.Duration
	for i := 0; i < cfg.Iterations; i++ {
		elapsed, err := runOneElection(cfg.ClusterSize)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		total += elapsed
	}
	fmt.Printf("[Benchmark] average time to first ElectionsDone across %d iterations, %d nodes: %s\n",
		cfg.Iterations, cfg.ClusterSize, total/time.Duration(cfg.Iterations))
}

func runOneElection(clusterSize int) (time.Duration, error) {
	mesh := &meshTransport{queues: map[types.EndPoint]*dispatch.Queue{}}
	members := make([]types.MemberInfo, clusterSize)
	nodes := make([]types.NodeInfo, clusterSize)
	for i := 0; i < clusterSize; i++ {
		nodes[i] = types.NodeInfo{
			InstanceId:       types.NewNodeId(),
			ExternalEndpoint: types.EndPoint{Host: "bench", Port: 10000 + i},
		}
		members[i] = types.MemberInfo{
			InstanceId:       nodes[i].InstanceId,
			ExternalEndpoint: nodes[i].ExternalEndpoint,
			State:            types.VNodeFollower,
			IsAlive:          true,
		}
	}

	publisher := &noopPublisher{done: make(chan election.ElectionsDone, clusterSize)}
	queues := make([]*dispatch.Queue, clusterSize)
	var errs error
	for i := 0; i < clusterSize; i++ {
		serialTimer := dispatch.NewSerialTimer(timer.New())
		c, err := election.New(election.Config{
			Self:        nodes[i],
			ClusterSize: clusterSize,
		}, election.Deps{
			Publisher:        publisher,
			Timer:            serialTimer,
			Transport:        mesh,
			Clock:            timer.SystemClock{},
			EpochSource:      zeroEpoch{},
			CheckpointSource: zeroCheckpoint{},
		})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		q := dispatch.New(c, 64)
		serialTimer.Bind(q)
		mesh.mu.Lock()
		mesh.queues[nodes[i].ExternalEndpoint] = q
		mesh.mu.Unlock()
		queues[i] = q
	}
	if errs != nil {
		return 0, errs
	}
	defer func() {
		for _, q := range queues {
			q.Close()
		}
	}()

	for _, q := range queues {
		q.Enqueue(election.GossipUpdated{Members: members})
	}

	start := time.Now()
	for _, q := range queues {
		q.Enqueue(election.StartElections{})
	}
	<-publisher.done
	return time.Since(start), nil
}
