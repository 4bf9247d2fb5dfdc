// electiond boots one node of an election cluster: it wires the
// election core to boltdb-backed epoch/checkpoint stores, a static
// gossip snapshot read from the config file, a net/rpc transport, and
// an HTTP status endpoint (see also cmd/electionctl for the operator
// CLI).
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"io/ioutil"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/quorumforge/elections/dispatch"
	"github.com/quorumforge/elections/election"
	"github.com/quorumforge/elections/gossip"
	"github.com/quorumforge/elections/store"
	"github.com/quorumforge/elections/timer"
	"github.com/quorumforge/elections/transport"
	"github.com/quorumforge/elections/types"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

type serverConfig struct {
	Id       string `yaml:"id"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ReadOnly bool   `yaml:"readOnly"`
}

type config struct {
	Cluster           []serverConfig `yaml:"cluster"`
	StatusPort        int            `yaml:"statusPort"`
	StoreDir          string         `yaml:"storeDir"`
	ProgressTimeoutMs int            `yaml:"progressTimeoutMs"`
	ProofIntervalMs   int            `yaml:"proofIntervalMs"`
}

func generateConfig(args []string) {
	flagset := flag.NewFlagSet("config", flag.ExitOnError)
	var filepathOut, servers, storeDir string
	var statusPort int
	flagset.StringVar(&filepathOut, "file", "config.yaml", "full path of config file to write to")
	flagset.StringVar(&servers, "servers", "localhost:12345,localhost:12346,localhost:12347", "comma-separated list of server addresses")
	flagset.StringVar(&storeDir, "storeDir", ".", "directory to hold each node's boltdb file")
	flagset.IntVar(&statusPort, "statusPort", 9200, "base HTTP port for the /election/status endpoint; each node offsets by its index")
	if err := flagset.Parse(args); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	var cfg config
	cfg.StoreDir = storeDir
	cfg.StatusPort = statusPort
	cfg.ProgressTimeoutMs = int(election.LeaderElectionProgressTimeout / time.Millisecond)
	cfg.ProofIntervalMs = int(election.SendViewChangeProofInterval / time.Millisecond)
	for _, addr := range splitAddrs(servers) {
		host, port, err := parseHostPort(addr)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		cfg.Cluster = append(cfg.Cluster, serverConfig{
			Id:   uuid.New().String(),
			Host: host,
			Port: port,
		})
	}

	bytes, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	if err := ioutil.WriteFile(filepathOut, bytes, fs.ModePerm); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
}

func runServer(args []string) {
	flagset := flag.NewFlagSet("server", flag.ExitOnError)
	configFile := flagset.String("config", "", "YAML file containing cluster & configuration details")
	index := flagset.Int("me", -1, "index of this server in the config file")
	if err := flagset.Parse(args); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	bytes, err := ioutil.ReadFile(*configFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	var cfg config
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	if *index < 0 || *index >= len(cfg.Cluster) {
		fmt.Printf("invalid index: %d (config file specifies %d servers)\n", *index, len(cfg.Cluster))
		os.Exit(2)
	}

	self, members, err := buildMembership(cfg, *index)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	logger := logrus.WithFields(logrus.Fields{
		"node": self.InstanceId.String(),
		"addr": self.ExternalEndpoint.String(),
	})

	dbPath := filepath.Join(cfg.StoreDir, self.InstanceId.String()+".db")
	db, err := store.Open(dbPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to open election store")
	}
	defer db.Close()
	epochSource := store.NewEpochStore(db)
	checkpointSource := store.NewCheckpointStore(db)

	serialTimer := dispatch.NewSerialTimer(timer.New())
	rpcTransport := transport.NewRPCTransport(logger)
	publisher := &logPublisher{logger: logger}

	electionCfg := election.Config{
		Self:              self,
		ClusterSize:       len(cfg.Cluster),
		IsReadOnlyReplica: self.IsReadOnlyReplica,
		ProgressTimeout:   time.Duration(cfg.ProgressTimeoutMs) * time.Millisecond,
		ProofInterval:     time.Duration(cfg.ProofIntervalMs) * time.Millisecond,
	}
	coordinator, err := election.New(electionCfg, election.Deps{
		Publisher:        publisher,
		Timer:            serialTimer,
		Transport:        rpcTransport,
		Clock:            timer.SystemClock{},
		EpochSource:      epochSource,
		CheckpointSource: checkpointSource,
		Logger:           logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to construct election coordinator")
	}

	queue := dispatch.New(coordinator, 256)
	serialTimer.Bind(queue)

	feed := gossip.New()
	feed.Subscribe(func(snapshot []types.MemberInfo) {
		queue.Enqueue(election.GossipUpdated{Members: snapshot})
	})
	feed.Update(members)

	service := transport.NewService(queue.Enqueue, logger)
	admin := transport.NewAdminService(queue.Enqueue, coordinator.Status)
	manager := transport.NewManager(logger)
	go func() {
		if err := manager.Start(self.ExternalEndpoint, service, admin); err != nil {
			logger.WithError(err).Fatal("election transport stopped")
		}
	}()

	if cfg.StatusPort > 0 {
		router := mux.NewRouter()
		transport.RegisterStatusHandlers(router, transport.NewStatuser(coordinator.Status))
		statusAddr := fmt.Sprintf(":%d", cfg.StatusPort+*index)
		go func() {
			if err := http.ListenAndServe(statusAddr, router); err != nil {
				logger.WithError(err).Warn("status server stopped")
			}
		}()
		logger.WithField("address", statusAddr).Info("election status endpoint listening")
	}

	queue.Enqueue(election.StartElections{})

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	logger.Info("shutting down election node")
	queue.Enqueue(election.BecomeShuttingDown{})
	queue.Close()
}

// logPublisher reports the coordinator's outbound-only messages to the
// structured logger, the ambient observability surface a real cluster
// would hand off to its epoch manager and replication pipeline instead.
type logPublisher struct {
	logger logrus.FieldLogger
}

func (p *logPublisher) Publish(msg election.Message) {
	switch m := msg.(type) {
	case election.ElectionsDone:
		p.logger.WithFields(logrus.Fields{
			"view":   m.View,
			"leader": m.Leader.InstanceId.String(),
		}).Info("elections done")
	case election.UpdateNodePriority:
		p.logger.WithField("priority", m.Value).Info("node priority updated")
	case election.InitiateLeaderResignation:
		p.logger.Info("leader resignation handshake complete")
	}
}

func buildMembership(cfg config, index int) (types.NodeInfo, []types.MemberInfo, error) {
	var errs error
	members := make([]types.MemberInfo, 0, len(cfg.Cluster))
	var self types.NodeInfo
	for i, s := range cfg.Cluster {
		id, err := uuid.Parse(s.Id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cluster[%d]: invalid id %q: %w", i, s.Id, err))
			continue
		}
		endpoint := types.EndPoint{Host: s.Host, Port: s.Port}
		state := types.VNodeFollower
		if s.ReadOnly {
			state = types.VNodeReadOnlyReplica
		}
		members = append(members, types.MemberInfo{
			InstanceId:        types.NodeId(id),
			ExternalEndpoint:  endpoint,
			State:             state,
			IsAlive:           true,
			IsReadOnlyReplica: s.ReadOnly,
		})
		if i == index {
			self = types.NodeInfo{
				InstanceId:        types.NodeId(id),
				ExternalEndpoint:  endpoint,
				IsReadOnlyReplica: s.ReadOnly,
			}
		}
	}
	return self, members, errs
}

func splitAddrs(servers string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(servers); i++ {
		if i == len(servers) || servers[i] == ',' {
			if i > start {
				out = append(out, servers[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func parseHostPort(addr string) (string, int, error) {
	idx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", 0, fmt.Errorf("invalid address %q: missing port", addr)
	}
	host := addr[:idx]
	var port int
	if _, err := fmt.Sscanf(addr[idx+1:], "%d", &port); err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return host, port, nil
}

func main() {
	args := os.Args[1:]
	if len(args) < 1 {
		fmt.Printf("usage: %s config | server ...\n", os.Args[0])
		os.Exit(2)
	}
	switch args[0] {
	case "config":
		generateConfig(args[1:])
	case "server":
		runServer(args[1:])
	default:
		fmt.Printf("unknown sub-command: %s\n", args[0])
		os.Exit(2)
	}
}
