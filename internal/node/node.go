// Package node assembles a walletsim daemon: key loading, the broadcast
// journal, the wallet session and the bridge server. It can be embedded in
// any binary.
package node

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Klingon-tech/walletsim/config"
	"github.com/Klingon-tech/walletsim/internal/journal"
	klog "github.com/Klingon-tech/walletsim/internal/log"
	"github.com/Klingon-tech/walletsim/internal/rpc"
	"github.com/Klingon-tech/walletsim/internal/session"
	"github.com/Klingon-tech/walletsim/internal/storage"
	"github.com/rs/zerolog"
)

// PasswordFunc returns the password of the named key file.
type PasswordFunc func(name string) ([]byte, error)

// Option configures a Node.
type Option func(*Node)

// WithPassword sets how key file passwords are obtained.
func WithPassword(fn PasswordFunc) Option {
	return func(n *Node) { n.password = fn }
}

// WithSkipLogInit leaves the global logger as configured by the caller.
func WithSkipLogInit() Option {
	return func(n *Node) { n.skipLogInit = true }
}

// Node is a fully-initialized walletsim daemon.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	password    PasswordFunc
	skipLogInit bool

	db        storage.DB
	journal   *journal.Journal
	session   *session.Session
	rpcServer *rpc.Server
}

// New creates and initializes a Node. It performs all setup steps
// (logger, key, journal, session, bridge) but does NOT start listening.
// Call Start() for that.
func New(cfg *config.Config, opts ...Option) (*Node, error) {
	n := &Node{cfg: cfg}
	for _, o := range opts {
		o(n)
	}

	// ── 1. Logger ───────────────────────────────────────────────────
	if !n.skipLogInit {
		logFile := cfg.Log.File
		if logFile == "" {
			logsDir := cfg.LogsDir()
			if err := os.MkdirAll(logsDir, 0755); err != nil {
				return nil, fmt.Errorf("creating logs dir: %w", err)
			}
			logFile = filepath.Join(logsDir, "walletsim.log")
		}
		if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, expandHome(logFile)); err != nil {
			return nil, fmt.Errorf("initializing logger: %w", err)
		}
	}
	n.logger = klog.WithComponent("node")

	// ── 2. Key ──────────────────────────────────────────────────────
	opt := cfg.Options()
	if cfg.Wallet.PrivateKey == "" && cfg.Wallet.Mnemonic == "" && cfg.Wallet.Keystore != "" {
		secret, err := loadKeyFile(cfg, n.password)
		if err != nil {
			return nil, err
		}
		opt.ApplySecret(secret)
		n.logger.Info().Str("keystore", cfg.Wallet.Keystore).Str("kind", string(secret.Kind)).Msg("Key file loaded")
	}
	resolved, err := config.Resolve(opt)
	if err != nil {
		return nil, err
	}
	if cfg.Wallet.Keystore != "" {
		recordAddress(cfg, resolved.Identity.Address)
	}

	// ── 3. Journal ──────────────────────────────────────────────────
	if err := n.openJournal(resolved.Network.Name); err != nil {
		return nil, err
	}

	// ── 4. Session ──────────────────────────────────────────────────
	sess, err := session.NewResolved(resolved, session.WithJournal(n.journal))
	if err != nil {
		n.db.Close()
		return nil, fmt.Errorf("create session: %w", err)
	}
	n.session = sess

	// ── 5. Bridge ───────────────────────────────────────────────────
	addr := net.JoinHostPort(cfg.RPC.Addr, strconv.Itoa(cfg.RPC.Port))
	n.rpcServer = rpc.New(addr, sess, cfg.RPC)

	return n, nil
}

func (n *Node) openJournal(network string) error {
	if n.cfg.Journal.Enabled {
		dir := n.cfg.JournalDir()
		db, err := storage.NewBadger(dir)
		if err != nil {
			return fmt.Errorf("open journal at %s: %w", dir, err)
		}
		n.db = db
		n.logger.Info().Str("path", dir).Msg("Journal opened")
	} else {
		n.db = storage.NewMemory()
	}

	j, err := journal.Open(n.db, network)
	if err != nil {
		n.db.Close()
		return err
	}
	n.journal = j
	if l := j.Len(); l > 0 {
		n.logger.Info().Int("entries", l).Msg("Journal resumed")
	}
	return nil
}

// Start binds the bridge listener.
func (n *Node) Start() error {
	if err := n.rpcServer.Start(); err != nil {
		return err
	}
	w := n.session.Wallet()
	n.logger.Info().
		Str("address", w.Address).
		Str("network", w.Network).
		Str("bridge", "http://"+n.rpcServer.Addr()+rpc.BridgePath).
		Str("script", "http://"+n.rpcServer.Addr()+rpc.ScriptPath).
		Msg("Wallet simulator started")
	return nil
}

// Stop performs graceful shutdown in reverse order.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if n.db != nil {
		n.db.Close()
	}
	n.logger.Info().Msg("Goodbye!")
	if !n.skipLogInit {
		klog.Close()
	}
}

// RPCAddr returns the address the bridge server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Session returns the wallet session.
func (n *Node) Session() *session.Session {
	return n.session
}
