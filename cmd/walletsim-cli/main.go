// walletsim-cli is a command-line client for a walletsimd daemon and a
// helper for deriving and storing wallet keys.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Klingon-tech/walletsim/config"
	"github.com/Klingon-tech/walletsim/internal/network"
	"github.com/Klingon-tech/walletsim/internal/rpc"
	"github.com/Klingon-tech/walletsim/internal/rpcclient"
	"github.com/Klingon-tech/walletsim/internal/session"
	"github.com/Klingon-tech/walletsim/internal/wallet"
	"golang.org/x/term"
)

// globals holds flags that apply to every command.
type globals struct {
	rpcURL  string
	dataDir string
	network string
	timeout time.Duration
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	g := globals{
		dataDir: config.DefaultDataDir(),
		network: "testnet",
		timeout: 10 * time.Second,
	}

	// Scan for global flags before the subcommand.
	args := os.Args[1:]
	for len(args) > 0 {
		name, value, rest, ok := globalFlag(args)
		if !ok {
			break
		}
		switch name {
		case "rpc":
			g.rpcURL = value
		case "datadir":
			g.dataDir = value
		case "network":
			g.network = value
		case "timeout":
			d, err := time.ParseDuration(value)
			if err != nil {
				fatal("--timeout: %v", err)
			}
			g.timeout = d
		}
		args = rest
	}
	if g.rpcURL == "" {
		g.rpcURL = defaultRPCURL(g.network)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	client := rpcclient.NewWithTimeout(g.rpcURL, g.timeout)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "derive":
		cmdDerive(cmdArgs, g)
	case "keystore":
		cmdKeystore(cmdArgs, g)
	case "wallet":
		cmdWallet(client)
	case "reject-next":
		cmdRejectNext(client)
	case "reset-nonce":
		cmdResetNonce(client)
	case "last-tx":
		cmdLastTx(client)
	case "wait-tx":
		cmdWaitTx(client, cmdArgs)
	case "balance":
		cmdBalance(client, cmdArgs)
	case "nonce":
		cmdNonce(client, cmdArgs)
	case "call-read-only":
		cmdCallReadOnly(client, cmdArgs)
	case "journal":
		cmdJournal(client)
	case "script":
		cmdScript(client)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

// globalFlag matches one of the global flags at the front of args, in
// either --name value or --name=value form.
func globalFlag(args []string) (name, value string, rest []string, ok bool) {
	for _, n := range []string{"rpc", "datadir", "network", "timeout"} {
		flagName := "--" + n
		switch {
		case args[0] == flagName && len(args) > 1:
			return n, args[1], args[2:], true
		case strings.HasPrefix(args[0], flagName+"="):
			return n, args[0][len(flagName)+1:], args[1:], true
		}
	}
	return "", "", args, false
}

func defaultRPCURL(network string) string {
	port := config.DefaultRPCPortDevnet
	switch network {
	case "mainnet":
		port = config.DefaultRPCPortMainnet
	case "testnet":
		port = config.DefaultRPCPortTestnet
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: walletsim-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         Daemon endpoint (default: per-network port on 127.0.0.1)
  --datadir <path>    Data directory (default: ~/.walletsim)
  --network <net>     mainnet, testnet (default), devnet or an API URL
  --timeout <dur>     Request timeout (default: 10s; raise it for wait-tx)

Key commands (no daemon needed):
  derive [--accounts <n>]         Derive addresses from WALLETSIM_PRIVATE_KEY
                                  or WALLETSIM_MNEMONIC, or a prompted secret
  keystore create --name <n> [--mnemonic] [--generate] [--account <i>]
                                  Encrypt a key or mnemonic into a key file
  keystore list                   List key files
  keystore info --name <n>        Show key file metadata

Daemon commands:
  wallet                          Show the wallet session
  reject-next                     Reject the next signing request
  reset-nonce                     Drop the cached nonce
  last-tx                         Show the last broadcast transaction id
  wait-tx <txid>                  Wait for a transaction to confirm
  balance [address]               Show an STX balance (default: the wallet)
  nonce [address]                 Show a ledger nonce (default: the wallet)
  call-read-only --contract <addr.name> --function <fn> [--arg <hex>]...
                                  Evaluate a read-only contract function
  journal                         List broadcast transactions
  script                          Print the provider injection script
`)
}

// ── key commands ────────────────────────────────────────────────────────

func cmdDerive(args []string, g globals) {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	accounts := fs.Int("accounts", 1, "Number of mnemonic accounts to show")
	fs.Parse(args)

	net, err := network.Resolve(g.network)
	if err != nil {
		fatal("%v", err)
	}

	if key := os.Getenv(config.EnvPrivateKey); key != "" {
		id, err := wallet.DeriveIdentity(key, net)
		if err != nil {
			fatal("%v", err)
		}
		printIdentity(-1, id)
		return
	}

	mnemonic := os.Getenv(config.EnvMnemonic)
	if mnemonic == "" {
		secret, err := readPassword("Private key or mnemonic: ")
		if err != nil {
			fatal("read secret: %v", err)
		}
		s := strings.TrimSpace(string(secret))
		if !strings.Contains(s, " ") {
			id, err := wallet.DeriveIdentity(s, net)
			if err != nil {
				fatal("%v", err)
			}
			printIdentity(-1, id)
			return
		}
		mnemonic = s
	}
	if *accounts < 1 {
		fatal("--accounts must be at least 1")
	}
	for i := 0; i < *accounts; i++ {
		id, err := wallet.DeriveIdentityFromMnemonic(mnemonic, uint32(i), net)
		if err != nil {
			fatal("%v", err)
		}
		printIdentity(i, id)
	}
}

func printIdentity(index int, id *wallet.Identity) {
	if index >= 0 {
		fmt.Printf("[%d] %s  ", index, wallet.AccountPath(uint32(index)))
	}
	fmt.Printf("%s  %s\n", id.Address, id.PublicKey)
}

func cmdKeystore(args []string, g globals) {
	if len(args) < 1 {
		fatal("Usage: walletsim-cli keystore <create|list|info> [flags]")
	}
	ks, err := wallet.NewKeystore(keystoreDir(g))
	if err != nil {
		fatal("open keystore: %v", err)
	}

	switch args[0] {
	case "create":
		cmdKeystoreCreate(args[1:], ks, g)
	case "list":
		cmdKeystoreList(ks)
	case "info":
		cmdKeystoreInfo(args[1:], ks)
	default:
		fatal("Unknown keystore command: %s\nUsage: walletsim-cli keystore <create|list|info> [flags]", args[0])
	}
}

func keystoreDir(g globals) string {
	cfg := config.Config{DataDir: g.dataDir}
	return cfg.KeystoreDir()
}

func cmdKeystoreCreate(args []string, ks *wallet.Keystore, g globals) {
	fs := flag.NewFlagSet("keystore create", flag.ExitOnError)
	name := fs.String("name", "", "Key file name")
	useMnemonic := fs.Bool("mnemonic", false, "Store a mnemonic instead of a private key")
	generate := fs.Bool("generate", false, "Generate a new mnemonic")
	account := fs.String("account", "0", "Mnemonic account index")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: walletsim-cli keystore create --name <name> [--mnemonic] [--generate] [--account <i>]")
	}
	idx, err := config.ParseAccount(*account)
	if err != nil {
		fatal("--account: %v", err)
	}

	secret := wallet.Secret{Kind: wallet.SecretPrivateKey}
	switch {
	case *generate:
		m, err := wallet.GenerateMnemonic(24)
		if err != nil {
			fatal("generate mnemonic: %v", err)
		}
		fmt.Println("Mnemonic (write this down!):")
		fmt.Printf("  %s\n\n", m)
		secret = wallet.Secret{Kind: wallet.SecretMnemonic, Value: m, Account: idx}
	case *useMnemonic:
		m, err := readPassword("Mnemonic: ")
		if err != nil {
			fatal("read mnemonic: %v", err)
		}
		phrase, err := wallet.ParseMnemonic(string(m))
		if err != nil {
			fatal("%v", err)
		}
		secret = wallet.Secret{Kind: wallet.SecretMnemonic, Value: phrase, Account: idx}
	default:
		k, err := readPassword("Private key (hex): ")
		if err != nil {
			fatal("read key: %v", err)
		}
		secret.Value = strings.TrimSpace(string(k))
	}

	// Check the secret derives before encrypting it.
	net, err := network.Resolve(g.network)
	if err != nil {
		fatal("%v", err)
	}
	var id *wallet.Identity
	if secret.Kind == wallet.SecretMnemonic {
		id, err = wallet.DeriveIdentityFromMnemonic(secret.Value, secret.Account, net)
	} else {
		id, err = wallet.DeriveIdentity(secret.Value, net)
	}
	if err != nil {
		fatal("%v", err)
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	if err := ks.Create(*name, secret, password, wallet.DefaultParams()); err != nil {
		fatal("create key file: %v", err)
	}
	if err := ks.RecordAddress(*name, g.network, id.Address); err != nil {
		fatal("record address: %v", err)
	}

	fmt.Printf("\nKey file created: %s\n", ks.Path(*name))
	fmt.Printf("Address: %s\n", id.Address)
}

func cmdKeystoreList(ks *wallet.Keystore) {
	names, err := ks.List()
	if err != nil {
		fatal("list key files: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No key files found.")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func cmdKeystoreInfo(args []string, ks *wallet.Keystore) {
	fs := flag.NewFlagSet("keystore info", flag.ExitOnError)
	name := fs.String("name", "", "Key file name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: walletsim-cli keystore info --name <name>")
	}
	info, err := ks.Info(*name)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Name:     %s\n", info.Name)
	fmt.Printf("Kind:     %s\n", info.Kind)
	if info.Kind == wallet.SecretMnemonic {
		fmt.Printf("Account:  %d\n", info.Account)
	}
	fmt.Printf("Created:  %s\n", info.CreatedAt.Format(time.RFC3339))
	for net, addr := range info.Addresses {
		fmt.Printf("Address:  %s (%s)\n", addr, net)
	}
}

// ── daemon commands ─────────────────────────────────────────────────────

func cmdWallet(client *rpcclient.Client) {
	w, err := client.Wallet(context.Background())
	if err != nil {
		fatal("%s: %v", rpc.MethodGetWallet, err)
	}
	fmt.Printf("Address:     %s\n", w.Address)
	fmt.Printf("Public key:  %s\n", w.PublicKey)
	fmt.Printf("Network:     %s\n", w.Network)
	fmt.Printf("API:         %s\n", w.APIBaseURL)
	fmt.Printf("Reject next: %v\n", w.RejectNext)
	if w.LastTxID != "" {
		fmt.Printf("Last tx:     %s\n", w.LastTxID)
	}
}

func cmdRejectNext(client *rpcclient.Client) {
	if err := client.RejectNext(context.Background()); err != nil {
		fatal("%s: %v", rpc.MethodRejectNext, err)
	}
	fmt.Println("Next signing request will be rejected.")
}

func cmdResetNonce(client *rpcclient.Client) {
	if err := client.ResetNonce(context.Background()); err != nil {
		fatal("%s: %v", rpc.MethodResetNonce, err)
	}
	fmt.Println("Nonce cache cleared.")
}

func cmdLastTx(client *rpcclient.Client) {
	txid, ok, err := client.LastTxID(context.Background())
	if err != nil {
		fatal("%s: %v", rpc.MethodLastTxID, err)
	}
	if !ok {
		fmt.Println("No transaction broadcast yet.")
		return
	}
	fmt.Println(txid)
}

func cmdWaitTx(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: walletsim-cli wait-tx <txid>")
	}
	res, err := client.WaitForTx(context.Background(), args[0])
	if err != nil {
		fatal("%s: %v", rpc.MethodWaitForTx, err)
	}
	fmt.Printf("TxID:    %s\n", res.TxID)
	fmt.Printf("Status:  %s\n", res.Status)
	if res.BlockHeight != nil {
		fmt.Printf("Height:  %d\n", *res.BlockHeight)
	}
}

func cmdBalance(client *rpcclient.Client, args []string) {
	var addr string
	if len(args) > 0 {
		addr = args[0]
	}
	res, err := client.Balance(context.Background(), addr)
	if err != nil {
		fatal("%s: %v", rpc.MethodGetBalance, err)
	}
	fmt.Printf("%s  %s micro-STX\n", res.Address, res.Balance)
}

func cmdNonce(client *rpcclient.Client, args []string) {
	var addr string
	if len(args) > 0 {
		addr = args[0]
	}
	res, err := client.Nonce(context.Background(), addr)
	if err != nil {
		fatal("%s: %v", rpc.MethodGetNonce, err)
	}
	fmt.Printf("%s  %d\n", res.Address, res.Nonce)
}

// stringList collects a repeated flag.
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func cmdCallReadOnly(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("call-read-only", flag.ExitOnError)
	contract := fs.String("contract", "", "Contract id (ADDR.name)")
	function := fs.String("function", "", "Function name")
	sender := fs.String("sender", "", "Sender address (default: the wallet)")
	timeout := fs.Duration("call-timeout", 0, "Timeout for the ledger call")
	var fnArgs stringList
	fs.Var(&fnArgs, "arg", "Hex-encoded Clarity argument (repeatable)")
	fs.Parse(args)

	if *contract == "" || *function == "" {
		fatal("Usage: walletsim-cli call-read-only --contract <addr.name> --function <fn> [--arg <hex>]...")
	}
	res, err := client.CallReadOnly(context.Background(), rpc.ReadOnlyParam{
		ReadOnlyCall: session.ReadOnlyCall{
			Contract:      *contract,
			FunctionName:  *function,
			FunctionArgs:  fnArgs,
			SenderAddress: *sender,
		},
		TimeoutMs: timeout.Milliseconds(),
	})
	if err != nil {
		fatal("%s: %v", rpc.MethodCallReadOnly, err)
	}
	fmt.Printf("Result:  %s\n", res.Result)
	fmt.Printf("Value:   %s\n", res.Repr)
}

func cmdJournal(client *rpcclient.Client) {
	res, err := client.Journal(context.Background())
	if err != nil {
		fatal("%s: %v", rpc.MethodGetJournal, err)
	}
	if len(res.Entries) == 0 {
		fmt.Println("No transactions recorded.")
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Entries); err != nil {
		fatal("encode journal: %v", err)
	}
}

func cmdScript(client *rpcclient.Client) {
	script, err := client.ProviderScript(context.Background())
	if err != nil {
		fatal("fetch script: %v", err)
	}
	fmt.Print(script)
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
