package sol

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"golang.org/x/time/rate"

	"dlmmroute/pkg"
)

// SimulationUser is a funded throwaway signer accepted by simulation-only
// RPC calls (sigVerify is off, so no key material is needed client-side).
var SimulationUser = solana.MustPublicKeyFromBase58("HrY9qR5TiB2xPzzvbBu5KrBorMfYGQXh9osXydz4jy9s")

// returnLogPrefix marks the log line carrying a program's return data.
const returnLogPrefix = "Program return: "

// Client is a rate-limited ledger gateway over a single RPC endpoint.
// It implements pkg.Gateway by simulating read-only invocations of the
// DLMM quoter program and decoding the returned value list.
type Client struct {
	endpoint string
	rpc      *rpc.Client
	limiter  *rate.Limiter
	program  solana.PublicKey
}

// NewClient creates a gateway client for one endpoint. programID is the
// base58 address of the on-chain quoter program; reqLimitPerSecond bounds
// outbound request rate (0 disables limiting).
func NewClient(ctx context.Context, endpoint, programID string, reqLimitPerSecond int) (*Client, error) {
	program, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID %q: %w", programID, err)
	}

	var limiter *rate.Limiter
	if reqLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(reqLimitPerSecond), reqLimitPerSecond)
	}

	return &Client{
		endpoint: endpoint,
		rpc:      rpc.New(endpoint),
		limiter:  limiter,
		program:  program,
	}, nil
}

// Endpoint returns the RPC endpoint URL this client talks to.
func (c *Client) Endpoint() string { return c.endpoint }

// callPayload is the borsh-encoded instruction body for a simulated call.
type callPayload struct {
	Entry    string
	TypeArgs []string
	Args     []string
}

// returnPayload is the borsh-encoded value list a quoter entry point
// writes to its return data.
type returnPayload struct {
	Values []string
}

// SimulateCall runs a read-only invocation of the quoter program entry
// point and returns its positional value list.
//
// Failures split two ways: anything that prevented the query from
// running (rate-limit cancellation, RPC failure) comes back as a
// *pkg.TransportError; a call that ran but errored on-chain or returned
// undecodable data yields an empty RawCallResult, which the resolver
// turns into an invalid quote.
func (c *Client) SimulateCall(ctx context.Context, entry string, typeArgs, args []string) (*pkg.RawCallResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &pkg.TransportError{Endpoint: c.endpoint, Err: err}
		}
	}

	// Type arguments are token mints; reject garbage before it reaches
	// the wire.
	for _, ta := range typeArgs {
		if _, err := base58.Decode(ta); err != nil {
			return nil, pkg.NewDomainError("sol: type argument %q is not base58: %v", ta, err)
		}
	}

	data, err := encodeCall(entry, typeArgs, args)
	if err != nil {
		return nil, pkg.NewDomainError("sol: encode call %q: %v", entry, err)
	}

	blockhash, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentProcessed)
	if err != nil {
		return nil, &pkg.TransportError{Endpoint: c.endpoint, Err: err}
	}

	inst := solana.NewInstruction(c.program, solana.AccountMetaSlice{}, data)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{inst},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(SimulationUser),
	)
	if err != nil {
		return nil, &pkg.TransportError{Endpoint: c.endpoint, Err: err}
	}

	resp, err := c.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		ReplaceRecentBlockhash: false,
		Commitment:             rpc.CommitmentProcessed,
	})
	if err != nil {
		return nil, &pkg.TransportError{Endpoint: c.endpoint, Err: err}
	}
	if resp == nil || resp.Value == nil {
		return nil, &pkg.TransportError{Endpoint: c.endpoint, Err: fmt.Errorf("empty simulation response")}
	}

	// A program-level error means the query ran and found nothing
	// executable. Soft outcome, not a transport failure.
	if resp.Value.Err != nil {
		return &pkg.RawCallResult{}, nil
	}

	return decodeReturnLogs(c.program, resp.Value.Logs), nil
}

func encodeCall(entry string, typeArgs, args []string) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.Encode(callPayload{Entry: entry, TypeArgs: typeArgs, Args: args}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeReturnLogs extracts the program's return data from simulation
// logs ("Program return: <programID> <base64>"). Any malformed or absent
// return data degrades to an empty result.
func decodeReturnLogs(program solana.PublicKey, logs []string) *pkg.RawCallResult {
	programID := program.String()
	for _, line := range logs {
		if !strings.HasPrefix(line, returnLogPrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, returnLogPrefix))
		if len(fields) != 2 || fields[0] != programID {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(fields[1])
		if err != nil {
			return &pkg.RawCallResult{}
		}
		var out returnPayload
		if err := bin.NewBorshDecoder(raw).Decode(&out); err != nil {
			return &pkg.RawCallResult{}
		}
		return &pkg.RawCallResult{Values: out.Values}
	}
	return &pkg.RawCallResult{}
}
