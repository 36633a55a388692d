package walletauth

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/cache"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/util"
	log "github.com/sirupsen/logrus"
)

// Ownership verdict methods reported to callers.
const (
	// MethodOnChain means a live eth_call produced the verdict.
	MethodOnChain = "on-chain"
	// MethodFallback means every endpoint failed and the static allow-list decided.
	MethodFallback = "fallback"
)

// balanceOfSelector is the 4-byte selector of ERC-721 balanceOf(address).
var balanceOfSelector = common.Hex2Bytes("70a08231")

// endpointTimeout bounds each individual RPC endpoint attempt.
const endpointTimeout = 10 * time.Second

// OwnershipResult reports whether an address holds the gating token and how
// the verdict was produced.
type OwnershipResult struct {
	Owns    bool     // Whether the address holds at least one token.
	Method  string   // MethodOnChain or MethodFallback.
	Balance *big.Int // Token balance; nil for fallback verdicts.
}

// Oracle answers ERC-721 balance queries with endpoint failover and a static
// allow-list fallback.
//
// Endpoints are tried strictly in order; a single endpoint failure is never
// surfaced to the caller. The allow-list is injected at construction so tests
// and operators control degraded-mode behavior deterministically.
type Oracle struct {
	contract  common.Address
	endpoints []string
	fallback  map[string]struct{}
	ownCache  *cache.OwnershipCache
	timeout   time.Duration
}

// NewOracle constructs an Oracle for a fixed contract.
func NewOracle(contractAddress string, endpoints []string, fallbackAllowlist []string, ownCache *cache.OwnershipCache) *Oracle {
	fallback := make(map[string]struct{}, len(fallbackAllowlist))
	for _, addr := range fallbackAllowlist {
		fallback[NormalizeAddress(addr)] = struct{}{}
	}
	return &Oracle{
		contract:  common.HexToAddress(contractAddress),
		endpoints: endpoints,
		fallback:  fallback,
		ownCache:  ownCache,
		timeout:   endpointTimeout,
	}
}

// CheckOwnership resolves whether address holds the gating token.
//
// It never returns an error for endpoint failures; the only error condition is
// a malformed address. Degraded verdicts report MethodFallback so callers can
// audit how the decision was made.
func (o *Oracle) CheckOwnership(ctx context.Context, address string) (OwnershipResult, error) {
	if !ValidAddress(address) {
		return OwnershipResult{}, validation(ErrMalformedAddress)
	}
	normalized := NormalizeAddress(address)

	if balance, ok := o.ownCache.GetBalance(ctx, normalized); ok {
		return OwnershipResult{Owns: balance.Sign() > 0, Method: MethodOnChain, Balance: balance}, nil
	}

	holder := common.HexToAddress(normalized)
	for _, endpoint := range o.endpoints {
		balance, errCall := o.balanceOf(ctx, endpoint, holder)
		if errCall != nil {
			log.WithError(errCall).Warnf("ownership oracle: endpoint %s failed for %s", endpoint, util.ShortAddress(normalized))
			continue
		}
		o.ownCache.SetBalance(ctx, normalized, balance)
		return OwnershipResult{Owns: balance.Sign() > 0, Method: MethodOnChain, Balance: balance}, nil
	}

	_, allowed := o.fallback[normalized]
	log.Warnf("ownership oracle: all %d endpoints failed, fallback allow-list verdict=%t for %s",
		len(o.endpoints), allowed, util.ShortAddress(normalized))
	return OwnershipResult{Owns: allowed, Method: MethodFallback}, nil
}

// balanceOf issues a single eth_call for balanceOf(holder) against one endpoint.
func (o *Oracle) balanceOf(ctx context.Context, endpoint string, holder common.Address) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	client, errDial := ethclient.DialContext(callCtx, endpoint)
	if errDial != nil {
		return nil, fmt.Errorf("dial: %w", errDial)
	}
	defer client.Close()

	data := make([]byte, 0, 4+32)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(holder.Bytes(), 32)...)

	// nil block number queries the latest block.
	res, errCall := client.CallContract(callCtx, ethereum.CallMsg{To: &o.contract, Data: data}, nil)
	if errCall != nil {
		return nil, fmt.Errorf("eth_call: %w", errCall)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("eth_call: empty result")
	}
	return new(big.Int).SetBytes(res), nil
}
