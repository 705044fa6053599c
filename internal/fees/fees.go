// Package fees computes the final fee of a wallet transaction.
package fees

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/Klingon-tech/walletsim/internal/apiclient"
	"github.com/Klingon-tech/walletsim/internal/errs"
	klog "github.com/Klingon-tech/walletsim/internal/log"
)

// Source says where a fee came from.
type Source string

const (
	SourceFixed     Source = "fixed"
	SourceEstimated Source = "estimated"
	SourceCapped    Source = "capped"
)

// Estimate kinds, reported on FeeEstimationError.
const (
	KindTransfer     = "transfer"
	KindContractCall = "contract-call"
)

// Estimated is a fee and its source.
type Estimated struct {
	Fee    uint64 `json:"fee"`
	Source Source `json:"source"`
}

// Config is the fee policy.
type Config struct {
	// Multiplier scales live estimates; values <= 0 mean 1.
	Multiplier float64
	// MaxFee caps estimates, in micro-STX.
	MaxFee uint64
	// Fixed, when set, is used verbatim with no network call.
	Fixed *uint64
}

// FeeAPI is the subset of the ledger client used for estimates.
type FeeAPI interface {
	TransferFeeRate(ctx context.Context) (uint64, error)
	TransactionFeeEstimate(ctx context.Context, payloadHex string, estimatedLen int) ([]apiclient.FeeEstimation, error)
}

// Estimator applies a Config to live estimates.
type Estimator struct {
	api FeeAPI
	cfg Config
	mul *big.Rat
}

// NewEstimator returns an Estimator. The multiplier is parsed from its
// shortest decimal form so 1.1 scales by exactly 11/10.
func NewEstimator(api FeeAPI, cfg Config) (*Estimator, error) {
	m := cfg.Multiplier
	if m <= 0 {
		m = 1
	}
	mul, ok := new(big.Rat).SetString(strconv.FormatFloat(m, 'g', -1, 64))
	if !ok {
		return nil, errs.Configf("invalid fee multiplier %v", cfg.Multiplier)
	}
	return &Estimator{api: api, cfg: cfg, mul: mul}, nil
}

// Transfer returns the fee for an STX transfer.
func (e *Estimator) Transfer(ctx context.Context) (Estimated, error) {
	if e.cfg.Fixed != nil {
		return Estimated{Fee: *e.cfg.Fixed, Source: SourceFixed}, nil
	}
	raw, err := e.api.TransferFeeRate(ctx)
	if err != nil {
		return Estimated{}, &errs.FeeEstimationError{Kind: KindTransfer, Err: err}
	}
	est := e.apply(raw)
	klog.Fees.Debug().Uint64("raw", raw).Uint64("fee", est.Fee).Str("source", string(est.Source)).Msg("transfer fee")
	return est, nil
}

// ContractCall returns the fee for a contract call given its serialized
// payload and the estimated transaction length.
func (e *Estimator) ContractCall(ctx context.Context, payloadHex string, estimatedLen int) (Estimated, error) {
	if e.cfg.Fixed != nil {
		return Estimated{Fee: *e.cfg.Fixed, Source: SourceFixed}, nil
	}
	tiers, err := e.api.TransactionFeeEstimate(ctx, payloadHex, estimatedLen)
	if err != nil {
		return Estimated{}, &errs.FeeEstimationError{Kind: KindContractCall, Err: err}
	}
	if len(tiers) == 0 {
		klog.Fees.Warn().Uint64("fee", e.cfg.MaxFee).Msg("no fee tiers returned, using max fee")
		return Estimated{Fee: e.cfg.MaxFee, Source: SourceCapped}, nil
	}
	raw := tiers[0].Fee
	if len(tiers) >= 2 {
		raw = tiers[1].Fee
	}
	est := e.apply(raw)
	klog.Fees.Debug().Int("tiers", len(tiers)).Uint64("raw", raw).Uint64("fee", est.Fee).Str("source", string(est.Source)).Msg("contract call fee")
	return est, nil
}

// apply scales raw by the multiplier, rounding up, and caps at MaxFee.
func (e *Estimator) apply(raw uint64) Estimated {
	fee := Scale(raw, e.mul)
	if !fee.IsUint64() || fee.Uint64() > e.cfg.MaxFee {
		return Estimated{Fee: e.cfg.MaxFee, Source: SourceCapped}
	}
	return Estimated{Fee: fee.Uint64(), Source: SourceEstimated}
}

// Scale returns ceil(raw * mul).
func Scale(raw uint64, mul *big.Rat) *big.Int {
	r := new(big.Rat).Mul(new(big.Rat).SetUint64(raw), mul)
	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// String implements fmt.Stringer.
func (e Estimated) String() string {
	return fmt.Sprintf("%d (%s)", e.Fee, e.Source)
}
