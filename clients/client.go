package clients

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ChainClient is the on-chain capability the payment authorizer uses
// in execute-on-chain mode: read an ERC-20 balance and move funds.
type ChainClient interface {
	// BalanceOf returns the owner's balance of the given asset in
	// atomic units.
	BalanceOf(ctx context.Context, asset, owner common.Address) (*big.Int, error)

	// Transfer sends amount of asset to the recipient and returns the
	// transaction hash of the mined transfer. It must not return
	// before the transfer is finalized or failed.
	Transfer(ctx context.Context, asset, to common.Address, amount *big.Int) (string, error)

	// From returns the address funds are drawn from.
	From() common.Address

	Close()
}
