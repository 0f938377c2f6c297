package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/agentpay/payproof/types"
)

// erc20ABI covers the two calls the payment path needs.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var _ ChainClient = (*EVMClient)(nil)

// EVMClient executes payment transfers through an Ethereum JSON-RPC
// endpoint.
type EVMClient struct {
	network  types.Network
	eth      *ethclient.Client
	tokenABI abi.ABI
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
}

// NewEVMClient dials the RPC endpoint and prepares a transactor for
// the given payer key. The key may be nil for read-only use.
func NewEVMClient(network types.Network, rpcURL, hexKey string) (*EVMClient, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	chainID, ok := network.ChainID()
	if !ok {
		return nil, &types.Error{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("no chain id known for network %s", network),
		}
	}

	c := &EVMClient{
		network:  network,
		eth:      eth,
		tokenABI: parsed,
		chainID:  big.NewInt(chainID),
	}

	if hexKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse payer key: %w", err)
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	return c, nil
}

func (c *EVMClient) From() common.Address {
	return c.from
}

func (c *EVMClient) Network() types.Network {
	return c.network
}

// BalanceOf reads the ERC-20 balance of owner for the given asset.
func (c *EVMClient) BalanceOf(ctx context.Context, asset, owner common.Address) (*big.Int, error) {
	token := bind.NewBoundContract(asset, c.tokenABI, c.eth, c.eth, c.eth)

	var out []interface{}
	err := token.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner)
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: fmt.Sprintf("balanceOf %s: %v", asset.Hex(), err),
		}
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Transfer moves amount of asset to the recipient and waits for the
// transaction to be mined. The hash it returns always refers to a
// finalized transfer.
func (c *EVMClient) Transfer(ctx context.Context, asset, to common.Address, amount *big.Int) (string, error) {
	if c.key == nil {
		return "", &types.Error{
			Code:    types.ErrAuthorization,
			Message: "no payer key configured for on-chain transfer",
		}
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return "", fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx

	token := bind.NewBoundContract(asset, c.tokenABI, c.eth, c.eth, c.eth)
	tx, err := token.Transact(opts, "transfer", to, amount)
	if err != nil {
		return "", &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: fmt.Sprintf("transfer to %s: %v", to.Hex(), err),
		}
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return "", &types.Error{
			Code:    types.ErrNetworkFailure,
			Message: fmt.Sprintf("wait for transfer %s: %v", tx.Hash().Hex(), err),
		}
	}
	if receipt.Status != 1 {
		return "", &types.Error{
			Code:    types.ErrAuthorization,
			Message: fmt.Sprintf("transfer %s reverted", tx.Hash().Hex()),
		}
	}

	return tx.Hash().Hex(), nil
}

func (c *EVMClient) Close() {
	c.eth.Close()
}
