package aave

import (
	"context"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"

	"github.com/agentfactor/cryptoassist/pkg/tool"
)

// Aave V3 Pool on Base mainnet
const defaultPoolAddress = "0xA238Dd80C259a72e81d7e4664a9801593F98d1c5"

const poolABI = `[
  {
    "inputs": [{"internalType": "address", "name": "user", "type": "address"}],
    "name": "getUserAccountData",
    "outputs": [
      {"internalType": "uint256", "name": "totalCollateralBase", "type": "uint256"},
      {"internalType": "uint256", "name": "totalDebtBase", "type": "uint256"},
      {"internalType": "uint256", "name": "availableBorrowsBase", "type": "uint256"},
      {"internalType": "uint256", "name": "currentLiquidationThreshold", "type": "uint256"},
      {"internalType": "uint256", "name": "ltv", "type": "uint256"},
      {"internalType": "uint256", "name": "healthFactor", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

type aave struct {
	rpcURL      string
	walletAddr  string
	poolAddr    string
	dialTimeout time.Duration

	caller  ethereum.ContractCaller
	poolABI abi.ABI
}

// New creates a new Aave position tool
func New() *aave {
	return &aave{
		dialTimeout: 15 * time.Second,
	}
}

// Flags returns CLI flags for this tool
func (x *aave) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-rpc-url",
			Sources:     cli.EnvVars("CRYPTOASSIST_BASE_RPC_URL"),
			Usage:       "Base chain JSON-RPC endpoint",
			Destination: &x.rpcURL,
		},
		&cli.StringFlag{
			Name:        "wallet-address",
			Sources:     cli.EnvVars("CRYPTOASSIST_WALLET_ADDRESS"),
			Usage:       "Wallet address to inspect on Aave",
			Destination: &x.walletAddr,
		},
		&cli.StringFlag{
			Name:        "aave-pool-address",
			Sources:     cli.EnvVars("CRYPTOASSIST_AAVE_POOL_ADDRESS"),
			Usage:       "Aave V3 Pool contract address",
			Value:       defaultPoolAddress,
			Destination: &x.poolAddr,
		},
	}
}

// Init dials the RPC endpoint. The tool stays disabled without an endpoint
// and wallet address.
func (x *aave) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if x.rpcURL == "" || x.walletAddr == "" {
		return false, nil
	}

	if !common.IsHexAddress(x.walletAddr) {
		return false, goerr.New("invalid wallet address", goerr.V("address", x.walletAddr))
	}
	if !common.IsHexAddress(x.poolAddr) {
		return false, goerr.New("invalid pool address", goerr.V("address", x.poolAddr))
	}

	parsed, err := abi.JSON(strings.NewReader(poolABI))
	if err != nil {
		return false, goerr.Wrap(err, "failed to parse pool ABI")
	}
	x.poolABI = parsed

	dialCtx, cancel := context.WithTimeout(ctx, x.dialTimeout)
	defer cancel()

	rpcClient, err := gethrpc.DialContext(dialCtx, x.rpcURL)
	if err != nil {
		return false, goerr.Wrap(err, "failed to dial Base RPC", goerr.V("url", x.rpcURL))
	}
	x.caller = ethclient.NewClient(rpcClient)

	return true, nil
}

// Prompt returns additional information to be added to the system prompt
func (x *aave) Prompt(ctx context.Context) string {
	return `When the user asks about their lending or borrowing position, use the fetch_aave_info tool to read their Aave V3 account data from the Base chain.`
}

// Spec returns the tool specification for Gemini function calling
func (x *aave) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "fetch_aave_info",
				Description: "Fetch the user's Aave V3 account data (collateral, debt, available borrows, health factor) from the Base chain",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *aave) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	data, err := x.poolABI.Pack("getUserAccountData", common.HexToAddress(x.walletAddr))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to pack call data")
	}

	poolAddr := common.HexToAddress(x.poolAddr)
	raw, err := x.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &poolAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call Aave pool contract")
	}

	values, err := x.poolABI.Unpack("getUserAccountData", raw)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unpack call result")
	}
	if len(values) < 6 {
		return nil, goerr.New("unexpected result from Aave pool contract",
			goerr.V("values", len(values)))
	}

	totalCollateral, ok := values[0].(*big.Int)
	if !ok {
		return nil, goerr.New("unexpected type for totalCollateralBase")
	}
	totalDebt, ok := values[1].(*big.Int)
	if !ok {
		return nil, goerr.New("unexpected type for totalDebtBase")
	}
	availableBorrows, ok := values[2].(*big.Int)
	if !ok {
		return nil, goerr.New("unexpected type for availableBorrowsBase")
	}
	healthFactor, ok := values[5].(*big.Int)
	if !ok {
		return nil, goerr.New("unexpected type for healthFactor")
	}

	return &genai.FunctionResponse{
		Name: fc.Name,
		Response: map[string]any{
			// base currency values have 8 decimals, health factor 18
			"collateral_usd":       scaleDown(totalCollateral, 8),
			"debt_usd":             scaleDown(totalDebt, 8),
			"available_borrow_usd": scaleDown(availableBorrows, 8),
			"health_factor":        scaleDown(healthFactor, 18),
		},
	}, nil
}

// scaleDown converts a fixed-point integer to a float rounded to 4 decimals.
// Aave reports max uint256 as the health factor when there is no debt, so the
// rounding must not go through int64.
func scaleDown(v *big.Int, decimals int) float64 {
	if v == nil {
		return 0
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	result, _ := new(big.Float).Quo(new(big.Float).SetInt(v), scale).Float64()

	return math.Round(result*10000) / 10000
}
