package aave

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

type stubCaller struct {
	result []byte
	err    error
	calls  int
}

func (x *stubCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	x.calls++
	return x.result, x.err
}

func newTestAave(t *testing.T, caller *stubCaller) *aave {
	parsed, err := abi.JSON(strings.NewReader(poolABI))
	gt.NoError(t, err)

	return &aave{
		walletAddr: "0x0000000000000000000000000000000000000001",
		poolAddr:   defaultPoolAddress,
		poolABI:    parsed,
		caller:     caller,
	}
}

func packAccountData(t *testing.T, parsed abi.ABI, values ...*big.Int) []byte {
	raw, err := parsed.Methods["getUserAccountData"].Outputs.Pack(
		values[0], values[1], values[2], values[3], values[4], values[5])
	gt.NoError(t, err)
	return raw
}

func TestExecuteZeroDebtAccount(t *testing.T) {
	// No debt means Aave reports max uint256 as the health factor
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	caller := &stubCaller{}
	aaveTool := newTestAave(t, caller)
	caller.result = packAccountData(t, aaveTool.poolABI,
		big.NewInt(250012345678), // 2500.1235 in base currency
		big.NewInt(0),
		big.NewInt(100000000000),
		big.NewInt(8000),
		big.NewInt(7500),
		maxUint256,
	)

	resp, err := aaveTool.Execute(t.Context(), genai.FunctionCall{Name: "fetch_aave_info"})
	gt.NoError(t, err)
	gt.V(t, caller.calls).Equal(1)

	gt.Equal(t, resp.Response["collateral_usd"], 2500.1235)
	gt.Equal(t, resp.Response["debt_usd"], 0.0)
	gt.Equal(t, resp.Response["available_borrow_usd"], 1000.0)

	hf, ok := resp.Response["health_factor"].(float64)
	gt.True(t, ok)
	gt.True(t, hf > 1e50)
}

func TestExecuteBorrowingAccount(t *testing.T) {
	caller := &stubCaller{}
	aaveTool := newTestAave(t, caller)
	caller.result = packAccountData(t, aaveTool.poolABI,
		big.NewInt(500000000000),
		big.NewInt(200000000000),
		big.NewInt(150000000000),
		big.NewInt(8000),
		big.NewInt(7500),
		new(big.Int).Mul(big.NewInt(1855), big.NewInt(1e15)), // 1.855e18
	)

	resp, err := aaveTool.Execute(t.Context(), genai.FunctionCall{Name: "fetch_aave_info"})
	gt.NoError(t, err)

	gt.Equal(t, resp.Response["collateral_usd"], 5000.0)
	gt.Equal(t, resp.Response["debt_usd"], 2000.0)
	gt.Equal(t, resp.Response["health_factor"], 1.855)
}

func TestExecuteTruncatedResult(t *testing.T) {
	caller := &stubCaller{result: []byte{0x01, 0x02}}
	aaveTool := newTestAave(t, caller)

	_, err := aaveTool.Execute(t.Context(), genai.FunctionCall{Name: "fetch_aave_info"})
	gt.Error(t, err)
}
