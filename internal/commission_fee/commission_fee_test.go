package commission_fee

import (
	"testing"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func (suite *CommissionFeeTestSuite) TestPercentFeeModel() {
	model, err := NewPercentFeeModel(0.002)
	suite.Require().NoError(err)

	suite.True(d(0.2).Equal(model.CalcCommission("XRPEUR", d(10), d(100))))
	suite.True(d(0.2).Equal(model.CalcCommission("XRPEUR", d(-10), d(-100))))
	suite.True(model.CalcTax("XRPEUR", d(10), d(100)).IsZero())
	suite.True(model.CalcMaxSizeForCash(d(0), d(1)).IsZero())

	_, err = NewPercentFeeModel(1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidFeePct))
	_, err = NewPercentFeeModel(-0.1)
	suite.Error(err)
}

func (suite *CommissionFeeTestSuite) TestExchangeModels() {
	for _, model := range []FeeModel{NewBinanceFeeModel(), NewKucoinFeeModel()} {
		suite.True(d(0.1).Equal(model.CalcCommission("XRP/USDT", d(1), d(100))))

		// cash / (price * 1.001)
		size := model.CalcMaxSizeForCash(d(1001), d(10))
		suite.True(d(100).Equal(size), size.String())
	}
}

func (suite *CommissionFeeTestSuite) TestInteractiveBrokerFeeModel() {
	model := NewInteractiveBrokerFeeModel()

	tests := []struct {
		name     string
		size     float64
		expected float64
	}{
		{"zero size pays the minimum", 0, 1.0},
		{"small size pays the minimum", 10, 1.0},
		{"at threshold", 200, 1.0},
		{"large size", 1000, 5.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.True(d(tc.expected).Equal(model.CalcCommission("AAPL", d(tc.size), decimal.Zero)))
		})
	}

	size := model.CalcMaxSizeForCash(d(1000), d(100))
	cost := size.Mul(d(100)).Add(model.CalcCommission("AAPL", size, decimal.Zero))
	suite.True(cost.LessThanOrEqual(d(1000)))
	suite.Equal(int64(9), size.Floor().IntPart())
}

func (suite *CommissionFeeTestSuite) TestZeroFeeModel() {
	model := NewZeroFeeModel()
	suite.True(model.CalcCommission("AAPL", d(10), d(1000)).IsZero())
	suite.True(d(10).Equal(model.CalcMaxSizeForCash(d(1000), d(100))))
}

func (suite *CommissionFeeTestSuite) TestGetFeeModel() {
	tests := []struct {
		model    Model
		expected FeeModel
	}{
		{ModelBinance, &BinanceFeeModel{}},
		{ModelKucoin, &KucoinFeeModel{}},
		{ModelInteractiveBroker, &InteractiveBrokerFeeModel{}},
		{ModelZero, &ZeroFeeModel{}},
		{"", &ZeroFeeModel{}},
	}

	for _, tc := range tests {
		suite.Run(string(tc.model), func() {
			model, err := GetFeeModel(tc.model, 0)
			suite.NoError(err)
			suite.IsType(tc.expected, model)
		})
	}

	model, err := GetFeeModel(ModelPercent, 0.01)
	suite.NoError(err)
	suite.IsType(&PercentFeeModel{}, model)

	_, err = GetFeeModel("unknown", 0)
	suite.True(errors.HasCode(err, errors.ErrCodeFeeModelNotFound))
}
