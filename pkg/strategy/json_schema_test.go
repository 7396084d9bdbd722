package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type JsonSchemaTestSuite struct {
	suite.Suite
}

func TestJsonSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(JsonSchemaTestSuite))
}

func (suite *JsonSchemaTestSuite) TestToJSONSchema() {
	type crossover struct {
		Fast  int    `json:"fast" jsonschema:"title=Fast period,minimum=1,default=10"`
		Slow  int    `json:"slow" jsonschema:"title=Slow period,minimum=2,default=20"`
		Asset string `json:"asset" jsonschema:"description=SYMBOL@EXCHANGE"`
	}

	schema, err := ToJSONSchema(crossover{})
	suite.Require().NoError(err)
	suite.Contains(schema, `"fast"`)
	suite.Contains(schema, `"default":20`)
	suite.Contains(schema, `"minimum":2`)
	// definitions are inlined
	suite.NotContains(schema, `"$ref"`)
}

func (suite *JsonSchemaTestSuite) TestOptionalTimeAndDuration() {
	type TestConfig struct {
		Start    optional.Option[time.Time] `json:"start"`
		TimeUnit time.Duration              `json:"time_unit"`
	}

	schema, err := ToJSONSchema(TestConfig{})
	suite.NoError(err)
	suite.Contains(schema, `"format":"date-time"`)
	suite.Contains(schema, `"pattern"`)
	suite.NotContains(schema, `"type":"array"`)
}
