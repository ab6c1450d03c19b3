package analysis

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type IsolationForestTestSuite struct {
	suite.Suite
}

func TestIsolationForestTestSuite(t *testing.T) {
	suite.Run(t, new(IsolationForestTestSuite))
}

func clusteredMatrix(n int) [][]float64 {
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = []float64{
			47 + float64(i%7),
			48 + float64(i%5),
		}
	}

	return matrix
}

func (suite *IsolationForestTestSuite) TestFitIsolationForest_Deterministic() {
	train := clusteredMatrix(64)

	first := fitIsolationForest(train, 0.1)
	second := fitIsolationForest(train, 0.1)

	suite.Equal(first.offset, second.offset)
	suite.Equal(first.scoreSamples(train), second.scoreSamples(train))
}

func (suite *IsolationForestTestSuite) TestDecisionFunction_SeparatesOutliers() {
	train := clusteredMatrix(64)
	forest := fitIsolationForest(train, 0.1)

	decisions := forest.decisionFunction([][]float64{
		{50, 50},
		{500, -400},
	})

	suite.Greater(decisions[0], decisions[1])
	suite.Greater(decisions[0], 0.0)
	suite.Less(decisions[1], 0.0)
}

func (suite *IsolationForestTestSuite) TestScoreSamples_Range() {
	train := clusteredMatrix(32)
	forest := fitIsolationForest(train, 0.1)

	for _, score := range forest.scoreSamples(train) {
		suite.Less(score, 0.0)
		suite.GreaterOrEqual(score, -1.0)
	}
}

func (suite *IsolationForestTestSuite) TestAveragePathLength() {
	suite.Equal(0.0, averagePathLength(0))
	suite.Equal(0.0, averagePathLength(1))
	suite.Equal(1.0, averagePathLength(2))
	suite.InDelta(10.244, averagePathLength(256), 0.01)
}
